package report

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
)

//go:embed web/static/* web/templates/*
var embeddedFS embed.FS

const (
	templateBaseName     = "base"
	templateIndexFile    = "web/templates/index.tmpl"
	templateIndexName    = "index.tmpl"
	embeddedBaseCSSPath  = "web/static/base.css"
	embeddedAppJSPath    = "web/static/app.js"
	staticDirectory      = "web/static"
	accountHandlePrefix  = "@"
	pageTitleText        = "Instagram Unfollower Tracker"
	embedReadErrorFormat = "embed read %s: %w"
)

func embeddedText(path string) (string, error) {
	content, err := fs.ReadFile(embeddedFS, path)
	if err != nil {
		return "", fmt.Errorf(embedReadErrorFormat, path, err)
	}
	return string(content), nil
}

// StaticAssets exposes the embedded static asset filesystem.
func StaticAssets() (fs.FS, error) {
	return fs.Sub(embeddedFS, staticDirectory)
}

func parseTemplates(fileSystem fs.FS, files ...string) (*template.Template, error) {
	templateWithFuncs := template.New(templateBaseName).Funcs(template.FuncMap{
		"handle": func(identifier string) string {
			return accountHandlePrefix + identifier
		},
	})
	parsedTemplate, err := templateWithFuncs.ParseFS(fileSystem, files...)
	if err != nil {
		return nil, err
	}
	return parsedTemplate, nil
}
