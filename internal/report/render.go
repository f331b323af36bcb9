package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/f-sync/unfollow/internal/listview"
	"github.com/f-sync/unfollow/internal/relations"
)

// PageData captures the state needed to render the tracker page.
type PageData struct {
	Analysis *AnalysisView
	Errors   []string
}

// AnalysisView describes one analyzed archive and how its lists are filtered.
// An empty ID renders a static report: every tab is shown and no controls are emitted.
type AnalysisView struct {
	ID          string
	FileName    string
	Result      relations.Result
	ActiveTab   relations.ListKind
	Hidden      map[relations.ListKind]map[string]bool
	Query       string
	ShowDeleted bool
}

// RenderPage assembles the HTML output using the embedded assets and templates.
func RenderPage(pageData PageData) (string, error) {
	cssText, err := embeddedText(embeddedBaseCSSPath)
	if err != nil {
		return "", err
	}
	jsText, err := embeddedText(embeddedAppJSPath)
	if err != nil {
		return "", err
	}
	viewModel := newPageViewModel(pageData, cssText, jsText)
	tmpl, err := parseTemplates(embeddedFS, templateIndexFile)
	if err != nil {
		return "", fmt.Errorf("template parse: %w", err)
	}
	var buffer bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buffer, templateIndexName, viewModel); err != nil {
		return "", fmt.Errorf("template execute: %w", err)
	}
	return buffer.String(), nil
}

type pageViewModel struct {
	Title       string
	HasAnalysis bool
	Interactive bool
	FileName    string
	Errors      []string

	Counts   relations.Counts
	Tabs     []tabViewModel
	Sections []sectionViewModel

	ActionPath  string
	HideAction  string
	ResetAction string
	Query       string
	ShowDeleted bool
	ActiveTab   string

	CSS template.CSS
	JS  template.JS
}

type tabViewModel struct {
	Kind   string
	Label  string
	Count  int
	Active bool
	URL    string
}

type sectionViewModel struct {
	Kind         string
	Title        string
	VisibleCount int
	TotalCount   int
	Entries      []accountEntryViewModel
	ExportURL    string
}

func newPageViewModel(pageData PageData, cssText string, jsText string) pageViewModel {
	viewModel := pageViewModel{
		Title: pageTitleText,
		CSS:   template.CSS(cssText),
		JS:    template.JS(jsText),
	}
	if len(pageData.Errors) > 0 {
		viewModel.Errors = append(viewModel.Errors, pageData.Errors...)
	}
	if pageData.Analysis == nil {
		return viewModel
	}

	analysis := *pageData.Analysis
	activeTab, found := listview.TabFor(analysis.ActiveTab)
	if !found {
		activeTab = listview.DefaultTab()
	}

	viewModel.HasAnalysis = true
	viewModel.Interactive = analysis.ID != ""
	viewModel.FileName = analysis.FileName
	viewModel.Counts = analysis.Result.Counts
	viewModel.Query = analysis.Query
	viewModel.ShowDeleted = analysis.ShowDeleted
	viewModel.ActiveTab = string(activeTab.Kind)
	if viewModel.Interactive {
		viewModel.ActionPath = AnalysisPath(analysis.ID)
		viewModel.HideAction = HidePath(analysis.ID)
		viewModel.ResetAction = ResetPath(analysis.ID)
	}

	for _, tab := range listview.Tabs() {
		isActive := tab.Kind == activeTab.Kind
		tabModel := tabViewModel{
			Kind:   string(tab.Kind),
			Label:  tab.Label,
			Count:  analysis.Result.Count(tab.Kind),
			Active: isActive,
			URL:    "#" + string(tab.Kind),
		}
		if viewModel.Interactive {
			tabModel.URL = TabURL(analysis.ID, tab.Kind, analysis.Query, analysis.ShowDeleted)
		}
		viewModel.Tabs = append(viewModel.Tabs, tabModel)

		if viewModel.Interactive && !isActive {
			continue
		}
		viewModel.Sections = append(viewModel.Sections, newSectionViewModel(analysis, tab, viewModel.Interactive))
	}
	return viewModel
}

func newSectionViewModel(analysis AnalysisView, tab listview.Tab, interactive bool) sectionViewModel {
	identifiers := analysis.Result.List(tab.Kind)
	visible := listview.Filter(identifiers, listview.Options{
		Hidden:      analysis.Hidden[tab.Kind],
		Query:       analysis.Query,
		HideDeleted: !analysis.ShowDeleted,
	})
	section := sectionViewModel{
		Kind:         string(tab.Kind),
		Title:        tab.Title,
		VisibleCount: len(visible),
		TotalCount:   len(identifiers),
		Entries:      newAccountEntries(visible),
	}
	if interactive {
		section.ExportURL = ExportURL(analysis.ID, tab.Kind, analysis.Query, analysis.ShowDeleted)
	}
	return section
}
