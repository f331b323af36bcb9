package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/f-sync/unfollow/internal/hiddenstore"
	"github.com/f-sync/unfollow/internal/listview"
	"github.com/f-sync/unfollow/internal/relations"
	"github.com/f-sync/unfollow/internal/report"
)

const (
	formatJSON                     = "json"
	formatText                     = "text"
	formatCSV                      = "csv"
	formatHTML                     = "html"
	defaultConcurrency             = 4
	outputFilePermission           = 0o644
	outputDirectoryPermission      = 0o755
	archiveErrorFormat             = "%s: %w"
	renderErrorFormat              = "render %s: %w"
	hiddenStoreErrorFormat         = "hidden store: %w"
	writeFileErrorFormat           = "write %s: %w"
	createDirectoryErrorFormat     = "create %s: %w"
	writeSuccessMessageFormat      = "Wrote %s\n"
	textArchiveHeaderFormat        = "== %s ==\n"
	textCountLineFormat            = "%-22s %d\n"
	textSectionHeaderFormat        = "\n%s (%d of %d)\n"
	textEntryFormat                = "  @%s\n"
	indexedBaseNameFormat          = "%s_%d"
	duplicateOutputErrorFormat     = "%w: %s for %s and %s"
	errMessageMissingArchives      = "at least one archive path is required"
	errMessageUnknownFormat        = "unknown output format"
	errMessageOutputNeedsOneInput  = "--out accepts a single archive; use --out-dir for several"
	errMessageOutputTargetConflict = "--out and --out-dir are mutually exclusive"
	errMessageDuplicateOutputName  = "archives map to the same output file"
	logMessageArchiveAnalyzed      = "archive analyzed"
	logMessageOutputWritten        = "output written"
	logFieldArchive                = "archive"
	logFieldFollowers              = "followers"
	logFieldFollowing              = "following"
	logFieldOutput                 = "output"
)

var (
	errMissingArchives      = errors.New(errMessageMissingArchives)
	errUnknownFormat        = errors.New(errMessageUnknownFormat)
	errOutputNeedsOneInput  = errors.New(errMessageOutputNeedsOneInput)
	errOutputTargetConflict = errors.New(errMessageOutputTargetConflict)
	errDuplicateOutputName  = errors.New(errMessageDuplicateOutputName)
)

var outputExtensions = map[string]string{
	formatJSON: ".json",
	formatText: ".txt",
	formatCSV:  ".csv",
	formatHTML: ".html",
}

// AnalyzeConfiguration holds the options of one analyze invocation.
type AnalyzeConfiguration struct {
	ArchivePaths    []string
	Format          string
	ListName        string
	OutputPath      string
	OutputDirectory string
	HiddenDirectory string
	ShowDeleted     bool
	Query           string
	Concurrency     int
}

// AnalyzeDependencies are the collaborators of AnalyzeApplication; nil fields use the defaults.
type AnalyzeDependencies struct {
	AnalyzeArchive  func(string) (relations.Result, error)
	RenderPage      func(report.PageData) (string, error)
	OpenHiddenStore func(string) (*hiddenstore.Store, error)
	WriteOutputFile func(string, []byte) error
	Stdout          io.Writer
	Logger          *zap.Logger
}

// AnalyzeApplication analyzes archives and writes the selected output format.
type AnalyzeApplication struct {
	dependencies AnalyzeDependencies
}

func NewAnalyzeApplication() AnalyzeApplication {
	return NewAnalyzeApplicationWithDependencies(AnalyzeDependencies{})
}

func NewAnalyzeApplicationWithDependencies(dependencies AnalyzeDependencies) AnalyzeApplication {
	defaultDependencies := newDefaultAnalyzeDependencies()

	if dependencies.AnalyzeArchive == nil {
		dependencies.AnalyzeArchive = defaultDependencies.AnalyzeArchive
	}
	if dependencies.RenderPage == nil {
		dependencies.RenderPage = defaultDependencies.RenderPage
	}
	if dependencies.OpenHiddenStore == nil {
		dependencies.OpenHiddenStore = defaultDependencies.OpenHiddenStore
	}
	if dependencies.WriteOutputFile == nil {
		dependencies.WriteOutputFile = defaultDependencies.WriteOutputFile
	}
	if dependencies.Stdout == nil {
		dependencies.Stdout = defaultDependencies.Stdout
	}
	if dependencies.Logger == nil {
		dependencies.Logger = defaultDependencies.Logger
	}

	return AnalyzeApplication{dependencies: dependencies}
}

// archiveOutput is the rendered output of one archive.
type archiveOutput struct {
	archivePath string
	contents    []byte
}

// Run analyzes every archive concurrently and writes their outputs in argument order.
func (application AnalyzeApplication) Run(executionContext context.Context, configuration AnalyzeConfiguration) error {
	if len(configuration.ArchivePaths) == 0 {
		return errMissingArchives
	}
	format := strings.ToLower(configuration.Format)
	if format == "" {
		format = formatJSON
	}
	if _, known := outputExtensions[format]; !known {
		return fmt.Errorf("%w: %s", errUnknownFormat, configuration.Format)
	}
	if configuration.OutputPath != "" && configuration.OutputDirectory != "" {
		return errOutputTargetConflict
	}
	if configuration.OutputPath != "" && len(configuration.ArchivePaths) > 1 {
		return errOutputNeedsOneInput
	}
	tab := listview.DefaultTab()
	if configuration.ListName != "" {
		kind, err := listview.ParseListKind(configuration.ListName)
		if err != nil {
			return fmt.Errorf("%w: %s", err, configuration.ListName)
		}
		tab, _ = listview.TabFor(kind)
	}
	var fileNames []string
	if configuration.OutputDirectory != "" {
		names, err := outputFileNames(format, tab, configuration.ArchivePaths)
		if err != nil {
			return err
		}
		fileNames = names
	}
	hidden, err := application.loadHidden(configuration.HiddenDirectory)
	if err != nil {
		return err
	}

	concurrency := configuration.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	outputs := make([]archiveOutput, len(configuration.ArchivePaths))
	group, groupContext := errgroup.WithContext(executionContext)
	group.SetLimit(concurrency)
	for index, archivePath := range configuration.ArchivePaths {
		index, archivePath := index, archivePath
		group.Go(func() error {
			if err := groupContext.Err(); err != nil {
				return err
			}
			result, err := application.dependencies.AnalyzeArchive(archivePath)
			if err != nil {
				return fmt.Errorf(archiveErrorFormat, archivePath, err)
			}
			application.dependencies.Logger.Debug(logMessageArchiveAnalyzed,
				zap.String(logFieldArchive, archivePath),
				zap.Int(logFieldFollowers, result.Counts.Followers),
				zap.Int(logFieldFollowing, result.Counts.Following),
			)
			contents, err := application.format(format, archivePath, result, listFilters{
				tab:         tab,
				hidden:      hidden,
				query:       configuration.Query,
				showDeleted: configuration.ShowDeleted,
			})
			if err != nil {
				return err
			}
			outputs[index] = archiveOutput{archivePath: archivePath, contents: contents}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	return application.writeOutputs(format, configuration, fileNames, outputs)
}

func (application AnalyzeApplication) loadHidden(directory string) (map[relations.ListKind]map[string]bool, error) {
	hidden := make(map[relations.ListKind]map[string]bool)
	if directory == "" {
		return hidden, nil
	}
	store, err := application.dependencies.OpenHiddenStore(directory)
	if err != nil {
		return nil, fmt.Errorf(hiddenStoreErrorFormat, err)
	}
	for _, tab := range listview.Tabs() {
		identifiers, err := store.Load(tab.StorageKey)
		if err != nil {
			return nil, fmt.Errorf(hiddenStoreErrorFormat, err)
		}
		hidden[tab.Kind] = identifiers
	}
	return hidden, nil
}

func (application AnalyzeApplication) writeOutputs(format string, configuration AnalyzeConfiguration, fileNames []string, outputs []archiveOutput) error {
	switch {
	case configuration.OutputPath != "":
		return application.writeFile(configuration.OutputPath, outputs[0].contents)
	case configuration.OutputDirectory != "":
		if err := os.MkdirAll(configuration.OutputDirectory, outputDirectoryPermission); err != nil {
			return fmt.Errorf(createDirectoryErrorFormat, configuration.OutputDirectory, err)
		}
		for index, output := range outputs {
			outputPath := filepath.Join(configuration.OutputDirectory, fileNames[index])
			if err := application.writeFile(outputPath, output.contents); err != nil {
				return err
			}
		}
		return nil
	default:
		for _, output := range outputs {
			if len(outputs) > 1 && format == formatText {
				fmt.Fprintf(application.dependencies.Stdout, textArchiveHeaderFormat, output.archivePath)
			}
			if _, err := application.dependencies.Stdout.Write(output.contents); err != nil {
				return err
			}
		}
		return nil
	}
}

func (application AnalyzeApplication) writeFile(outputPath string, contents []byte) error {
	if err := application.dependencies.WriteOutputFile(outputPath, contents); err != nil {
		return err
	}
	application.dependencies.Logger.Debug(logMessageOutputWritten, zap.String(logFieldOutput, outputPath))
	fmt.Fprintf(application.dependencies.Stdout, writeSuccessMessageFormat, outputPath)
	return nil
}

// outputFileName derives the per-archive output name; CSV names carry the exported list.
func outputFileName(format string, tab listview.Tab, baseName string) string {
	if format == formatCSV {
		return baseName + "_" + tab.CSVFileName
	}
	return baseName + outputExtensions[format]
}

// outputFileNames names one output per archive. Archives sharing a base name, compared
// case-insensitively, are told apart by their one-based argument position.
func outputFileNames(format string, tab listview.Tab, archivePaths []string) ([]string, error) {
	baseNames := make([]string, len(archivePaths))
	baseNameCounts := make(map[string]int, len(archivePaths))
	for index, archivePath := range archivePaths {
		baseNames[index] = strings.TrimSuffix(filepath.Base(archivePath), filepath.Ext(archivePath))
		baseNameCounts[strings.ToLower(baseNames[index])]++
	}

	fileNames := make([]string, len(archivePaths))
	usedFileNames := make(map[string]string, len(archivePaths))
	for index, baseName := range baseNames {
		if baseNameCounts[strings.ToLower(baseName)] > 1 {
			baseName = fmt.Sprintf(indexedBaseNameFormat, baseName, index+1)
		}
		fileName := outputFileName(format, tab, baseName)
		foldedFileName := strings.ToLower(fileName)
		if previousArchive, taken := usedFileNames[foldedFileName]; taken {
			return nil, fmt.Errorf(duplicateOutputErrorFormat, errDuplicateOutputName, fileName, previousArchive, archivePaths[index])
		}
		usedFileNames[foldedFileName] = archivePaths[index]
		fileNames[index] = fileName
	}
	return fileNames, nil
}

type listFilters struct {
	tab         listview.Tab
	hidden      map[relations.ListKind]map[string]bool
	query       string
	showDeleted bool
}

func (filters listFilters) visible(result relations.Result, kind relations.ListKind) []string {
	return listview.Filter(result.List(kind), listview.Options{
		Hidden:      filters.hidden[kind],
		Query:       filters.query,
		HideDeleted: !filters.showDeleted,
	})
}

func (application AnalyzeApplication) format(format string, archivePath string, result relations.Result, filters listFilters) ([]byte, error) {
	var buffer bytes.Buffer
	switch format {
	case formatJSON:
		encoder := json.NewEncoder(&buffer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return nil, err
		}
	case formatCSV:
		if err := listview.WriteCSV(&buffer, filters.visible(result, filters.tab.Kind)); err != nil {
			return nil, err
		}
	case formatHTML:
		pageHTML, err := application.dependencies.RenderPage(report.PageData{Analysis: &report.AnalysisView{
			FileName:    filepath.Base(archivePath),
			Result:      result,
			Hidden:      filters.hidden,
			Query:       filters.query,
			ShowDeleted: filters.showDeleted,
		}})
		if err != nil {
			return nil, fmt.Errorf(renderErrorFormat, archivePath, err)
		}
		buffer.WriteString(pageHTML)
	default:
		writeTextReport(&buffer, result, filters)
	}
	return buffer.Bytes(), nil
}

func writeTextReport(buffer *bytes.Buffer, result relations.Result, filters listFilters) {
	fmt.Fprintf(buffer, textCountLineFormat, "followers", result.Counts.Followers)
	fmt.Fprintf(buffer, textCountLineFormat, "following", result.Counts.Following)
	for _, tab := range listview.Tabs() {
		fmt.Fprintf(buffer, textCountLineFormat, string(tab.Kind), result.Count(tab.Kind))
	}
	for _, tab := range listview.Tabs() {
		visible := filters.visible(result, tab.Kind)
		fmt.Fprintf(buffer, textSectionHeaderFormat, tab.Title, len(visible), result.Count(tab.Kind))
		for _, identifier := range visible {
			fmt.Fprintf(buffer, textEntryFormat, identifier)
		}
	}
}

func newDefaultAnalyzeDependencies() AnalyzeDependencies {
	return AnalyzeDependencies{
		AnalyzeArchive:  relations.AnalyzeArchiveFile,
		RenderPage:      report.RenderPage,
		OpenHiddenStore: hiddenstore.OpenDirectory,
		WriteOutputFile: defaultWriteOutputFile,
		Stdout:          os.Stdout,
		Logger:          zap.NewNop(),
	}
}

func defaultWriteOutputFile(outputPath string, contents []byte) error {
	if err := os.WriteFile(outputPath, contents, outputFilePermission); err != nil {
		return fmt.Errorf(writeFileErrorFormat, outputPath, err)
	}
	return nil
}
