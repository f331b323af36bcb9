package report

import (
	"net/url"

	"github.com/f-sync/unfollow/internal/listview"
	"github.com/f-sync/unfollow/internal/relations"
)

const (
	analysesPathPrefix   = "/analyses/"
	hideActionSuffix     = "/hide"
	resetActionSuffix    = "/reset"
	exportActionSuffix   = "/export.csv"
	queryParameterTab    = "tab"
	queryParameterSearch = "q"
	queryParameterShow   = "show_deleted"
	queryValueEnabled    = "1"
)

// AnalysisPath returns the page URL of the analysis identified by analysisID.
func AnalysisPath(analysisID string) string {
	return analysesPathPrefix + url.PathEscape(analysisID)
}

// HidePath returns the form action that hides one identifier of an analysis.
func HidePath(analysisID string) string {
	return AnalysisPath(analysisID) + hideActionSuffix
}

// ResetPath returns the form action that clears the hidden identifiers of an analysis tab.
func ResetPath(analysisID string) string {
	return AnalysisPath(analysisID) + resetActionSuffix
}

// TabURL returns the page URL for a tab of an analysis, carrying the current filters.
func TabURL(analysisID string, kind relations.ListKind, query string, showDeleted bool) string {
	return AnalysisPath(analysisID) + "?" + filterValues(kind, query, showDeleted).Encode()
}

// ExportURL returns the CSV download URL for a tab of an analysis.
func ExportURL(analysisID string, kind relations.ListKind, query string, showDeleted bool) string {
	return AnalysisPath(analysisID) + exportActionSuffix + "?" + filterValues(kind, query, showDeleted).Encode()
}

func filterValues(kind relations.ListKind, query string, showDeleted bool) url.Values {
	values := url.Values{}
	values.Set(queryParameterTab, string(kind))
	if query != "" {
		values.Set(queryParameterSearch, query)
	}
	if showDeleted {
		values.Set(queryParameterShow, queryValueEnabled)
	}
	return values
}

type accountEntryViewModel struct {
	Identifier string
	ProfileURL string
}

func newAccountEntries(identifiers []string) []accountEntryViewModel {
	entries := make([]accountEntryViewModel, 0, len(identifiers))
	for _, identifier := range identifiers {
		entries = append(entries, accountEntryViewModel{
			Identifier: identifier,
			ProfileURL: listview.ProfileURL(identifier),
		})
	}
	return entries
}
