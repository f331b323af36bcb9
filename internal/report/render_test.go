package report_test

import (
	"strings"
	"testing"

	"github.com/f-sync/unfollow/internal/relations"
	"github.com/f-sync/unfollow/internal/report"
)

func sampleResult() relations.Result {
	followers := relations.IdentifierSet{"alice": {}, "bob": {}, "deleted_user1": {}}
	following := relations.IdentifierSet{"alice": {}, "carol": {}, "dave": {}}
	return relations.BuildResult(followers, following)
}

func TestRenderPage(t *testing.T) {
	const (
		snippetUploadForm      = "action=\"/analyses\" enctype=\"multipart/form-data\""
		snippetUploadField     = "name=\"archive\""
		snippetStats           = "class=\"stats\""
		snippetEmbeddedCSS     = ".account a:hover {"
		snippetFollowersStat   = "<div class=\"stat-title\">Followers</div><div class=\"stat-value\">3</div>"
		snippetActiveYouDont   = "class=\"tab active\" href=\"/analyses/abc?tab=you_dont_follow_back\""
		snippetActiveDefault   = "class=\"tab active\" href=\"/analyses/abc?tab=not_following_back\""
		snippetHideAction      = "action=\"/analyses/abc/hide\""
		snippetResetAction     = "action=\"/analyses/abc/reset\""
		snippetBobHandle       = ">@bob</a>"
		snippetBobProfile      = "href=\"https://www.instagram.com/bob/\""
		snippetBobCopy         = "data-copy=\"bob\""
		snippetDeletedHandle   = "@deleted_user1"
		snippetVisibleOfTotal  = "Showing <strong>1</strong> of <strong>2</strong>"
		snippetMutualsSection  = "id=\"mutuals\""
		snippetNotBackSection  = "id=\"not_following_back\""
		snippetYouDontSection  = "id=\"you_dont_follow_back\""
		snippetCarolHandle     = ">@carol</a>"
		snippetDaveHandle      = ">@dave</a>"
		snippetSearchValue     = "value=\"CAR\""
		snippetEmptyList       = "<div class=\"empty\">"
		snippetMissingEntryMsg = "<pre class=\"error\">Required files not found. Expected:"
	)

	testCases := []struct {
		name               string
		pageData           report.PageData
		expectedSnippets   []string
		unexpectedSnippets []string
	}{
		{
			name:               "upload page without analysis",
			pageData:           report.PageData{},
			expectedSnippets:   []string{snippetUploadForm, snippetUploadField, snippetEmbeddedCSS},
			unexpectedSnippets: []string{snippetStats},
		},
		{
			name: "upload page with errors",
			pageData: report.PageData{Errors: []string{(&relations.MissingEntryError{
				ExpectedPaths: []string{relations.FollowersEntryPath, relations.FollowingEntryPath},
			}).Error()}},
			expectedSnippets:   []string{snippetMissingEntryMsg, snippetUploadForm},
			unexpectedSnippets: []string{snippetStats},
		},
		{
			name: "interactive analysis shows only the active tab",
			pageData: report.PageData{Analysis: &report.AnalysisView{
				ID:        "abc",
				FileName:  "export.zip",
				Result:    sampleResult(),
				ActiveTab: relations.ListYouDontFollowBack,
			}},
			expectedSnippets: []string{
				snippetStats,
				snippetFollowersStat,
				snippetActiveYouDont,
				snippetHideAction,
				snippetResetAction,
				snippetBobHandle,
				snippetBobProfile,
				snippetBobCopy,
				snippetVisibleOfTotal,
				snippetYouDontSection,
			},
			unexpectedSnippets: []string{snippetDeletedHandle, snippetMutualsSection, snippetNotBackSection},
		},
		{
			name: "unknown tab falls back to the default tab",
			pageData: report.PageData{Analysis: &report.AnalysisView{
				ID:        "abc",
				Result:    sampleResult(),
				ActiveTab: relations.ListKind("bogus"),
			}},
			expectedSnippets:   []string{snippetActiveDefault, snippetCarolHandle, snippetDaveHandle},
			unexpectedSnippets: []string{snippetBobHandle},
		},
		{
			name: "query narrows the list",
			pageData: report.PageData{Analysis: &report.AnalysisView{
				ID:        "abc",
				Result:    sampleResult(),
				ActiveTab: relations.ListNotFollowingBack,
				Query:     "CAR",
			}},
			expectedSnippets:   []string{snippetCarolHandle, snippetSearchValue},
			unexpectedSnippets: []string{snippetDaveHandle},
		},
		{
			name: "hidden identifiers leave an empty placeholder",
			pageData: report.PageData{Analysis: &report.AnalysisView{
				ID:        "abc",
				Result:    sampleResult(),
				ActiveTab: relations.ListMutuals,
				Hidden:    map[relations.ListKind]map[string]bool{relations.ListMutuals: {"alice": true}},
			}},
			expectedSnippets:   []string{snippetEmptyList, snippetMutualsSection},
			unexpectedSnippets: []string{">@alice</a>"},
		},
		{
			name: "show deleted reveals deleted-looking accounts",
			pageData: report.PageData{Analysis: &report.AnalysisView{
				ID:          "abc",
				Result:      sampleResult(),
				ActiveTab:   relations.ListYouDontFollowBack,
				ShowDeleted: true,
			}},
			expectedSnippets: []string{snippetDeletedHandle, snippetBobHandle},
		},
		{
			name: "static report renders every section without controls",
			pageData: report.PageData{Analysis: &report.AnalysisView{
				Result: sampleResult(),
			}},
			expectedSnippets: []string{
				snippetNotBackSection,
				snippetYouDontSection,
				snippetMutualsSection,
				snippetBobHandle,
				snippetCarolHandle,
			},
			unexpectedSnippets: []string{snippetHideAction, snippetResetAction, "/export.csv"},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			html, err := report.RenderPage(testCase.pageData)
			if err != nil {
				t.Fatalf("render page: %v", err)
			}
			for _, snippet := range testCase.expectedSnippets {
				if !strings.Contains(html, snippet) {
					t.Fatalf("expected snippet %q in output", snippet)
				}
			}
			for _, snippet := range testCase.unexpectedSnippets {
				if strings.Contains(html, snippet) {
					t.Fatalf("unexpected snippet %q in output", snippet)
				}
			}
		})
	}
}

func TestReportPaths(t *testing.T) {
	testCases := []struct {
		name     string
		actual   string
		expected string
	}{
		{name: "analysis path", actual: report.AnalysisPath("abc"), expected: "/analyses/abc"},
		{name: "hide path", actual: report.HidePath("abc"), expected: "/analyses/abc/hide"},
		{name: "reset path", actual: report.ResetPath("abc"), expected: "/analyses/abc/reset"},
		{
			name:     "tab url with filters",
			actual:   report.TabURL("abc", relations.ListMutuals, "al", true),
			expected: "/analyses/abc?q=al&show_deleted=1&tab=mutuals",
		},
		{
			name:     "export url without filters",
			actual:   report.ExportURL("abc", relations.ListNotFollowingBack, "", false),
			expected: "/analyses/abc/export.csv?tab=not_following_back",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			if testCase.actual != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, testCase.actual)
			}
		})
	}
}

func TestStaticAssetsExposeStylesheet(t *testing.T) {
	assets, err := report.StaticAssets()
	if err != nil {
		t.Fatalf("static assets: %v", err)
	}
	file, err := assets.Open("base.css")
	if err != nil {
		t.Fatalf("open base.css: %v", err)
	}
	_ = file.Close()
}
