package relations_test

import (
	"strings"
	"testing"

	"github.com/f-sync/unfollow/internal/relations"
)

func TestIdentifierFromProfileURL(t *testing.T) {
	testCases := []struct {
		name       string
		rawURL     string
		expectedID string
		expectedOK bool
	}{
		{name: "plain profile", rawURL: "https://instagram.com/dave", expectedID: "dave", expectedOK: true},
		{name: "trailing slash", rawURL: "https://www.instagram.com/dave/", expectedID: "dave", expectedOK: true},
		{name: "redirect segment", rawURL: "https://instagram.com/_u/carol", expectedID: "carol", expectedOK: true},
		{name: "redirect segment only", rawURL: "https://instagram.com/_u/", expectedID: "_u", expectedOK: true},
		{name: "duplicate separators", rawURL: "https://instagram.com//_u//erin?igsh=1", expectedID: "erin", expectedOK: true},
		{name: "root path", rawURL: "https://instagram.com/", expectedOK: false},
		{name: "relative reference", rawURL: "instagram.com/dave", expectedOK: false},
		{name: "unparseable", rawURL: "http://[::1", expectedOK: false},
		{name: "empty", rawURL: "", expectedOK: false},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			identifier, ok := relations.IdentifierFromProfileURL(testCase.rawURL)
			if ok != testCase.expectedOK {
				t.Fatalf("expected ok=%t, got %t (%q)", testCase.expectedOK, ok, identifier)
			}
			if identifier != testCase.expectedID {
				t.Fatalf("expected %q, got %q", testCase.expectedID, identifier)
			}
		})
	}
}

func TestIsIdentifier(t *testing.T) {
	testCases := []struct {
		candidate string
		expected  bool
	}{
		{candidate: "alice", expected: true},
		{candidate: "a.b_c.9", expected: true},
		{candidate: strings.Repeat("x", 30), expected: true},
		{candidate: strings.Repeat("x", 31), expected: false},
		{candidate: "", expected: false},
		{candidate: "bad username!", expected: false},
		{candidate: "émile", expected: false},
		{candidate: "%41bc", expected: false},
	}

	for _, testCase := range testCases {
		if actual := relations.IsIdentifier(testCase.candidate); actual != testCase.expected {
			t.Fatalf("IsIdentifier(%q) = %t, expected %t", testCase.candidate, actual, testCase.expected)
		}
	}
}
