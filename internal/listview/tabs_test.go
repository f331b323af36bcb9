package listview_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/f-sync/unfollow/internal/listview"
	"github.com/f-sync/unfollow/internal/relations"
)

func TestTabsCoverEveryList(t *testing.T) {
	tabs := listview.Tabs()
	kinds := relations.ListKinds()
	if len(tabs) != len(kinds) {
		t.Fatalf("expected %d tabs, got %d", len(kinds), len(tabs))
	}
	storageKeys := map[string]bool{}
	for index, tab := range tabs {
		if tab.Kind != kinds[index] {
			t.Fatalf("tab %d: expected kind %s, got %s", index, kinds[index], tab.Kind)
		}
		if storageKeys[tab.StorageKey] {
			t.Fatalf("duplicate storage key %s", tab.StorageKey)
		}
		storageKeys[tab.StorageKey] = true
		if tab.CSVFileName != string(tab.Kind)+".csv" {
			t.Fatalf("unexpected CSV file name %s", tab.CSVFileName)
		}
	}
	if listview.DefaultTab().Kind != relations.ListNotFollowingBack {
		t.Fatalf("unexpected default tab %s", listview.DefaultTab().Kind)
	}
}

func TestParseListKind(t *testing.T) {
	kind, err := listview.ParseListKind("mutuals")
	if err != nil || kind != relations.ListMutuals {
		t.Fatalf("expected mutuals, got %q (%v)", kind, err)
	}
	if _, err := listview.ParseListKind("followers"); !errors.Is(err, listview.ErrUnknownList) {
		t.Fatalf("expected ErrUnknownList, got %v", err)
	}
}

func TestProfileURL(t *testing.T) {
	if actual := listview.ProfileURL("a.b_c"); actual != "https://www.instagram.com/a.b_c/" {
		t.Fatalf("unexpected profile url %s", actual)
	}
}

func TestWriteCSV(t *testing.T) {
	testCases := []struct {
		name        string
		identifiers []string
		expected    string
	}{
		{name: "empty list", expected: "username\n"},
		{name: "quoted rows", identifiers: []string{"alice", "bob.b"}, expected: "username\n\"alice\"\n\"bob.b\"\n"},
		{name: "quotes doubled", identifiers: []string{`a"b`}, expected: "username\n\"a\"\"b\"\n"},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			var buffer bytes.Buffer
			if err := listview.WriteCSV(&buffer, testCase.identifiers); err != nil {
				t.Fatalf("WriteCSV returned error: %v", err)
			}
			if buffer.String() != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, buffer.String())
			}
		})
	}
}
