// Package listview holds the presentation rules shared by every surface that displays
// relationship lists: the tab catalogue, visibility filtering and CSV export.
package listview

import (
	"errors"
	"net/url"

	"github.com/f-sync/unfollow/internal/relations"
)

const (
	profileBaseURL          = "https://www.instagram.com/"
	errMessageUnknownList   = "unknown list"
	tabLabelNotFollowing    = "Not following back"
	tabLabelYouDontFollow   = "You don’t follow back"
	tabLabelMutuals         = "Mutuals"
	listTitleNotFollowing   = "Not following you back"
	listTitleYouDontFollow  = "You don’t follow back"
	listTitleMutuals        = "Mutual followers"
	storageKeyNotFollowing  = "hidden_not_following_back_v1"
	storageKeyYouDontFollow = "hidden_you_dont_follow_back_v1"
	storageKeyMutuals       = "hidden_mutuals_v1"
	csvFileNotFollowing     = "not_following_back.csv"
	csvFileYouDontFollow    = "you_dont_follow_back.csv"
	csvFileMutuals          = "mutuals.csv"
)

// ErrUnknownList indicates a list name outside the known relationship lists.
var ErrUnknownList = errors.New(errMessageUnknownList)

// Tab describes how one relationship list is presented and persisted.
type Tab struct {
	Kind        relations.ListKind
	Label       string
	Title       string
	StorageKey  string
	CSVFileName string
}

var tabCatalogue = []Tab{
	{
		Kind:        relations.ListNotFollowingBack,
		Label:       tabLabelNotFollowing,
		Title:       listTitleNotFollowing,
		StorageKey:  storageKeyNotFollowing,
		CSVFileName: csvFileNotFollowing,
	},
	{
		Kind:        relations.ListYouDontFollowBack,
		Label:       tabLabelYouDontFollow,
		Title:       listTitleYouDontFollow,
		StorageKey:  storageKeyYouDontFollow,
		CSVFileName: csvFileYouDontFollow,
	},
	{
		Kind:        relations.ListMutuals,
		Label:       tabLabelMutuals,
		Title:       listTitleMutuals,
		StorageKey:  storageKeyMutuals,
		CSVFileName: csvFileMutuals,
	},
}

// Tabs returns the tabs in display order.
func Tabs() []Tab {
	return append([]Tab{}, tabCatalogue...)
}

// DefaultTab is the tab shown when none is requested.
func DefaultTab() Tab {
	return tabCatalogue[0]
}

// TabFor returns the tab presenting kind.
func TabFor(kind relations.ListKind) (Tab, bool) {
	for _, tab := range tabCatalogue {
		if tab.Kind == kind {
			return tab, true
		}
	}
	return Tab{}, false
}

// ParseListKind validates a user supplied list name.
func ParseListKind(name string) (relations.ListKind, error) {
	kind := relations.ListKind(name)
	if _, ok := TabFor(kind); !ok {
		return "", ErrUnknownList
	}
	return kind, nil
}

// ProfileURL links to the public profile of identifier.
func ProfileURL(identifier string) string {
	return profileBaseURL + url.PathEscape(identifier) + "/"
}
