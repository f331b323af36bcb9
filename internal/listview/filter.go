package listview

import (
	"strings"

	"golang.org/x/text/cases"
)

var deletedPrefixes = []string{"deleted_", "_deleted_"}

var deletedFragments = []string{"instagramuser", "instagram_user", "deleted"}

// Options controls which identifiers of a list are visible.
type Options struct {
	Hidden      map[string]bool
	Query       string
	HideDeleted bool
}

// DefaultOptions hides deleted-looking accounts, matching the initial UI state.
func DefaultOptions() Options {
	return Options{HideDeleted: true}
}

// LooksDeleted reports whether identifier resembles a placeholder for a removed account.
func LooksDeleted(identifier string) bool {
	lowered := strings.ToLower(identifier)
	for _, prefix := range deletedPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return true
		}
	}
	for _, fragment := range deletedFragments {
		if strings.Contains(lowered, fragment) {
			return true
		}
	}
	return false
}

// Filter returns the identifiers that remain visible under options, preserving order.
func Filter(identifiers []string, options Options) []string {
	folder := cases.Fold()
	query := folder.String(strings.TrimSpace(options.Query))
	visible := make([]string, 0, len(identifiers))
	for _, identifier := range identifiers {
		if options.Hidden[identifier] {
			continue
		}
		if options.HideDeleted && LooksDeleted(identifier) {
			continue
		}
		if query != "" && !strings.Contains(folder.String(identifier), query) {
			continue
		}
		visible = append(visible, identifier)
	}
	return visible
}
