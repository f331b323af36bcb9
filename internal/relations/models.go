package relations

// ListKind names one of the derived relationship lists of a Result.
type ListKind string

const (
	// ListNotFollowingBack holds accounts the owner follows that do not follow back.
	ListNotFollowingBack ListKind = "not_following_back"
	// ListYouDontFollowBack holds followers the owner does not follow back.
	ListYouDontFollowBack ListKind = "you_dont_follow_back"
	// ListMutuals holds accounts present in both followers and following.
	ListMutuals ListKind = "mutuals"
)

// ListKinds returns every list kind in display order.
func ListKinds() []ListKind {
	return []ListKind{ListNotFollowingBack, ListYouDontFollowBack, ListMutuals}
}

// Counts reports the cardinality of every set produced by an analysis.
type Counts struct {
	Followers         int `json:"followers"`
	Following         int `json:"following"`
	NotFollowingBack  int `json:"not_following_back"`
	YouDontFollowBack int `json:"you_dont_follow_back"`
	Mutuals           int `json:"mutuals"`
}

// Result is the outcome of analyzing one export archive. It is built once and
// must be treated as read-only by consumers; List returns copies.
type Result struct {
	Counts            Counts   `json:"counts"`
	NotFollowingBack  []string `json:"not_following_back"`
	YouDontFollowBack []string `json:"you_dont_follow_back"`
	Mutuals           []string `json:"mutuals"`
}

// List returns a copy of the identifiers stored for kind.
func (result Result) List(kind ListKind) []string {
	var source []string
	switch kind {
	case ListNotFollowingBack:
		source = result.NotFollowingBack
	case ListYouDontFollowBack:
		source = result.YouDontFollowBack
	case ListMutuals:
		source = result.Mutuals
	default:
		return nil
	}
	copied := make([]string, len(source))
	copy(copied, source)
	return copied
}

// Count returns the number of identifiers stored for kind.
func (result Result) Count(kind ListKind) int {
	switch kind {
	case ListNotFollowingBack:
		return result.Counts.NotFollowingBack
	case ListYouDontFollowBack:
		return result.Counts.YouDontFollowBack
	case ListMutuals:
		return result.Counts.Mutuals
	default:
		return 0
	}
}

// IdentifierSet is an unordered set of normalized account identifiers.
type IdentifierSet map[string]struct{}

// Add inserts identifier into the set.
func (set IdentifierSet) Add(identifier string) {
	set[identifier] = struct{}{}
}

// Contains reports whether identifier is present.
func (set IdentifierSet) Contains(identifier string) bool {
	_, exists := set[identifier]
	return exists
}
