package relations

import "sort"

// BuildResult classifies the followers and following sets into the three derived lists.
func BuildResult(followers IdentifierSet, following IdentifierSet) Result {
	notFollowingBack, youDontFollowBack, mutuals := classifyRelationships(followers, following)
	result := Result{
		NotFollowingBack:  toSortedIdentifiers(notFollowingBack),
		YouDontFollowBack: toSortedIdentifiers(youDontFollowBack),
		Mutuals:           toSortedIdentifiers(mutuals),
	}
	result.Counts = Counts{
		Followers:         len(followers),
		Following:         len(following),
		NotFollowingBack:  len(result.NotFollowingBack),
		YouDontFollowBack: len(result.YouDontFollowBack),
		Mutuals:           len(result.Mutuals),
	}
	return result
}

func classifyRelationships(followers IdentifierSet, following IdentifierSet) (IdentifierSet, IdentifierSet, IdentifierSet) {
	notFollowingBack := IdentifierSet{}
	youDontFollowBack := IdentifierSet{}
	mutuals := IdentifierSet{}

	for identifier := range following {
		if !followers.Contains(identifier) {
			notFollowingBack.Add(identifier)
		}
	}
	for identifier := range followers {
		if following.Contains(identifier) {
			mutuals.Add(identifier)
		} else {
			youDontFollowBack.Add(identifier)
		}
	}
	return notFollowingBack, youDontFollowBack, mutuals
}

// toSortedIdentifiers returns the set members in ascending byte order. The result is
// never nil so that empty lists encode as JSON arrays.
func toSortedIdentifiers(set IdentifierSet) []string {
	sortedIdentifiers := make([]string, 0, len(set))
	for identifier := range set {
		sortedIdentifiers = append(sortedIdentifiers, identifier)
	}
	sort.Strings(sortedIdentifiers)
	return sortedIdentifiers
}
