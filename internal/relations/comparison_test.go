package relations_test

import (
	"sort"
	"testing"

	"github.com/f-sync/unfollow/internal/relations"
)

func TestBuildResultPartitionsSets(t *testing.T) {
	testCases := []struct {
		name      string
		followers []string
		following []string
	}{
		{name: "empty sets"},
		{name: "disjoint sets", followers: []string{"a", "b"}, following: []string{"c"}},
		{name: "identical sets", followers: []string{"x", "y"}, following: []string{"y", "x"}},
		{name: "overlapping sets", followers: []string{"m", "n", "o", "p"}, following: []string{"o", "p", "q", "r", "s"}},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			followers := newIdentifierSet(testCase.followers...)
			following := newIdentifierSet(testCase.following...)
			result := relations.BuildResult(followers, following)

			assertPartition(t, followers, result.Mutuals, result.YouDontFollowBack)
			assertPartition(t, following, result.Mutuals, result.NotFollowingBack)

			for _, identifier := range result.Mutuals {
				if !followers.Contains(identifier) || !following.Contains(identifier) {
					t.Fatalf("mutual %q missing from a source set", identifier)
				}
			}
			for _, list := range [][]string{result.NotFollowingBack, result.YouDontFollowBack, result.Mutuals} {
				if list == nil {
					t.Fatalf("expected non-nil list")
				}
				if !sort.StringsAreSorted(list) {
					t.Fatalf("expected sorted list, got %v", list)
				}
			}
			expectedCounts := relations.Counts{
				Followers:         len(followers),
				Following:         len(following),
				NotFollowingBack:  len(result.NotFollowingBack),
				YouDontFollowBack: len(result.YouDontFollowBack),
				Mutuals:           len(result.Mutuals),
			}
			if result.Counts != expectedCounts {
				t.Fatalf("expected counts %+v, got %+v", expectedCounts, result.Counts)
			}
		})
	}
}

func TestResultListReturnsCopy(t *testing.T) {
	result := relations.BuildResult(newIdentifierSet("a", "b"), newIdentifierSet("b", "c"))

	listed := result.List(relations.ListNotFollowingBack)
	if len(listed) != 1 || listed[0] != "c" {
		t.Fatalf("unexpected list: %v", listed)
	}
	listed[0] = "mutated"
	if result.NotFollowingBack[0] != "c" {
		t.Fatalf("expected result to remain unchanged")
	}
	if result.Count(relations.ListMutuals) != 1 {
		t.Fatalf("unexpected mutual count: %d", result.Count(relations.ListMutuals))
	}
	if result.List(relations.ListKind("unknown")) != nil {
		t.Fatalf("expected nil for unknown list kind")
	}
}

func assertPartition(t *testing.T, source relations.IdentifierSet, first []string, second []string) {
	t.Helper()
	union := map[string]int{}
	for _, identifier := range first {
		union[identifier]++
	}
	for _, identifier := range second {
		union[identifier]++
	}
	if len(union) != len(source) {
		t.Fatalf("expected %d identifiers, got %d", len(source), len(union))
	}
	for identifier, occurrences := range union {
		if occurrences != 1 {
			t.Fatalf("identifier %q appears %d times", identifier, occurrences)
		}
		if !source.Contains(identifier) {
			t.Fatalf("identifier %q not in source set", identifier)
		}
	}
}

func newIdentifierSet(identifiers ...string) relations.IdentifierSet {
	set := relations.IdentifierSet{}
	for _, identifier := range identifiers {
		set.Add(identifier)
	}
	return set
}
