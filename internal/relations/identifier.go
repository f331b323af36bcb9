package relations

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	identifierPattern   = `^[A-Za-z0-9._]{1,30}$`
	userRedirectSegment = "_u"
	urlPathSeparator    = "/"
	stringListDataKey   = "string_list_data"
	stringListValueKey  = "value"
	stringListHrefKey   = "href"
	followingTitleKey   = "title"
)

var reIdentifier = regexp.MustCompile(identifierPattern)

// IsIdentifier reports whether candidate is a well-formed account handle.
func IsIdentifier(candidate string) bool {
	return reIdentifier.MatchString(candidate)
}

// IdentifierFromProfileURL extracts the account handle from a profile link such as
// https://instagram.com/name or https://instagram.com/_u/name.
func IdentifierFromProfileURL(rawURL string) (string, bool) {
	if rawURL == "" {
		return "", false
	}
	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Scheme == "" {
		return "", false
	}
	var segments []string
	for _, segment := range strings.Split(parsedURL.EscapedPath(), urlPathSeparator) {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	switch {
	case len(segments) == 0:
		return "", false
	case segments[0] == userRedirectSegment && len(segments) > 1:
		return segments[1], true
	default:
		return segments[0], true
	}
}

type candidateKind int

const (
	candidateUnextractable candidateKind = iota
	candidateDirectValue
	candidateProfileLink
)

// recordCandidate is the normalized form of a raw record before validation.
type recordCandidate struct {
	kind candidateKind
	text string
}

// identifier resolves the candidate to a conforming handle, if any.
func (candidate recordCandidate) identifier() (string, bool) {
	var extracted string
	switch candidate.kind {
	case candidateDirectValue:
		extracted = candidate.text
	case candidateProfileLink:
		fromURL, ok := IdentifierFromProfileURL(candidate.text)
		if !ok {
			return "", false
		}
		extracted = fromURL
	default:
		return "", false
	}
	if !IsIdentifier(extracted) {
		return "", false
	}
	return extracted, true
}

// classifyStringListRecord inspects the first string_list_data entry of record.
// A non-empty value wins over href even when the value later fails validation.
func classifyStringListRecord(record map[string]any) recordCandidate {
	entries, _ := record[stringListDataKey].([]any)
	if len(entries) == 0 {
		return recordCandidate{kind: candidateUnextractable}
	}
	firstEntry, _ := entries[0].(map[string]any)
	if firstEntry == nil {
		return recordCandidate{kind: candidateUnextractable}
	}
	if value := stringValueForKey(firstEntry, stringListValueKey); value != "" {
		return recordCandidate{kind: candidateDirectValue, text: value}
	}
	if href := stringValueForKey(firstEntry, stringListHrefKey); href != "" {
		return recordCandidate{kind: candidateProfileLink, text: href}
	}
	return recordCandidate{kind: candidateUnextractable}
}

// classifyFollowingRecord prefers a conforming trimmed title and otherwise falls back
// to the string_list_data entry.
func classifyFollowingRecord(record map[string]any) recordCandidate {
	if title, isString := record[followingTitleKey].(string); isString {
		trimmedTitle := strings.TrimSpace(title)
		if IsIdentifier(trimmedTitle) {
			return recordCandidate{kind: candidateDirectValue, text: trimmedTitle}
		}
	}
	return classifyStringListRecord(record)
}

func stringValueForKey(data map[string]any, key string) string {
	if value, ok := data[key]; ok {
		if str, ok2 := value.(string); ok2 {
			return str
		}
	}
	return ""
}
