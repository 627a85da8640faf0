package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// TitleMatcher decides whether a window title belongs to the meeting. Join
// and close detection share one matcher so both halves agree.
type TitleMatcher struct {
	patterns []*regexp.Regexp
}

func NewTitleMatcher(patterns []string) (TitleMatcher, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return TitleMatcher{}, fmt.Errorf("compile title pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return TitleMatcher{patterns: compiled}, nil
}

// Match is true when title contains meetingID (if known) or matches any
// generic in-meeting pattern.
func (m TitleMatcher) Match(meetingID, title string) bool {
	if meetingID != "" && strings.Contains(title, meetingID) {
		return true
	}
	for _, re := range m.patterns {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}

// MatchAny reports whether any of titles matches.
func (m TitleMatcher) MatchAny(meetingID string, titles []string) bool {
	for _, t := range titles {
		if m.Match(meetingID, t) {
			return true
		}
	}
	return false
}
