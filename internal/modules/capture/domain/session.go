package domain

import (
	"net/url"
	"strings"
	"time"
)

// Session is one scheduled or ad-hoc capture request. It is not mutated once
// execution starts.
type Session struct {
	ID           string
	JoinURL      string
	ScheduleTime *time.Time
	Metadata     map[string]any
}

// ExtractMeetingID returns the meeting number embedded in a join URL, or ""
// when none can be found. The result is only a detection hint.
func ExtractMeetingID(joinURL string) string {
	u, err := url.Parse(strings.TrimSpace(joinURL))
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if strings.EqualFold(p, "j") && i+1 < len(parts) && parts[i+1] != "" {
			return parts[i+1]
		}
	}
	if confno := u.Query().Get("confno"); confno != "" {
		return confno
	}
	return parts[len(parts)-1]
}

// LaunchURL converts a web join link into the client protocol link so the
// meeting opens in the desktop client. Non-web links are returned unchanged.
func LaunchURL(joinURL string) string {
	u, err := url.Parse(strings.TrimSpace(joinURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return joinURL
	}
	launch := "zoommtg://zoom.us/join?confno=" + url.QueryEscape(ExtractMeetingID(joinURL))
	if pwd := u.Query().Get("pwd"); pwd != "" {
		launch += "&pwd=" + url.QueryEscape(pwd)
	}
	return launch
}
