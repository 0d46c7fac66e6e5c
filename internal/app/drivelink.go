package app

import (
	"fmt"
	"regexp"
	"strings"
)

// File ID extraction patterns, tried in order.
var driveLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/file/d/([a-zA-Z0-9-_]+)`),
	regexp.MustCompile(`id=([a-zA-Z0-9-_]+)`),
	regexp.MustCompile(`/d/([a-zA-Z0-9-_]+)`),
}

// NormalizeDriveLink rewrites a Google Drive URL to the canonical shared
// viewer form. Non-Drive links and unrecognized shapes pass through
// unchanged; normalization is best-effort, never validation.
func NormalizeDriveLink(link string) string {
	if link == "" || !strings.Contains(link, "drive.google.com") {
		return link
	}
	for _, pattern := range driveLinkPatterns {
		if m := pattern.FindStringSubmatch(link); m != nil {
			return fmt.Sprintf("https://drive.google.com/file/d/%s/view?usp=sharing", m[1])
		}
	}
	return link
}
