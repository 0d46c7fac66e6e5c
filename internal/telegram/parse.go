package telegram

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	// errBadFormat signals a message that does not split into at least
	// title and author.
	errBadFormat = errors.New("invalid submission format")
	// errEmptyFields signals blank title or author after trimming.
	errEmptyFields = errors.New("title and author cannot be empty")
)

// submission carries the fields parsed out of a message or caption.
type submission struct {
	Title  string
	Author string
	Link   string
}

// parseSubmission splits "Title | Author | Link" into up to three
// trimmed fields. The link is optional.
func parseSubmission(text string) (submission, error) {
	parts := strings.Split(text, "|")
	if len(parts) < 2 {
		return submission{}, errBadFormat
	}
	fields := make([]string, len(parts))
	for i, part := range parts {
		fields[i] = strings.TrimSpace(part)
	}
	if fields[0] == "" || fields[1] == "" {
		return submission{}, errEmptyFields
	}
	sub := submission{Title: fields[0], Author: fields[1]}
	if len(fields) >= 3 {
		sub.Link = fields[2]
	}
	return sub, nil
}

// submissionFromCaption derives submission fields for an uploaded
// document: a pipe-formatted caption wins, a free-form caption becomes
// the title, and with no caption the filename stands in.
func submissionFromCaption(caption, filename string) submission {
	caption = strings.TrimSpace(caption)
	if caption != "" {
		if sub, err := parseSubmission(caption); err == nil {
			return sub
		}
		return submission{Title: caption, Author: "Unknown"}
	}
	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	if strings.TrimSpace(title) == "" {
		title = "Unknown"
	}
	return submission{Title: title, Author: "Unknown"}
}

// allowedExtension reports whether the filename carries one of the
// permitted extensions (case-insensitive).
func allowedExtension(filename string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if strings.ToLower(strings.TrimSpace(a)) == ext {
			return true
		}
	}
	return false
}
