package coursecontent

import (
	"fmt"
	"strings"
	"time"
)

// ContentType is the kind of items a content document holds.
type ContentType string

// Content type constants (typed).
const (
	ContentTypeCalculateTwoNumber ContentType = "CALCULATE_TWO_NUMBER"
	ContentTypeCard               ContentType = "CARD"
	ContentTypeFlashcard          ContentType = "FLASHCARD"
)

// ParseContentType resolves s case-insensitively to a known content type.
func ParseContentType(s string) (ContentType, error) {
	t := ContentType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case ContentTypeCalculateTwoNumber, ContentTypeCard, ContentTypeFlashcard:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidContentType, s)
	}
}

// Matches reports whether s names this content type, ignoring case.
func (t ContentType) Matches(s string) bool {
	return strings.EqualFold(string(t), strings.TrimSpace(s))
}

// ContentDocument is one content slot under a task.
//
// ContentType, ContentNo and ContentCreateAt are fixed when the document is
// created. ContentLastEditDate stays nil until the first mutation.
type ContentDocument struct {
	ID                  string
	ContentType         ContentType
	ContentNo           int
	ContentName         string
	ContentDescription  string
	ContentData         []ContentItem
	ContentCreateAt     time.Time
	ContentLastEditDate *time.Time

	// Revision is the store's change counter for this document, zero when
	// the store does not track one.
	Revision int64
}

// Metadata carries the caller-editable, document-level fields.
type Metadata struct {
	ContentType        string
	ContentNo          int
	ContentName        string
	ContentDescription string
}

// ContentView is the client-facing projection of a ContentDocument.
type ContentView struct {
	ContentID           string      `json:"contentID"`
	ContentType         ContentType `json:"contentType"`
	ContentNo           int         `json:"contentNo"`
	ContentName         string      `json:"contentName"`
	ContentDescription  string      `json:"contentDescription"`
	ContentCreateAt     string      `json:"contentCreateAt"`
	ContentLastEditDate *string     `json:"contentLastEditDate"`
	ContentData         []ItemView  `json:"contentData"`
}

// DateLayout is the canonical rendering of document timestamps in views.
const DateLayout = time.RFC3339

// FormatDate renders t in UTC using DateLayout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
