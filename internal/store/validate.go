// ABOUTME: Input validation for clipboard items and tags.
// ABOUTME: Enforces size bounds and tag character restrictions before storage.

package store

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

const (
	// MaxContentBytes bounds the text payload of one item.
	MaxContentBytes = 1_000_000

	// MaxSourceAppBytes bounds the source application name.
	MaxSourceAppBytes = 255

	// MaxTagLength bounds one tag.
	MaxTagLength = 50

	// MaxTags bounds the tag set of one item.
	MaxTags = 50
)

var tagPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Validate checks the item against the storage bounds. A failure is a
// ValidationError and the item never reaches the database.
func (i *Item) Validate() error {
	if _, err := uuid.Parse(i.ID); err != nil {
		return &ValidationError{Field: "id", Reason: "must be a UUID"}
	}
	if len(i.Content) > MaxContentBytes {
		return &ValidationError{Field: "content", Reason: fmt.Sprintf("exceeds %d bytes", MaxContentBytes)}
	}
	if len(i.SourceApp) > MaxSourceAppBytes {
		return &ValidationError{Field: "source_app", Reason: fmt.Sprintf("exceeds %d bytes", MaxSourceAppBytes)}
	}
	if len(i.Tags) > MaxTags {
		return &ValidationError{Field: "tags", Reason: fmt.Sprintf("more than %d tags", MaxTags)}
	}
	for _, tag := range i.Tags {
		if err := ValidateTag(tag); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTag checks a single tag: non-empty, bounded length, restricted
// to alphanumerics, '-' and '_'.
func ValidateTag(tag string) error {
	if tag == "" {
		return &ValidationError{Field: "tag", Reason: "must not be empty"}
	}
	if len(tag) > MaxTagLength {
		return &ValidationError{Field: "tag", Reason: fmt.Sprintf("exceeds %d characters", MaxTagLength)}
	}
	if !tagPattern.MatchString(tag) {
		return &ValidationError{Field: "tag", Reason: "only alphanumerics, '-' and '_' allowed"}
	}
	return nil
}
