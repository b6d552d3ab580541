// ABOUTME: Tests for item and tag validation bounds.
// ABOUTME: Covers size limits, tag character set and uuid checking.

package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemValidate(t *testing.T) {
	valid := NewItem("hello", TypeText, "Terminal")
	valid.Tags = []string{"work", "snippet_1", "go-code"}
	assert.NoError(t, valid.Validate())

	t.Run("bad id", func(t *testing.T) {
		item := NewItem("x", TypeText, "")
		item.ID = "nope"
		var verr *ValidationError
		require.ErrorAs(t, item.Validate(), &verr)
		assert.Equal(t, "id", verr.Field)
	})

	t.Run("content at limit is accepted", func(t *testing.T) {
		item := NewItem(strings.Repeat("a", MaxContentBytes), TypeText, "")
		assert.NoError(t, item.Validate())
	})

	t.Run("content over limit", func(t *testing.T) {
		item := NewItem(strings.Repeat("a", MaxContentBytes+1), TypeText, "")
		var verr *ValidationError
		require.ErrorAs(t, item.Validate(), &verr)
		assert.Equal(t, "content", verr.Field)
	})

	t.Run("source app over limit", func(t *testing.T) {
		item := NewItem("x", TypeText, strings.Repeat("a", MaxSourceAppBytes+1))
		var verr *ValidationError
		require.ErrorAs(t, item.Validate(), &verr)
		assert.Equal(t, "source_app", verr.Field)
	})

	t.Run("too many tags", func(t *testing.T) {
		item := NewItem("x", TypeText, "")
		for i := 0; i <= MaxTags; i++ {
			item.Tags = append(item.Tags, "t"+strings.Repeat("g", i%10+1))
		}
		var verr *ValidationError
		require.ErrorAs(t, item.Validate(), &verr)
		assert.Equal(t, "tags", verr.Field)
	})
}

func TestValidateTag(t *testing.T) {
	for _, tag := range []string{"work", "a", "go-code", "snippet_1", "ABC123", strings.Repeat("x", MaxTagLength)} {
		assert.NoError(t, ValidateTag(tag), "tag %q should be valid", tag)
	}

	for _, tag := range []string{"", "has space", "emoji🙂", "semi;colon", "dot.ted", strings.Repeat("x", MaxTagLength+1)} {
		var verr *ValidationError
		assert.ErrorAs(t, ValidateTag(tag), &verr, "tag %q should be rejected", tag)
	}
}
