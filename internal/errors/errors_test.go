package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBuilder(t *testing.T) {
	t.Parallel()

	err := Newf("artist lookup failed: %s", "boards of canada").
		Category(CategoryNotFound).
		Component("deezer").
		Context("page", 1).
		Build()

	assert.Equal(t, "artist lookup failed: boards of canada", err.Error())
	assert.Equal(t, CategoryNotFound, err.Category)
	assert.Equal(t, "deezer", err.Component)
	assert.Equal(t, 1, err.GetContext()["page"])
	assert.False(t, err.Timestamp.IsZero())
}

func TestBuildDefaults(t *testing.T) {
	t.Parallel()

	err := Newf("plain").Build()
	assert.Equal(t, ComponentUnknown, err.Component)
	assert.Equal(t, CategoryGeneric, err.Category)
	assert.Nil(t, err.GetContext())
}

func TestUnwrap(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("sentinel")
	err := Newf("wrapped: %w", sentinel).Category(CategoryDatabase).Build()

	require.ErrorIs(t, err, sentinel)

	var ee *EnhancedError
	require.ErrorAs(t, error(err), &ee)
	assert.Equal(t, CategoryDatabase, ee.Category)
}

func TestCategoryOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CategoryGeneric, CategoryOf(NewStd("plain")))
	assert.Equal(t, CategoryNetwork,
		CategoryOf(Newf("conn reset").Category(CategoryNetwork).Build()))
}

func TestTransientClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		category  ErrorCategory
		transient bool
	}{
		{"network", CategoryNetwork, true},
		{"timeout", CategoryTimeout, true},
		{"rate limit", CategoryLimit, true},
		{"not found", CategoryNotFound, false},
		{"validation", CategoryValidation, false},
		{"database", CategoryDatabase, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Newf("x").Category(tt.category).Build()
			assert.Equal(t, tt.transient, IsTransient(err))
		})
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNotFound(Newf("gone").Category(CategoryNotFound).Build()))
	assert.False(t, IsNotFound(NewStd("gone")))
}
