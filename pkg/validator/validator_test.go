package validator_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekeeper/pkg/validator"
)

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("no failures returns nil", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.RequiredString("name", "john"),
			validator.ValidEmail("email", "john@example.com"),
		)
		assert.NoError(t, err)
	})

	t.Run("collects every failure", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.RequiredString("name", "  "),
			validator.ValidEmail("email", "nope"),
			validator.MinLenString("username", "ab", 3),
		)
		require.Error(t, err)

		ve := validator.ExtractValidationErrors(err)
		require.Len(t, ve, 3)
		assert.True(t, ve.Has("name"))
		assert.True(t, ve.Has("email"))
		assert.True(t, ve.Has("username"))
		assert.Contains(t, ve.Fields()["username"][0], "at least 3")
	})

	t.Run("survives wrapping", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("wrapped: %w", validator.Apply(validator.RequiredString("x", "")))
		assert.True(t, validator.IsValidationError(err))
		assert.False(t, validator.IsValidationError(errors.New("other")))
	})

	t.Run("when skips rules for absent fields", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(validator.When(false, validator.RequiredString("x", ""))...)
		assert.NoError(t, err)
	})
}

func TestValidEmail(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"john@example.com":         true,
		"john.doe+tag@example.org": true,
		"":                         false,
		"john":                     false,
		"john@localhost":           false,
		"john@.example.com":        false,
		"John <john@example.com>":  false,
		"john@example..com":        false,
	}
	for in, want := range cases {
		assert.Equal(t, want, validator.ValidEmail("email", in).Check(), in)
	}
}

func TestStrongPassword(t *testing.T) {
	t.Parallel()
	cfg := validator.DefaultPasswordStrength()

	cases := map[string]bool{
		"Str0ng!Pass":   true,
		"short1!A":      true,
		"Sh0rt!":        false,
		"nouppercase1!": false,
		"NOLOWERCASE1!": false,
		"NoDigitsHere!": false,
		"NoSpecial123":  false,
	}
	for in, want := range cases {
		assert.Equal(t, want, validator.StrongPassword("password", in, cfg).Check(), in)
	}
}

func TestNotCommonPassword(t *testing.T) {
	t.Parallel()
	assert.False(t, validator.NotCommonPassword("password", "Password123").Check())
	assert.True(t, validator.NotCommonPassword("password", "c0rrect-Horse").Check())
}

func TestValidURL(t *testing.T) {
	t.Parallel()
	assert.True(t, validator.ValidURL("image", "https://cdn.example.com/a.png").Check())
	assert.False(t, validator.ValidURL("image", "ftp://example.com/a.png").Check())
	assert.False(t, validator.ValidURL("image", "not a url").Check())
}
