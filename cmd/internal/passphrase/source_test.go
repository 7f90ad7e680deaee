package passphrase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) Option {
	return WithLookup(func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	})
}

func prompts(answers ...string) (Option, *int) {
	calls := 0
	return WithPrompt(func(string) (string, error) {
		if calls >= len(answers) {
			return "", errors.New("unexpected prompt")
		}
		calls++
		return answers[calls-1], nil
	}), &calls
}

func TestEnvironmentWins(t *testing.T) {
	prompt, calls := prompts("typed")
	src := NewSource("PASS", "authority", env(map[string]string{"PASS": "from-env"}), prompt)

	got, err := src.Get()
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)
	assert.Zero(t, *calls)
}

func TestBlankEnvironmentRejected(t *testing.T) {
	_, err := NewSource("PASS", "", env(map[string]string{"PASS": "  "})).Get()
	require.ErrorContains(t, err, "PASS is set but empty")
}

func TestPromptIsCached(t *testing.T) {
	prompt, calls := prompts("typed")
	src := NewSource("PASS", "authority", env(nil), prompt)

	for i := 0; i < 2; i++ {
		got, err := src.Get()
		require.NoError(t, err)
		assert.Equal(t, "typed", got)
	}
	assert.Equal(t, 1, *calls)
}

func TestConfirmationMustMatch(t *testing.T) {
	prompt, _ := prompts("first", "second")
	_, err := NewSource("", "new", env(nil), prompt, WithConfirmation()).Get()
	require.ErrorContains(t, err, "do not match")

	prompt, _ = prompts("same", "same")
	got, err := NewSource("", "new", env(nil), prompt, WithConfirmation()).Get()
	require.NoError(t, err)
	assert.Equal(t, "same", got)
}

func TestMissingTerminalNamesEnvironmentVariable(t *testing.T) {
	noTTY := WithPrompt(func(label string) (string, error) { return "", errNoTerminal })
	_, err := NewSource("PASSMINT_KEY_PASS", "authority", env(nil), noTTY).Get()
	require.ErrorContains(t, err, "set PASSMINT_KEY_PASS")

	_, err = NewSource("PASS", "authority", env(nil), WithPrompt(func(string) (string, error) { return " ", nil })).Get()
	require.ErrorContains(t, err, "cannot be empty")
}
