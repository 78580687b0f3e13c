package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckResultString(t *testing.T) {
	t.Parallel()

	t.Run("lists available servers in order", func(t *testing.T) {
		t.Parallel()

		result := NewCheckResult("ovh")
		result.AvailableServers = append(result.AvailableServers, "1801sk12", "1801sk13")

		out := result.String()
		assert.Contains(t, out, "Report of available server types for ovh")
		assert.Contains(t, out, "- 1801sk12\n")
		assert.Contains(t, out, "- 1801sk13\n")
	})

	t.Run("reports empty result", func(t *testing.T) {
		t.Parallel()

		out := NewCheckResult("ovh").String()
		assert.Contains(t, out, "No server available")
	})
}

func TestCheckResultJSON(t *testing.T) {
	t.Parallel()

	data, err := Dummy().JSON()
	require.NoError(t, err)

	var decoded CheckResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "dummy_provider", decoded.ProviderName)
	assert.Equal(t, []string{"foo_server", "bar_server", "baz_server"}, decoded.AvailableServers)
}

func TestDummyIsDeterministic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Dummy(), Dummy())
}

func TestConfigError(t *testing.T) {
	t.Parallel()

	wrapped := errors.New("boom")
	err := &ConfigError{Name: "SOME_VAR", Value: "x,,y", Err: wrapped}

	assert.Contains(t, err.Error(), "SOME_VAR")
	assert.Contains(t, err.Error(), "x,,y")
	assert.ErrorIs(t, err, wrapped)
}

func TestSentinelClassification(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("server %q: %w", "sk-1", ErrUnknownServer)
	assert.ErrorIs(t, err, ErrUnknownServer)
	assert.NotErrorIs(t, err, ErrUnknownProvider)
}
