package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/docpipe/internal/version"
)

func TestVersionCommand_Text(t *testing.T) {
	stdout, _, err := executeCommand("version")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stdout, "docpipe dev"))
}

func TestVersionCommand_Short(t *testing.T) {
	stdout, _, err := executeCommand("version", "--short")
	require.NoError(t, err)

	assert.Equal(t, "dev\n", stdout)
}

func TestVersionCommand_Structured(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		unmarshal func([]byte, any) error
	}{
		{"json flag", []string{"version", "--json"}, json.Unmarshal},
		{"output json", []string{"version", "-o", "json"}, json.Unmarshal},
		{"output yaml", []string{"version", "-o", "yaml"}, yaml.Unmarshal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := executeCommand(tt.args...)
			require.NoError(t, err)

			var info version.Info
			require.NoError(t, tt.unmarshal([]byte(stdout), &info))

			assert.Equal(t, "dev", info.Version)
			assert.NotEmpty(t, info.GoVersion)
			assert.NotEmpty(t, info.Platform)
		})
	}
}

func TestVersionCommand_UnknownFormat(t *testing.T) {
	_, _, err := executeCommand("version", "-o", "xml")
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestVersionCommand_NoArgs(t *testing.T) {
	_, _, err := executeCommand("version", "extra")
	require.Error(t, err)
}
