package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// detect
// ---------------------------------------------------------------------------

func TestDetect_Table(t *testing.T) {
	root := newRepo(t, map[string]string{"translator": "true\n"})

	stdout, _, err := executeCommand(append(repoFlags(root), "detect")...)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Repository root: "+root)
	assert.Contains(t, stdout, "ROLE")
	assert.Contains(t, stdout, "01_translator.sh")
	assert.Contains(t, stdout, "(not found)")
}

func TestDetect_ScriptOverridesFromConfig(t *testing.T) {
	root := newRepo(t, nil)

	dir := filepath.Join(root, "tools", "tr")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "05_translate.sh"), []byte("true\n"), 0o600))

	cfgPath := filepath.Join(t.TempDir(), "docpipe.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("scripts:\n  translator:\n    dir: tools/tr\n"), 0o600))

	args := append(repoFlags(root), "--config", cfgPath, "--log-level", "debug", "detect")

	stdout, stderr, err := executeCommand(args...)
	require.NoError(t, err)

	assert.Contains(t, stdout, "05_translate.sh")
	assert.Contains(t, stderr, "script overrides loaded")
}

func TestDetect_JSON(t *testing.T) {
	root := newRepo(t, map[string]string{
		"translator": "true\n",
		"portfolio":  "true\n",
	})

	stdout, _, err := executeCommand(append(repoFlags(root), "detect", "-o", "json")...)
	require.NoError(t, err)

	var result detectResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))

	assert.Equal(t, root, result.RepoRoot)
	assert.Equal(t, ".sh", result.Ext)
	require.Len(t, result.Scripts, 4)

	byRole := map[string]scriptInfo{}
	for _, s := range result.Scripts {
		byRole[s.Role] = s
	}

	assert.Equal(t, filepath.Join(root, "dev", "scripts", "translator", "01_translator.sh"), byRole["translator"].Path)
	assert.Empty(t, byRole["minifier"].Path)
	assert.Equal(t, filepath.Join(root, "dev", "scripts", "portfolio-updater", "01_portfolio.sh"), byRole["portfolio"].Path)
}

func TestDetect_YAML(t *testing.T) {
	root := newRepo(t, nil)

	stdout, _, err := executeCommand(append(repoFlags(root), "detect", "--output", "yaml")...)
	require.NoError(t, err)

	assert.Contains(t, stdout, "repoRoot: "+root)
	assert.Contains(t, stdout, "role: converter")
}

func TestDetect_UnknownFormat(t *testing.T) {
	root := newRepo(t, nil)

	_, _, err := executeCommand(append(repoFlags(root), "detect", "-o", "xml")...)
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

// ---------------------------------------------------------------------------
// run
// ---------------------------------------------------------------------------

func TestRun_SingleStage(t *testing.T) {
	root := newRepo(t, map[string]string{"minifier": "echo minified\n"})

	stdout, _, err := executeCommand(append(repoFlags(root), "run", "minify")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "minified")
	assert.Contains(t, stdout, "minify finished: true")
}

func TestRun_StageFailureExitCode1(t *testing.T) {
	root := newRepo(t, map[string]string{"translator": "exit 1\n"})

	_, _, err := executeCommand(append(repoFlags(root), "run", "translate")...)
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, err.Error(), "translate failed")
}

func TestRun_MissingScriptExitCode1(t *testing.T) {
	root := newRepo(t, nil)

	stdout, _, err := executeCommand(append(repoFlags(root), "run", "convert")...)
	require.Error(t, err)
	assert.Contains(t, stdout, "[!] converter script not found")
	assert.Contains(t, err.Error(), "convert not-run")
}

func TestRun_ConvertSkippedByNoHTML(t *testing.T) {
	root := newRepo(t, nil)

	stdout, _, err := executeCommand(append(repoFlags(root), "--no-html", "run", "convert")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "skipped by configuration")
}

func TestRun_AllDefault(t *testing.T) {
	root := newRepo(t, map[string]string{
		"translator": "echo t\n",
		"minifier":   "echo m\n",
	})

	stdout, _, err := executeCommand(append(repoFlags(root), "--no-html", "run")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "--- run all finished: translate=ok minify=ok convert=skipped ---")
}

func TestRun_AllWithFailure(t *testing.T) {
	root := newRepo(t, map[string]string{
		"translator": "echo t\n",
		"minifier":   "exit 2\n",
	})

	_, _, err := executeCommand(append(repoFlags(root), "--no-html", "run", "all")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline incomplete")
}

func TestRun_UnknownStage(t *testing.T) {
	root := newRepo(t, nil)

	_, _, err := executeCommand(append(repoFlags(root), "run", "publish")...)
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestRun_PortfolioMissing(t *testing.T) {
	root := newRepo(t, nil)

	stdout, _, err := executeCommand(append(repoFlags(root), "run", "portfolio")...)
	require.Error(t, err)
	assert.Contains(t, stdout, "[!] portfolio updater not found")
}

func TestRun_TooManyArgs(t *testing.T) {
	_, _, err := executeCommand("run", "translate", "minify")
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// completion
// ---------------------------------------------------------------------------

func TestCompletion_Bash(t *testing.T) {
	stdout, _, err := executeCommand("completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, stdout, "docpipe")
}

func TestCompletion_InvalidShell(t *testing.T) {
	_, _, err := executeCommand("completion", "tcsh")
	require.Error(t, err)
}

func TestCompletion_FlagValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"log level", []string{"__complete", "--log-level", ""}, []string{"debug", "info", "warn", "error"}},
		{"detect output", []string{"__complete", "detect", "-o", ""}, []string{"table", "json", "yaml"}},
		{"version output", []string{"__complete", "version", "--output", ""}, []string{"text", "json", "yaml"}},
		{"run stages", []string{"__complete", "run", ""}, []string{"translate", "minify", "convert", "all", "portfolio"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := executeCommand(tt.args...)
			require.NoError(t, err)

			for _, v := range tt.want {
				assert.Contains(t, stdout, v)
			}
		})
	}
}
