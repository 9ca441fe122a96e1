package runner

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()

	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o755))

	return p
}

func newShellRunner(out io.Writer) *Runner {
	return New(Options{Interpreter: "sh", Out: out})
}

func TestRun_EmptyPath(t *testing.T) {
	var buf bytes.Buffer
	r := newShellRunner(&buf)

	assert.False(t, r.Run(context.Background(), "", false))
	assert.Contains(t, buf.String(), "no script path")
}

func TestRun_MissingScript(t *testing.T) {
	var buf bytes.Buffer
	r := newShellRunner(&buf)

	missing := filepath.Join(t.TempDir(), "gone.sh")
	assert.False(t, r.Run(context.Background(), missing, false))
	assert.False(t, r.Run(context.Background(), missing, true))
	assert.Contains(t, buf.String(), "script not found")
}

func TestRun_BlockingSuccess(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")
	script := writeScript(t, dir, "ok.sh", "touch '"+marker+"'\n")

	r := newShellRunner(io.Discard)
	assert.True(t, r.Run(context.Background(), script, false))

	// Blocking mode waits, so the side effect is already visible.
	assert.FileExists(t, marker)
}

func TestRun_BlockingFailure(t *testing.T) {
	script := writeScript(t, t.TempDir(), "fail.sh", "exit 3\n")

	r := newShellRunner(io.Discard)
	assert.False(t, r.Run(context.Background(), script, false))
}

func TestRun_CapturesOutput(t *testing.T) {
	script := writeScript(t, t.TempDir(), "echo.sh", "echo translated\n")

	var buf bytes.Buffer
	r := newShellRunner(&buf)
	require.True(t, r.Run(context.Background(), script, false))

	assert.Contains(t, buf.String(), "-> running: "+script)
	assert.Contains(t, buf.String(), "translated")
}

func TestRun_SpawnErrorIsFalse(t *testing.T) {
	script := writeScript(t, t.TempDir(), "x.sh", "exit 0\n")

	var buf bytes.Buffer
	r := New(Options{Interpreter: "/nonexistent/interpreter-12345", Out: &buf})

	assert.False(t, r.Run(context.Background(), script, false))
	assert.False(t, r.Run(context.Background(), script, true))
	assert.Contains(t, buf.String(), "error")
}

func TestRun_InteractiveReturnsBeforeChildExits(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "late")
	script := writeScript(t, dir, "slow.sh", "sleep 1\ntouch '"+marker+"'\n")

	r := newShellRunner(io.Discard)

	start := time.Now()
	assert.True(t, r.Run(context.Background(), script, true))
	assert.Less(t, time.Since(start), 900*time.Millisecond)
	assert.NoFileExists(t, marker)

	assert.Eventually(t, func() bool {
		_, err := os.Stat(marker)
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
}

func TestRun_InteractiveSurvivesClosedOut(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "done")
	script := writeScript(t, dir, "chatty.sh",
		"sleep 0.2\necho progress\necho more\ntouch '"+marker+"'\n")

	// Every write to out fails, as after docpipe has gone away.
	pr, pw := io.Pipe()
	require.NoError(t, pr.Close())

	r := New(Options{Interpreter: "sh", Out: pw})
	assert.True(t, r.Run(context.Background(), script, true))

	assert.Eventually(t, func() bool {
		_, err := os.Stat(marker)
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
}

func TestRun_InteractiveWritesToDetachedFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "converter.log")

	f, err := os.Create(logPath)
	require.NoError(t, err)

	t.Cleanup(func() { _ = f.Close() })

	script := writeScript(t, dir, "convert.sh", "echo converting\n")

	var buf bytes.Buffer

	r := New(Options{Interpreter: "sh", Out: &buf, Detached: f})
	assert.True(t, r.Run(context.Background(), script, true))

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(logPath)
		return err == nil && bytes.Contains(data, []byte("converting"))
	}, 5*time.Second, 50*time.Millisecond)
	assert.NotContains(t, buf.String(), "converting")
}

func TestRun_InteractiveIgnoresExitStatus(t *testing.T) {
	script := writeScript(t, t.TempDir(), "fail.sh", "exit 7\n")

	r := newShellRunner(io.Discard)
	assert.True(t, r.Run(context.Background(), script, true))
}

func TestRun_ExtraEnv(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "env.txt")
	script := writeScript(t, dir, "env.sh", "printf '%s' \"$DOCPIPE_LANG\" > '"+out+"'\n")

	r := New(Options{Interpreter: "sh", Env: []string{"DOCPIPE_LANG=es"}, Out: io.Discard})
	require.True(t, r.Run(context.Background(), script, false))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "es", string(data))
}

func TestRun_NoInterpreterExecutesScript(t *testing.T) {
	script := writeScript(t, t.TempDir(), "direct.sh", "#!/bin/sh\nexit 0\n")

	r := New(Options{Out: io.Discard})
	assert.True(t, r.Run(context.Background(), script, false))
}

func TestLoadEnvFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(p, []byte("B=2\nA=1\n# comment\n"), 0o600))

	env, err := LoadEnvFile(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"A=1", "B=2"}, env)
}

func TestLoadEnvFile_Empty(t *testing.T) {
	env, err := LoadEnvFile("")
	require.NoError(t, err)
	assert.Nil(t, env)
}

func TestLoadEnvFile_Missing(t *testing.T) {
	_, err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading env file")
}
