/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traas-stack/clog/pkg/loganalysis"
)

type result struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, stdin string, args ...string) result {
	return executeContext(t, context.Background(), strings.NewReader(stdin), args...)
}

func executeContext(t *testing.T, ctx context.Context, stdin io.Reader, args ...string) result {
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetIn(stdin)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--config-dir", t.TempDir()))
	err := cmd.ExecuteContext(ctx)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestLearnThenPassive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.filters")

	r := execute(t, "service started ok\n", "learn", "--load", path)
	require.NoError(t, r.err)
	assert.Empty(t, r.stderr)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	fs, err := loganalysis.Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, "[service],[started],[ok]", fs.String())

	r = execute(t, "service started fail\nservice started ok\n", "passive", "--load", path)
	require.NoError(t, r.err)
	assert.Equal(t, "service started fail\n", r.stderr)
	assert.Empty(t, r.stdout)

	// passive never writes the filters back
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, b, after)

	r = execute(t, "service started fail\n", "learn", "-l", path)
	require.NoError(t, r.err)
	r = execute(t, "service started fail\n", "passive", "-l", path, "--unmatched", "stdout")
	require.NoError(t, r.err)
	assert.Empty(t, r.stdout)
	assert.Empty(t, r.stderr)
}

func loadFile(t *testing.T, path string) *loganalysis.FilterSet {
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	fs, err := loganalysis.Unmarshal(b)
	require.NoError(t, err)
	return fs
}

// interruptingInput returns its content on the first read, then cancels the run
// and blocks like a live pipe until released.
type interruptingInput struct {
	content string
	cancel  context.CancelFunc
	release chan struct{}
	reads   int
}

func (in *interruptingInput) Read(p []byte) (int, error) {
	in.reads++
	if in.reads == 1 {
		return copy(p, in.content), nil
	}
	in.cancel()
	<-in.release
	return 0, io.EOF
}

func TestLearn_InterruptedStillSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.filters")
	ctx, cancel := context.WithCancel(context.Background())
	in := &interruptingInput{
		content: "service started ok\nservice started fail\ndisk full on sda\n",
		cancel:  cancel,
		release: make(chan struct{}),
	}
	defer close(in.release)

	r := executeContext(t, ctx, in, "learn", "--load", path)
	require.NoError(t, r.err)

	fs := loadFile(t, path)
	assert.Equal(t, "[service],[started],[ok,fail],\n[disk],[full],[on],[sda]", fs.String())
}

func TestLearn_AlreadyCanceledKeepsLoadedFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.filters")
	require.NoError(t, execute(t, "service started ok\n", "learn", "--load", path).err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pr, pw := io.Pipe()
	defer pw.Close()
	r := executeContext(t, ctx, pr, "learn", "--load", path)
	// loading honours the canceled context
	assert.ErrorIs(t, r.err, context.Canceled)
	assert.Equal(t, "[service],[started],[ok]", loadFile(t, path).String())
}

func TestLearn_LongLineDoesNotLoseFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.filters")
	in := "service started ok\nuser alice logged in\n" + strings.Repeat("x", 4096) + "\nafter line\n"

	r := execute(t, in, "learn", "--load", path, "--max-line-bytes", "1024")
	require.NoError(t, r.err)
	assert.Equal(t, "[service],[started],[ok],\n[user],[alice],[logged],[in],\n[after],[line]", loadFile(t, path).String())

	r = execute(t, strings.Repeat("y", 4096)+"\nafter line\n", "passive", "--load", path, "--max-line-bytes", "1024")
	require.NoError(t, r.err)
	assert.Empty(t, r.stderr)
}

func TestLearn_SaveElsewhere(t *testing.T) {
	dir := t.TempDir()
	load := filepath.Join(dir, "in.filters")
	save := filepath.Join(dir, "out.filters")

	r := execute(t, "a b c\n", "learn", "--load", load, "--save", save, "--ignore-numeric", "--punctuation")
	require.NoError(t, r.err)

	_, err := os.Stat(load)
	assert.True(t, os.IsNotExist(err))
	b, err := os.ReadFile(save)
	require.NoError(t, err)
	fs, err := loganalysis.Unmarshal(b)
	require.NoError(t, err)
	assert.True(t, fs.Tokenizer.IgnoreNumericWords)
	assert.Equal(t, loganalysis.Punctuation, fs.Tokenizer.Delimiters)
}

func TestLearn_Tolerance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.filters")
	r := execute(t, "a b c d\na x y d\n", "learn", "--load", path, "--tolerance", "2")
	require.NoError(t, r.err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	fs, err := loganalysis.Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, 1, fs.Len())

	r = execute(t, "", "learn", "--load", path, "--tolerance", "-1")
	assert.Error(t, r.err)
}

func TestPassive_Errors(t *testing.T) {
	dir := t.TempDir()

	r := execute(t, "a\n", "passive", "--load", filepath.Join(dir, "missing.filters"))
	assert.ErrorContains(t, r.err, "run learn first")

	bad := filepath.Join(dir, "bad.filters")
	require.NoError(t, os.WriteFile(bad, []byte("not a filter file\n"), 0644))
	r = execute(t, "a\n", "passive", "--load", bad)
	var fe *loganalysis.FormatError
	assert.ErrorAs(t, r.err, &fe)

	r = execute(t, "a\n", "learn", "--load", bad)
	assert.ErrorAs(t, r.err, &fe)

	r = execute(t, "a\n", "passive", "--load", bad, "--store", "redis")
	assert.ErrorContains(t, r.err, "invalid configuration")
}

func TestPassive_UnmatchedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.filters")
	out := filepath.Join(dir, "unmatched.log")

	require.NoError(t, execute(t, "disk full on sda\n", "learn", "--load", path).err)
	r := execute(t, "disk full on sda\nkernel panic\n", "passive", "--load", path, "--unmatched", out)
	require.NoError(t, r.err)
	assert.Empty(t, r.stderr)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "kernel panic\n", string(b))
}

func TestStores(t *testing.T) {
	for _, typ := range []string{"sqlite", "bolt"} {
		t.Run(typ, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "clog."+typ)
			require.NoError(t, execute(t, "user alice logged in\nuser bob logged in\n",
				"learn", "--load", path, "--store", typ, "--name", "web").err)

			r := execute(t, "user bob logged in\nuser carol logged in\n", "passive", "--load", path, "--store", typ, "--name", "web")
			require.NoError(t, r.err)
			assert.Equal(t, "user carol logged in\n", r.stderr)

			r = execute(t, "", "passive", "--load", path, "--store", typ, "--name", "db")
			assert.Error(t, r.err)
		})
	}
}

func TestDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.filters")
	require.NoError(t, execute(t, "service started ok\nservice started fail\ncache miss\n", "learn", "--load", path).err)

	r := execute(t, "", "dump", "--load", path)
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "service")
	assert.Contains(t, r.stdout, "[ok,fail]")
	assert.Contains(t, r.stdout, "2 filters, 1 varied slots")

	r = execute(t, "", "dump", "--load", path, "--raw")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "f service started ok|fail\nf cache miss\n")
}

func TestVersion(t *testing.T) {
	r := execute(t, "", "version")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "clog dev")

	r = execute(t, "", "version", "-o", "json")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, `"version": "dev"`)
}
