package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCorpus = "../../pkg/polyfaq/testdata/faq.json"

// run executes the CLI with args and returns stdout and stderr.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// offlineConfig writes a config that decides Latin-script languages by
// rules alone.
func offlineConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "polyfaq.yaml")
	require.NoError(t, os.WriteFile(path, []byte("intent:\n  detector: none\nlogging:\n  level: warn\n"), 0644))
	return path
}

func buildIndex(t *testing.T, cfgPath, out string) {
	t.Helper()
	stdout, stderr, err := run(t, "", "--config", cfgPath, "build", "--corpus", testCorpus, "--out", out)
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "5 entries")
}

func TestBuildAndAsk(t *testing.T) {
	cfg := offlineConfig(t)
	for _, name := range []string{"faq.db", "faq.json"} {
		t.Run(name, func(t *testing.T) {
			dsn := filepath.Join(t.TempDir(), name)
			buildIndex(t, cfg, dsn)

			stdout, _, err := run(t, "", "--config", cfg, "ask", "--index", dsn, "how", "do", "I", "downlaod", "status")
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(stdout, "WhatsApp has no save button"), "got %q", stdout)
		})
	}
}

func TestAskExplain(t *testing.T) {
	cfg := offlineConfig(t)
	dsn := "sqlite:" + filepath.Join(t.TempDir(), "faq.sqlite")
	buildIndex(t, cfg, dsn)

	stdout, _, err := run(t, "", "--config", cfg, "ask", "--index", dsn, "--explain", "--top", "2", "How long does a status stay visible?")
	require.NoError(t, err)
	assert.Contains(t, stdout, "A status disappears 24 hours")
	assert.Contains(t, stdout, "language en")
	assert.Contains(t, stdout, "matched status-duration")
	assert.Contains(t, stdout, "ENTRY")
}

func TestAskNoMatch(t *testing.T) {
	cfg := offlineConfig(t)
	dsn := filepath.Join(t.TempDir(), "faq.db")
	buildIndex(t, cfg, dsn)

	stdout, _, err := run(t, "", "--config", cfg, "ask", "--index", dsn, "--explain", "asdkqwe zxcqwe")
	require.NoError(t, err)
	assert.Contains(t, stdout, "no match")
}

func TestAskMissingIndex(t *testing.T) {
	_, _, err := run(t, "", "ask", "--index", filepath.Join(t.TempDir(), "missing.db"), "hello")
	assert.Error(t, err)
}

func TestAskRequiresIndexFlag(t *testing.T) {
	_, _, err := run(t, "", "ask", "hello")
	assert.Error(t, err)
}

func TestBuildRejectsBadCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": "x", "question": {"en": "q"}}]`), 0644))
	_, _, err := run(t, "", "--log-level", "error", "build", "--corpus", path, "--out", filepath.Join(t.TempDir(), "faq.db"))
	assert.Error(t, err)
}

func TestChatStopsAtExit(t *testing.T) {
	cfg := offlineConfig(t)
	dsn := filepath.Join(t.TempDir(), "faq.db")
	buildIndex(t, cfg, dsn)

	input := "How do I delete a status update?\n\nbye\nHow long does a status stay visible?\n"
	stdout, _, err := run(t, input, "--config", cfg, "chat", "--index", dsn, "--quiet")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2, "got %q", stdout)
	assert.True(t, strings.HasPrefix(lines[0], "Open My status"))
	assert.Equal(t, "Goodbye!", lines[1])
}

func TestChatEndsAtEOF(t *testing.T) {
	cfg := offlineConfig(t)
	dsn := filepath.Join(t.TempDir(), "faq.db")
	buildIndex(t, cfg, dsn)

	stdout, _, err := run(t, "नमस्ते\n", "--config", cfg, "chat", "--index", dsn)
	require.NoError(t, err)
	assert.Contains(t, stdout, "> ")
	assert.Contains(t, stdout, "Type \"exit\"")
}

func TestStats(t *testing.T) {
	cfg := offlineConfig(t)
	dsn := filepath.Join(t.TempDir(), "faq.db")
	buildIndex(t, cfg, dsn)

	stdout, _, err := run(t, "", "--config", cfg, "stats", "--index", dsn, "--top", "3")
	require.NoError(t, err)
	assert.Contains(t, stdout, "entries:    5")
	assert.Contains(t, stdout, "analysis:   stopwords=true stemming=true")
	assert.Contains(t, stdout, "KEYWORD")
	// Every entry is about statuses.
	assert.Contains(t, stdout, "stopword candidates:")
	assert.Contains(t, stdout, "status (100% of entries)")
}

func TestUnknownLogFormat(t *testing.T) {
	_, _, err := run(t, "", "--log-format", "xml", "stats", "--index", "mem:")
	assert.Error(t, err)
}
