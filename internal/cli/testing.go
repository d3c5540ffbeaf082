package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calvinalkan/docbind/pkg/fs"
)

// CLI runs docbind commands against a temp working directory.
type CLI struct {
	t   *testing.T
	fs  *fs.Real
	Dir string
	Env map[string]string
}

// NewCLI returns a CLI rooted in a fresh temp directory. HOME points inside
// it, so user config and shell history stay isolated.
func NewCLI(t *testing.T) *CLI {
	t.Helper()

	dir := t.TempDir()

	return &CLI{
		t:   t,
		fs:  fs.NewReal().WithPerm(0o600, fs.DefaultDirPerm),
		Dir: dir,
		Env: map[string]string{"HOME": filepath.Join(dir, ".home")},
	}
}

// Path resolves name against Dir.
func (c *CLI) Path(name string) string {
	return filepath.Join(c.Dir, name)
}

// Run executes docbind with args and empty stdin. "docbind --cwd Dir" is
// prepended.
func (c *CLI) Run(args ...string) (stdout, stderr string, code int) {
	return c.RunWithInput("", args...)
}

// RunWithInput is [CLI.Run] with input on stdin.
func (c *CLI) RunWithInput(input string, args ...string) (stdout, stderr string, code int) {
	var out, errOut bytes.Buffer

	argv := make([]string, 0, len(args)+3)
	argv = append(argv, "docbind", "--cwd", c.Dir)
	argv = append(argv, args...)

	code = Run(strings.NewReader(input), &out, &errOut, argv, c.Env, nil)

	return out.String(), errOut.String(), code
}

// MustRun returns trimmed stdout and fails the test on a non-zero exit.
func (c *CLI) MustRun(args ...string) string {
	c.t.Helper()

	stdout, stderr, code := c.Run(args...)
	if code != 0 {
		c.t.Fatalf("docbind %s: exit %d\nstderr: %s", strings.Join(args, " "), code, stderr)
	}

	return strings.TrimSpace(stdout)
}

// MustFail returns trimmed stderr and fails the test on a zero exit.
func (c *CLI) MustFail(args ...string) string {
	c.t.Helper()

	stdout, stderr, code := c.Run(args...)
	if code == 0 {
		c.t.Fatalf("docbind %s: expected failure\nstdout: %s", strings.Join(args, " "), stdout)
	}

	return strings.TrimSpace(stderr)
}

// WriteFile writes a fixture relative to Dir, creating parent directories.
func (c *CLI) WriteFile(name, content string) {
	c.t.Helper()

	err := c.fs.WriteFile(c.Path(name), []byte(content))
	if err != nil {
		c.t.Fatalf("write fixture %s: %v", name, err)
	}
}

// ReadFile returns a file relative to Dir.
func (c *CLI) ReadFile(name string) string {
	c.t.Helper()

	data, err := c.fs.ReadFile(c.Path(name))
	if err != nil {
		c.t.Fatalf("read %s: %v", name, err)
	}

	return string(data)
}

// AssertMissing fails the test unless name is absent from Dir.
func (c *CLI) AssertMissing(name string) {
	c.t.Helper()

	_, err := os.Stat(c.Path(name))
	if !errors.Is(err, os.ErrNotExist) {
		c.t.Errorf("%s should not exist (stat err: %v)", name, err)
	}
}

// AssertContains fails the test if content lacks substr.
func AssertContains(t *testing.T, content, substr string) {
	t.Helper()

	if !strings.Contains(content, substr) {
		t.Errorf("missing %q in:\n%s", substr, content)
	}
}

// AssertNotContains fails the test if content has substr.
func AssertNotContains(t *testing.T, content, substr string) {
	t.Helper()

	if strings.Contains(content, substr) {
		t.Errorf("unexpected %q in:\n%s", substr, content)
	}
}
