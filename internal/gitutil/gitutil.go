// Package gitutil wires the textconv projection into git so that
// `git diff` shows readable output for .docx files.
package gitutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CommandRunner is an interface for running external commands.
type CommandRunner interface {
	CombinedOutput(ctx context.Context, name string, arg ...string) ([]byte, error)
}

// DefaultRunner implements CommandRunner using os/exec.Command.
type DefaultRunner struct{}

func (r DefaultRunner) CombinedOutput(ctx context.Context, name string, arg ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, arg...)
	return cmd.CombinedOutput()
}

// We'll use a package-level variable for the runner
var runner CommandRunner = DefaultRunner{}

// For testing, we'll add a function to set a mock runner
func SetRunner(r CommandRunner) {
	runner = r
}

const attributesLine = "*.docx diff=docx"

// Setup registers the docx diff driver in the repository's local git config
// and makes sure .gitattributes routes .docx files through it. The textconv
// command is the given binary invoked with --textconv.
func Setup(ctx context.Context, binary string) error {
	if err := gitConfig(ctx, "diff.docx.textconv", binary+" --textconv"); err != nil {
		return err
	}
	if err := gitConfig(ctx, "diff.docx.binary", "true"); err != nil {
		return err
	}
	return ensureAttributes(".gitattributes")
}

func gitConfig(ctx context.Context, key, value string) error {
	out, err := runner.CombinedOutput(ctx, "git", "config", key, value)
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if strings.Contains(strings.ToLower(msg), "not a git repository") {
			return fmt.Errorf("not a git repository: %s", msg)
		}
		return fmt.Errorf("git config %s: %w, output: %s", key, err, msg)
	}
	return nil
}

// ensureAttributes appends the diff=docx attribute line unless it is
// already present.
func ensureAttributes(path string) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", path, err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == attributesLine {
			return nil
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	content := attributesLine + "\n"
	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		content = "\n" + content
	}
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
