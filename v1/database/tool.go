package database

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Tool describes an external backup utility invocation such as mysqldump.
type Tool struct {
	Name string
	Args []string
	// Env entries are appended to the current environment, so secrets such as
	// MYSQL_PWD or PGPASSWORD never appear on the command line.
	Env   []string
	Stdin io.Reader
	// Stdout receives the tool's standard output. Nil discards it.
	Stdout io.Writer
}

// RunTool executes t and folds its stderr into the returned error.
func RunTool(ctx context.Context, t Tool) error {
	path, err := exec.LookPath(t.Name)
	if err != nil {
		return fmt.Errorf("%w: %s is not installed: %v", ErrUnsupportedOperation, t.Name, err)
	}

	cmd := exec.CommandContext(ctx, path, t.Args...)
	cmd.Env = append(os.Environ(), t.Env...)
	cmd.Stdin = t.Stdin
	cmd.Stdout = t.Stdout

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", t.Name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// CopyFile copies src over dst, creating dst with mode 0600, and syncs it.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("syncing %s: %w", dst, err)
	}
	return out.Close()
}
