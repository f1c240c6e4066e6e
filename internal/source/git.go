package source

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Git runs the git binary. Every command is non-interactive and carries a
// fixed committer identity so pulls that merge never stop for input.
type Git struct {
	Binary string
}

// NewGit returns a Git using binary, or "git" when empty.
func NewGit(binary string) *Git {
	if binary == "" {
		binary = "git"
	}
	return &Git{Binary: binary}
}

// GitError carries the output of a failed git command.
type GitError struct {
	Args   []string
	Output string
	Err    error
}

func (e *GitError) Error() string {
	out := strings.TrimSpace(e.Output)
	if len(out) > 512 {
		out = out[:512] + "..."
	}
	if out == "" {
		return fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf("git %s: %v: %s", strings.Join(e.Args, " "), e.Err, out)
}

func (e *GitError) Unwrap() error {
	return e.Err
}

func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	full := append([]string{
		"-c", "user.name=javaseeker",
		"-c", "user.email=javaseeker@localhost",
		"-c", "commit.gpgsign=false",
	}, args...)
	cmd := exec.CommandContext(ctx, g.Binary, full...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_MERGE_AUTOEDIT=no")

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.String(), &GitError{Args: args, Output: out.String(), Err: err}
	}
	return strings.TrimSpace(out.String()), nil
}

// IsRepo reports whether dir is the top level of a usable work tree.
func (g *Git) IsRepo(ctx context.Context, dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		return false
	}
	out, err := g.run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return false
	}
	// a broken .git makes git discover an enclosing repository instead
	return sameDir(filepath.FromSlash(out), dir)
}

func sameDir(a, b string) bool {
	if ra, err := filepath.EvalSymlinks(a); err == nil {
		a = ra
	}
	if rb, err := filepath.EvalSymlinks(b); err == nil {
		b = rb
	}
	return filepath.Clean(a) == filepath.Clean(b)
}

// CurrentBranch returns the checked-out branch name ("HEAD" when detached).
func (g *Git) CurrentBranch(ctx context.Context, dir string) (string, error) {
	return g.run(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
}

// Head returns the commit id of HEAD.
func (g *Git) Head(ctx context.Context, dir string) (string, error) {
	return g.run(ctx, dir, "rev-parse", "HEAD")
}

// Checkout force-checks-out branch, discarding local changes. A branch the
// single-branch clone never fetched is fetched from origin first.
func (g *Git) Checkout(ctx context.Context, dir, branch string) error {
	if _, err := g.run(ctx, dir, "checkout", "-f", branch); err == nil {
		return nil
	}
	refspec := fmt.Sprintf("+refs/heads/%s:refs/remotes/origin/%s", branch, branch)
	if _, err := g.run(ctx, dir, "fetch", "origin", refspec); err != nil {
		return err
	}
	_, err := g.run(ctx, dir, "checkout", "-f", "-B", branch, "origin/"+branch)
	return err
}

// Pull merges origin/branch into the current branch.
func (g *Git) Pull(ctx context.Context, dir, branch string) error {
	_, err := g.run(ctx, dir, "pull", "--no-rebase", "--no-edit", "origin", branch)
	return err
}

// UnmergedPaths lists paths with unresolved merge conflicts.
func (g *Git) UnmergedPaths(ctx context.Context, dir string) ([]string, error) {
	out, err := g.run(ctx, dir, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// Clone clones a single branch of url into dir.
func (g *Git) Clone(ctx context.Context, url, branch, dir string) error {
	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return err
	}
	_, err := g.run(ctx, filepath.Dir(dir), "clone", "--branch", branch, "--single-branch", url, dir)
	return err
}

// Available reports whether the git binary can be executed.
func (g *Git) Available() bool {
	_, err := exec.LookPath(g.Binary)
	return err == nil
}
