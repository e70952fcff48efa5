// Package pandoc runs the pandoc binary on behalf of the conversion
// pipelines.
package pandoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"dmt/internal/domain/ast"
	"dmt/internal/ports"
)

// ErrNotInstalled is returned when the pandoc binary cannot be found.
var ErrNotInstalled = errors.New("pandoc is not installed or not on PATH")

// Runner implements ports.Converter using the pandoc CLI
type Runner struct {
	binary     string
	minVersion Version
	logger     zerolog.Logger
}

// Option configures the Runner
type Option func(*Runner)

// WithBinary sets the pandoc executable name or path
func WithBinary(binary string) Option {
	return func(r *Runner) {
		if binary != "" {
			r.binary = binary
		}
	}
}

// WithMinVersion sets the oldest accepted pandoc version
func WithMinVersion(v Version) Option {
	return func(r *Runner) {
		r.minVersion = v
	}
}

// WithLogger sets the logger used for invocation traces
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a pandoc runner
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		binary:     "pandoc",
		minVersion: MinimumVersion,
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CheckPrerequisites verifies pandoc is on PATH and recent enough
func (r *Runner) CheckPrerequisites(ctx context.Context) error {
	path, err := exec.LookPath(r.binary)
	if err != nil {
		return ErrNotInstalled
	}

	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("failed to run pandoc --version (exit %d)", exitErr.ExitCode())
		}
		return fmt.Errorf("failed to run pandoc --version: %w", err)
	}

	v, ok := ParseVersion(string(out))
	if !ok {
		return errors.New("could not parse pandoc version output")
	}
	if v.Less(r.minVersion) {
		return fmt.Errorf("pandoc version %s is too old; require at least %d.%d",
			v, r.minVersion.Major, r.minVersion.Minor)
	}
	r.logger.Debug().Str("binary", path).Str("version", v.String()).Msg("pandoc found")
	return nil
}

// Convert runs pandoc from c.Input to c.Output
func (r *Runner) Convert(ctx context.Context, c ports.Conversion) error {
	args := []string{c.Input}
	if c.From != "" {
		args = append(args, "-f", c.From)
	}
	if c.To != "" {
		args = append(args, "-t", c.To)
	}
	args = append(args, c.Args...)
	args = append(args, "-o", c.Output)
	_, err := r.run(ctx, args, c.Dir, nil)
	return err
}

// ReadAST parses c.Input into a document tree
func (r *Runner) ReadAST(ctx context.Context, c ports.Conversion) (*ast.Document, error) {
	args := []string{c.Input}
	if c.From != "" {
		args = append(args, "-f", c.From)
	}
	args = append(args, c.Args...)
	args = append(args, "-t", "json")

	out, err := r.run(ctx, args, c.Dir, nil)
	if err != nil {
		return nil, err
	}
	doc, err := ast.Decode(out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode pandoc AST of %s: %w", c.Input, err)
	}
	return doc, nil
}

// WriteAST renders doc into c.Output. Only options meaningful to a
// markdown writer are passed through.
func (r *Runner) WriteAST(ctx context.Context, doc *ast.Document, c ports.Conversion) error {
	data, err := ast.Encode(doc)
	if err != nil {
		return fmt.Errorf("failed to encode pandoc AST: %w", err)
	}
	to := c.To
	if to == "" {
		to = DefaultWriter
	}
	args := []string{"-f", "json", "-t", to}
	args = append(args, RenderArgs(c.Args)...)
	args = append(args, "-o", c.Output)
	_, err = r.run(ctx, args, c.Dir, bytes.NewReader(data))
	return err
}

func (r *Runner) run(ctx context.Context, args []string, dir string, stdin io.Reader) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Dir = dir
	cmd.Stdin = stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug().Strs("args", args).Str("dir", dir).Msg("running pandoc")
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ports.ConverterError{
				Args:     append([]string{r.binary}, args...),
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
			}
		}
		return nil, fmt.Errorf("failed to run %s: %w", r.binary, err)
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		r.logger.Warn().Str("stderr", msg).Msg("pandoc reported warnings")
	}
	return stdout.Bytes(), nil
}
