package ports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dmt/internal/domain/ast"
)

// ErrConverterFailed is matched by every ConverterError
var ErrConverterFailed = errors.New("converter failed")

// ConverterError reports a converter run that exited non-zero
type ConverterError struct {
	Args     []string // full argv, binary included
	ExitCode int
	Stderr   string
}

func (e *ConverterError) Error() string {
	return fmt.Sprintf("pandoc failed (exit %d): %s", e.ExitCode, strings.Join(e.Args, " "))
}

func (e *ConverterError) Is(target error) bool {
	return target == ErrConverterFailed
}

// Conversion describes one converter run
type Conversion struct {
	Input  string   // input file
	Output string   // output file; empty for AST reads
	From   string   // reader format, empty lets the converter guess
	To     string   // writer format
	Args   []string // pass-through arguments
	Dir    string   // working directory, empty for the current one
}

// Converter is the external document converter (pandoc)
type Converter interface {
	// CheckPrerequisites verifies the converter is installed and recent enough
	CheckPrerequisites(ctx context.Context) error

	// Convert runs a file to file conversion
	Convert(ctx context.Context, c Conversion) error

	// ReadAST parses c.Input into the converter's document tree
	ReadAST(ctx context.Context, c Conversion) (*ast.Document, error)

	// WriteAST renders doc into c.Output with writer format c.To
	WriteAST(ctx context.Context, doc *ast.Document, c Conversion) error
}
