package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"dmt/internal/adapters/pandoc"
	"dmt/internal/application"
	"dmt/internal/domain/milestone"
	"dmt/internal/logging"
	"dmt/internal/ports"
)

// Md2DocxResult contains the result of a markdown to docx conversion
type Md2DocxResult struct {
	OutputPath  string
	Comments    int
	Threads     int
	Replies     int
	AnchorParts int
	Patched     bool
	Message     string
}

// Md2DocxCommand converts markdown with milestone tokens and comment cards
// back into a Word document with threaded comments
type Md2DocxCommand struct {
	adapters     Adapters
	InputPath    string
	OutputPath   string
	PandocArgs   []string
	ReferenceDoc string
}

// NewMd2DocxCommand creates a new Md2DocxCommand
func NewMd2DocxCommand(adapters Adapters, inputPath, outputPath string, pandocArgs []string) *Md2DocxCommand {
	return &Md2DocxCommand{
		adapters:   adapters,
		InputPath:  inputPath,
		OutputPath: outputPath,
		PandocArgs: pandocArgs,
	}
}

// Validate checks the input, output and reference document paths
func (c *Md2DocxCommand) Validate() error {
	if err := application.ValidateInputFile("inputPath", c.InputPath); err != nil {
		return err
	}
	if c.ReferenceDoc != "" {
		if err := application.ValidateInputFile("referenceDoc", c.ReferenceDoc); err != nil {
			return err
		}
	}
	if c.OutputPath != "" {
		return application.ValidateOutput(c.InputPath, c.OutputPath)
	}
	return nil
}

// Execute runs the conversion. Marker and thread problems are reported
// before pandoc writes anything; the destination is replaced only with the
// fully patched package.
func (c *Md2DocxCommand) Execute(ctx context.Context) (*Md2DocxResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	input, err := absPath(c.InputPath)
	if err != nil {
		return nil, err
	}
	output := c.OutputPath
	if output == "" {
		output = application.DefaultOutput(input, application.ModeMd2Docx)
	}
	if output, err = absPath(output); err != nil {
		return nil, err
	}

	if err := c.adapters.Converter.CheckPrerequisites(ctx); err != nil {
		return nil, err
	}

	runID := newRunID()
	logger := logging.ForRun(runID)
	inDir := filepath.Dir(input)

	ws, err := c.adapters.Workspaces(output, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			logger.Warn().Err(cerr).Str("dir", ws.Dir()).Msg("failed to remove scratch directory")
		}
	}()

	dm, err := decodeMarkdown(ctx, c.adapters.Converter, ws, input, c.PandocArgs, inDir)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("stage", "decode").
		Int("cards", dm.Cards.Len()).
		Strs("synthesized", dm.Synthesized).
		Int("images", len(dm.RemovedImages)).
		Msg("decoded milestones")

	if err := milestone.ValidateMarkers(dm.Source, dm.Normalized, dm.Cards, c.InputPath); err != nil {
		return nil, err
	}

	doc, err := c.adapters.Converter.ReadAST(ctx, ports.Conversion{
		Input: dm.NormalizedPath,
		From:  "markdown",
		Args:  pandoc.RenderArgs(c.PandocArgs),
		Dir:   inDir,
	})
	if err != nil {
		return nil, err
	}
	g, err := milestone.ExtractComments(doc, dm.Cards)
	if err != nil {
		return nil, err
	}
	stripped := milestone.StripTransportAttrs(doc)
	logger.Debug().Str("stage", "extract").Int("comments", g.Len()).Int("stripped", stripped).Msg("extracted comment graph")

	pandocInput := ws.Path("pandoc-input.md")
	if err := c.adapters.Converter.WriteAST(ctx, doc, ports.Conversion{
		Output: pandocInput,
		To:     pandoc.DefaultWriter,
		Args:   c.PandocArgs,
		Dir:    inDir,
	}); err != nil {
		return nil, err
	}
	text, err := readText(pandocInput)
	if err != nil {
		return nil, err
	}
	if fixed, n := milestone.NormalizeNestedEnds(text); n > 0 {
		if err := writeText(pandocInput, fixed); err != nil {
			return nil, err
		}
	}

	args := append([]string(nil), c.PandocArgs...)
	if c.ReferenceDoc != "" {
		ref, err := absPath(c.ReferenceDoc)
		if err != nil {
			return nil, err
		}
		args = append(args, "--reference-doc", ref)
	}
	if err := c.adapters.Converter.Convert(ctx, ports.Conversion{
		Input:  pandocInput,
		Output: ws.Path("pandoc.docx"),
		From:   "markdown",
		Args:   args,
		Dir:    inDir,
	}); err != nil {
		return nil, err
	}

	final := "pandoc.docx"
	anchors := 0
	patched := false
	if g.Len() > 0 {
		unpacked := ws.Path("docx")
		if err := c.adapters.Package.Extract(ws.Path("pandoc.docx"), unpacked); err != nil {
			return nil, err
		}
		wrote, err := c.adapters.Package.WriteComments(unpacked, g)
		if err != nil {
			return nil, fmt.Errorf("failed to write comments: %w", err)
		}
		if anchors, err = c.adapters.Package.EnsureReplyAnchors(unpacked, g); err != nil {
			return nil, err
		}
		state, err := c.adapters.Package.WriteThreadState(unpacked, g)
		if err != nil {
			return nil, fmt.Errorf("failed to write thread state: %w", err)
		}
		logger.Debug().Str("stage", "patch").
			Bool("comments", wrote).
			Int("anchors", anchors).
			Bool("state", state).
			Msg("patched docx package")

		if wrote || anchors > 0 || state {
			if err := c.adapters.Package.Pack(unpacked, ws.Path("patched.docx")); err != nil {
				return nil, err
			}
			final = "patched.docx"
			patched = true
		}
	}

	if err := ws.Commit(final, output); err != nil {
		return nil, err
	}

	replies := len(g.ChildIDs())
	threads := g.Len() - replies
	return &Md2DocxResult{
		OutputPath:  output,
		Comments:    g.Len(),
		Threads:     threads,
		Replies:     replies,
		AnchorParts: anchors,
		Patched:     patched,
		Message: fmt.Sprintf("Converted %s -> %s (%d comments in %d threads)",
			filepath.Base(input), filepath.Base(output), g.Len(), threads),
	}, nil
}
