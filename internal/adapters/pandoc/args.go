package pandoc

import "strings"

// DefaultWriter is the markdown flavour used when no -t/--to is given.
const DefaultWriter = "markdown"

// WriterFormat returns the last -t/--to value in args.
func WriterFormat(args []string) string {
	writer := DefaultWriter
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case (arg == "-t" || arg == "--to") && i+1 < len(args):
			writer = args[i+1]
			i++
		case strings.HasPrefix(arg, "--to="):
			writer = strings.TrimPrefix(arg, "--to=")
		}
	}
	if writer == "" {
		return DefaultWriter
	}
	return writer
}

// flags that never apply when rendering a JSON AST back to markdown.
var renderDropped = []string{"-f", "--from", "-t", "--to", "-o", "--output", "--extract-media", "--track-changes"}

// RenderArgs drops reader, writer, output and docx-only options from args.
func RenderArgs(args []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if isDropped(arg) {
			i++
			continue
		}
		if key, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(key, "--") && isDropped(key) {
			continue
		}
		out = append(out, arg)
	}
	return out
}

func isDropped(arg string) bool {
	for _, d := range renderDropped {
		if arg == d {
			return true
		}
	}
	return false
}

// HasExtractMedia reports whether args already ask for media extraction.
func HasExtractMedia(args []string) bool {
	for _, arg := range args {
		if arg == "--extract-media" || strings.HasPrefix(arg, "--extract-media=") {
			return true
		}
	}
	return false
}
