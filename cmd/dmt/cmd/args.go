package cmd

import "strings"

// valueFlags are dmt flags that take a separate value argument.
var valueFlags = map[string]bool{
	"--config":    true,
	"--log-level": true,
	"-o":          true,
	"--output":    true,
	"-r":          true,
	"--ref":       true,
}

// switchFlags are dmt flags without a value.
var switchFlags = map[string]bool{
	"-v":        true,
	"--verbose": true,
	"-V":        true,
	"--version": true,
	"-h":        true,
	"--help":    true,
	"--browse":  true,
	"--json":    true,
	"--edit":    true,
}

// splitArgs separates dmt's own arguments from the ones forwarded to pandoc.
// Everything after "--" is forwarded. An unknown flag takes the following
// word as its value once the input file has been seen, so "-t gfm" after
// the input stays together.
func splitArgs(argv []string, subcommands map[string]bool) (known, passthrough []string) {
	seenInput := false
	seenCommand := false

	for i := 0; i < len(argv); i++ {
		arg := argv[i]

		if arg == "--" {
			passthrough = append(passthrough, argv[i+1:]...)
			break
		}

		if arg == "-" || !strings.HasPrefix(arg, "-") {
			if !seenInput && !seenCommand && subcommands[arg] {
				seenCommand = true
			} else {
				seenInput = true
			}
			known = append(known, arg)
			continue
		}

		name, _, hasValue := strings.Cut(arg, "=")
		switch {
		case valueFlags[name]:
			known = append(known, arg)
			if !hasValue && i+1 < len(argv) {
				i++
				known = append(known, argv[i])
			}
		case switchFlags[arg]:
			known = append(known, arg)
		case isAttachedShort(arg):
			known = append(known, arg)
		default:
			passthrough = append(passthrough, arg)
			if seenInput && !hasValue && i+1 < len(argv) && !strings.HasPrefix(argv[i+1], "-") {
				i++
				passthrough = append(passthrough, argv[i])
			}
		}
	}
	return known, passthrough
}

// isAttachedShort reports "-oout.md" and "-rref.docx" forms.
func isAttachedShort(arg string) bool {
	return len(arg) > 2 && !strings.HasPrefix(arg, "--") && (arg[:2] == "-o" || arg[:2] == "-r")
}
