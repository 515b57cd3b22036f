package main

import (
	"os"
	"strings"

	"biolink-cli/internal/cli"
)

func isPageID(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "page-") && len(s) > len("page-")
}

// rewriteDirectPageLookupArgs makes `biolink <page-id>` work like `biolink show <page-id>`.
//
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten before
// parsing. Persistent flags may come first (`biolink --db x.sqlite <page-id>`), so the
// first positional token is searched for, not just argv[1].
func rewriteDirectPageLookupArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	// Unknown flags are skipped without their value so a page id is never consumed.
	valueFlags := map[string]bool{
		"--db":        true,
		"--page":      true,
		"--config":    true,
		"--log-level": true,
		"--format":    true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	rewriteAt := func(i int) []string {
		out := make([]string, 0, len(argv)+1)
		out = append(out, argv[:i]...)
		out = append(out, "show")
		out = append(out, argv[i:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isPageID(argv[i+1]) {
				return rewriteAt(i + 1)
			}
			return argv
		}

		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
			}
			continue
		}

		if isPageID(a) {
			return rewriteAt(i)
		}
		return argv
	}

	return argv
}

func main() {
	os.Args = rewriteDirectPageLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
