package input

import (
	"fmt"
	"regexp"
	"strings"
)

// CompileExcludes normalizes and compiles a set of exclude patterns
// per the packager's anchoring rule: a leading "." becomes "^\.", a
// leading "*" is dropped, and every pattern is right-anchored with
// "$". The combined regex is case-insensitive. A nil/empty patterns
// slice yields a nil regex (nothing excluded).
func CompileExcludes(patterns []string) (*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	queries := make([]string, 0, len(patterns))
	for _, p := range patterns {
		switch {
		case strings.HasPrefix(p, "."):
			p = "^\\." + strings.TrimPrefix(p, ".")
		case strings.HasPrefix(p, "*"):
			p = strings.TrimPrefix(p, "*")
		}
		queries = append(queries, p+"$")
	}

	re, err := regexp.Compile("(?i)" + strings.Join(queries, "|"))
	if err != nil {
		return nil, &InvalidDataError{Err: fmt.Errorf("compiling exclude pattern: %w", err)}
	}
	return re, nil
}
