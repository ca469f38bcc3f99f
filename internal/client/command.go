package client

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ValidateCommand checks a runCommand payload before any network call.
// The command must parse as shell syntax; when shell execution is not
// requested it must additionally be a single simple call, since the remote
// side will exec it without a shell. Malformed quoting therefore fails
// client-side instead of producing an opaque remote error.
func ValidateCommand(cmd string, shell bool) error {
	if strings.TrimSpace(cmd) == "" {
		return fmt.Errorf("empty command")
	}

	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(cmd), "")
	if err != nil {
		return fmt.Errorf("failed to parse command: %w", err)
	}

	if shell {
		return nil
	}

	calls := 0
	var unsupported string
	syntax.Walk(file, func(node syntax.Node) bool {
		switch node.(type) {
		case *syntax.CallExpr:
			calls++
		case *syntax.BinaryCmd:
			unsupported = "pipes and operators"
		case *syntax.Redirect:
			unsupported = "redirections"
		case *syntax.CmdSubst:
			unsupported = "command substitution"
		}
		return true
	})

	if unsupported != "" {
		return fmt.Errorf("%s require shell=true", unsupported)
	}
	if calls != 1 {
		return fmt.Errorf("expected a single command without shell=true, got %d", calls)
	}
	return nil
}
