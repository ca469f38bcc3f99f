package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/debugmate-ai/debugmate/pkg/types"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	labelColor   = color.New(color.FgYellow)
	errColor     = color.New(color.FgRed, color.Bold)
	okColor      = color.New(color.FgGreen, color.Bold)
	subduedColor = color.New(color.Faint)
)

// printResult renders one analysis verdict for the terminal.
func printResult(path *string, result *types.AnalysisResult) {
	headerColor.Println("Root cause")
	fmt.Println(strings.TrimSpace(result.RCA))
	fmt.Println()

	if result.Exception != nil && *result.Exception != "" {
		labelColor.Print("Exception: ")
		errColor.Println(*result.Exception)
	}
	if result.File != nil && *result.File != "" {
		labelColor.Print("Location:  ")
		fmt.Println(*result.File)
	}
	if path != nil && *path != "" {
		labelColor.Print("Source:    ")
		fmt.Println(*path)
	}

	if len(result.Context) > 0 {
		fmt.Println()
		headerColor.Println("Context")
		for _, line := range result.Context {
			subduedColor.Println("  " + line)
		}
	}

	if result.Patch != nil && *result.Patch != "" {
		fmt.Println()
		headerColor.Println("Suggested patch")
		printPatch(*result.Patch)
	}

	if result.Test != nil && *result.Test != "" {
		fmt.Println()
		headerColor.Println("Suggested test")
		fmt.Println(strings.TrimSpace(*result.Test))
	}

	if result.Note != nil && *result.Note != "" {
		fmt.Println()
		subduedColor.Println("Note: " + *result.Note)
	}
}

// printPatch colors unified-diff lines.
func printPatch(patch string) {
	for _, line := range strings.Split(strings.TrimRight(patch, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			okColor.Println(line)
		case strings.HasPrefix(line, "-"):
			errColor.Println(line)
		case strings.HasPrefix(line, "@@"):
			headerColor.Println(line)
		default:
			fmt.Println(line)
		}
	}
}

// printRunResult renders a remote test or command run.
func printRunResult(result *types.RunResult) {
	if result.OK {
		okColor.Printf("OK (exit %d)\n", result.ReturnCode)
	} else {
		errColor.Printf("FAILED (exit %d)\n", result.ReturnCode)
	}
	subduedColor.Printf("%s (in %s)\n", result.Cmd, result.Cwd)

	if strings.TrimSpace(result.Stdout) != "" {
		fmt.Println()
		fmt.Println(strings.TrimRight(result.Stdout, "\n"))
	}
	if strings.TrimSpace(result.Stderr) != "" {
		fmt.Println()
		errColor.Println(strings.TrimRight(result.Stderr, "\n"))
	}
}
