package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/debugmate-ai/debugmate/internal/client"
	"github.com/debugmate-ai/debugmate/pkg/types"
)

var (
	execCwd   string
	execShell bool
)

var execCmd = &cobra.Command{
	Use:   "exec -- command [args...]",
	Short: "Run a command on the remote side",
	Long: `Exec runs an arbitrary command in the backend's environment.

The command is validated locally before it is sent: without --shell it must
be a single simple invocation with no pipes, redirections, or substitutions.

Examples:
  debugmate exec -- python manage.py check
  debugmate exec --shell -- "grep ERROR app.log | tail -20"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	execCmd.Flags().StringVar(&execCwd, "cwd", "", "Working directory on the remote side")
	execCmd.Flags().BoolVar(&execShell, "shell", false, "Run through a shell, allowing pipes and redirections")
}

func runExec(cmd *cobra.Command, args []string) error {
	_, cfg, err := setup()
	if err != nil {
		return err
	}

	command := strings.Join(args, " ")
	if err := client.ValidateCommand(command, execShell); err != nil {
		return err
	}

	backend := client.New(cfg.Backend)
	result, err := backend.RunCommand(cmd.Context(), types.RunCommandRequest{
		Cmd:        command,
		Cwd:        execCwd,
		Shell:      execShell,
		TimeoutSec: cfg.Runner.TimeoutSec,
	})
	if err != nil {
		return err
	}

	printRunResult(result)
	if !result.OK {
		return fmt.Errorf("command failed with exit code %d", result.ReturnCode)
	}
	return nil
}
