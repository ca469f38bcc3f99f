package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/debugmate-ai/debugmate/internal/client"
	"github.com/debugmate-ai/debugmate/pkg/types"
)

var (
	testsPath   string
	testsExtra  string
	testsQuiet  bool
	testsDocker bool
)

var testsCmd = &cobra.Command{
	Use:   "tests",
	Short: "Run the remote test suite",
	Long: `Tests asks the backend to run pytest in the configured repository
and prints the captured output.

Examples:
  debugmate tests
  debugmate tests --path tests/unit -q
  debugmate tests --extra "-k test_parser -x"`,
	RunE: runTests,
}

func init() {
	testsCmd.Flags().StringVar(&testsPath, "path", "", "Test path inside the repository (default from config)")
	testsCmd.Flags().StringVar(&testsExtra, "extra", "", "Extra pytest flags")
	testsCmd.Flags().BoolVarP(&testsQuiet, "quiet", "q", false, "Run pytest in quiet mode")
	testsCmd.Flags().BoolVar(&testsDocker, "docker", false, "Run tests inside the repository's container")
}

func runTests(cmd *cobra.Command, args []string) error {
	_, cfg, err := setup()
	if err != nil {
		return err
	}

	backend := client.New(cfg.Backend)
	result, err := backend.RunTests(cmd.Context(), types.RunTestsRequest{
		Repo:       cfg.Runner.Repo,
		Path:       testsPath,
		Extra:      testsExtra,
		Quiet:      testsQuiet,
		UseDocker:  testsDocker || cfg.Runner.UseDocker,
		TimeoutSec: cfg.Runner.TimeoutSec,
	})
	if err != nil {
		return err
	}

	printRunResult(result)
	if !result.OK {
		return fmt.Errorf("tests failed with exit code %d", result.ReturnCode)
	}
	return nil
}
