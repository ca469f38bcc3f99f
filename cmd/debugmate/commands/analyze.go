package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/debugmate-ai/debugmate/internal/archive"
	"github.com/debugmate-ai/debugmate/internal/client"
	"github.com/debugmate-ai/debugmate/internal/config"
	"github.com/debugmate-ai/debugmate/internal/event"
	"github.com/debugmate-ai/debugmate/internal/router"
	"github.com/debugmate-ai/debugmate/internal/session"
	"github.com/debugmate-ai/debugmate/pkg/types"
)

var (
	analyzeSendPath bool
	analyzeJSON     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze a log, traceback, or notebook",
	Long: `Analyze sends a log file to the backend and prints the verdict.

With a file argument the file is read locally, prepared (notebook cell
extraction, size clamping), and sent as content. With --send-path only the
path is sent and the backend reads the file itself. Without an argument the
log is read from stdin.

Examples:
  debugmate analyze app.log
  debugmate analyze --send-path /var/log/app.log
  kubectl logs my-pod | debugmate analyze`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeSendPath, "send-path", false, "Send the path instead of the content; the backend reads the file")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the raw JSON result")
}

// cliHost adapts the one-shot CLI invocation to the router's host interface.
// The active input is fixed to whatever the command line provided; there are
// no interactive pickers.
type cliHost struct {
	input *router.Input
}

func (h cliHost) ActiveInput(ctx context.Context) (*router.Input, error) {
	return h.input, nil
}

func (h cliHost) PickOpenPath(ctx context.Context) (string, error) {
	return "", router.ErrCancelled
}

func (h cliHost) PickSavePath(ctx context.Context, suggested string) (string, error) {
	if suggested == "" {
		return "", router.ErrCancelled
	}
	return suggested, nil
}

func (h cliHost) ReadFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (h cliHost) WriteFile(ctx context.Context, path, body string) error {
	return os.WriteFile(path, []byte(body), 0644)
}

func (h cliHost) ConfirmOverwrite(ctx context.Context, path string) (bool, error) {
	return true, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	_, cfg, err := setup()
	if err != nil {
		return err
	}

	input := &router.Input{}
	if len(args) == 1 {
		abs, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		body, err := os.ReadFile(abs)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", abs, err)
		}
		input.Path = abs
		input.Text = string(body)
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		input.Text = string(data)
	}

	bus := event.NewBus()
	defer bus.Close()

	var store *archive.Store
	if cfg.Archive != nil && cfg.Archive.Enabled {
		dir := cfg.Archive.Dir
		if dir == "" {
			dir = config.GetPaths().ArchivePath()
		}
		store = archive.New(dir)
	}

	sess := session.New(bus, store)
	backend := client.New(cfg.Backend)

	var mu sync.Mutex
	var replies []types.Outbound
	surface := router.SurfaceFunc(func(msg types.Outbound) {
		mu.Lock()
		replies = append(replies, msg)
		mu.Unlock()
	})

	rtr := router.New(sess, backend, cliHost{input: input}, surface, cfg)
	rtr.Dispatch(cmd.Context(), &types.AnalyzeActiveMsg{SendPath: analyzeSendPath})
	rtr.Wait()

	mu.Lock()
	defer mu.Unlock()
	for _, msg := range replies {
		switch m := msg.(type) {
		case types.AnalysisResultMsg:
			if analyzeJSON {
				out, err := json.MarshalIndent(m.Body, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}
			printResult(m.Path, m.Body)
			return nil
		case types.StatusMsg:
			fmt.Println(m.Message)
			return nil
		case types.ErrorMsg:
			return fmt.Errorf("%s", m.Message)
		}
	}

	return fmt.Errorf("no result received")
}
