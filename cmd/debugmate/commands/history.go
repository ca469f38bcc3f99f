package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/debugmate-ai/debugmate/internal/archive"
	"github.com/debugmate-ai/debugmate/internal/config"
	"github.com/debugmate-ai/debugmate/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect archived analysis records",
}

var historySessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List sessions with archived records",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchive()
		if err != nil {
			return err
		}

		ids, err := store.Sessions(cmd.Context())
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Println("no archived sessions")
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <sessionID>",
	Short: "Show a session's archived records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchive()
		if err != nil {
			return err
		}

		records, err := store.List(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("no records for session", args[0])
			return nil
		}

		for i, record := range records {
			if i > 0 {
				fmt.Println()
				subduedColor.Println("----")
				fmt.Println()
			}
			printRecordHeader(record)
			printResult(record.SourcePath, record.Result)
		}
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historySessionsCmd)
	historyCmd.AddCommand(historyShowCmd)
}

// openArchive opens the configured archive store.
func openArchive() (*archive.Store, error) {
	_, cfg, err := setup()
	if err != nil {
		return nil, err
	}

	dir := config.GetPaths().ArchivePath()
	if cfg.Archive != nil && cfg.Archive.Dir != "" {
		dir = cfg.Archive.Dir
	}
	return archive.New(dir), nil
}

func printRecordHeader(record *types.AnalysisRecord) {
	labelColor.Print("Record:    ")
	fmt.Println(record.ID)
	if record.IncidentID != "" {
		labelColor.Print("Incident:  ")
		fmt.Println(record.IncidentID)
	}
	labelColor.Print("Created:   ")
	fmt.Println(record.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Println()
}
