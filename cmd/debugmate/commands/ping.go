package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/debugmate-ai/debugmate/internal/client"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the backend is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := setup()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		backend := client.New(cfg.Backend)
		if err := backend.Ping(ctx); err != nil {
			return fmt.Errorf("backend unreachable: %w", err)
		}

		okColor.Printf("backend ok: %s\n", cfg.Backend.BaseURL)
		return nil
	},
}
