package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/config"
	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/internal/advisor/core"
	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/internal/advisor/telemetry"
)

var (
	outputPath string
	showReport bool
)

var planCmd = &cobra.Command{
	Use:   "plan [scenario]",
	Short: "Generate a structured startup plan for a business scenario",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scenario := strings.Join(args, " ")

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logger := log.New(os.Stderr, "", log.LstdFlags)
		tel := telemetry.New(telemetry.Config{
			Enabled:     cfg.Telemetry.Enabled,
			LogEvents:   cfg.Telemetry.PeriodicLogs,
			TrackCosts:  cfg.Telemetry.CostTracking,
			TrackTokens: cfg.Telemetry.CostTracking,
		}, logger)

		coordinator, err := core.NewCoordinator(cfg, logger, tel)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if cfg.General.MaxSessionTime > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.General.MaxSessionTime)
			defer cancel()
		}

		plan, session, err := coordinator.Synthesize(ctx, scenario)
		if err != nil {
			var completionErr *core.CompletionError
			if errors.As(err, &completionErr) && session != nil {
				logger.Printf("Session %s ended incomplete after %d findings", session.ID, len(session.Findings))
			}
			return err
		}

		out, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding plan: %w", err)
		}
		if outputPath != "" {
			if err := os.WriteFile(outputPath, out, 0o644); err != nil {
				return fmt.Errorf("writing plan to %s: %w", outputPath, err)
			}
			logger.Printf("Plan written to %s", outputPath)
		} else {
			fmt.Println(string(out))
		}

		if showReport {
			fmt.Fprintln(os.Stderr, tel.PerformanceReport())
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the plan JSON to a file instead of stdout")
	planCmd.Flags().BoolVar(&showReport, "report", false, "print a performance report after the session")
	rootCmd.AddCommand(planCmd)
}
