package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var digestSend bool

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Print the daily goals and messages summary",
	Long: `Builds the same summary the scheduler sends every morning. With --send
it is pushed to the configured Telegram chat instead of printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.close()

		if digestSend {
			if !a.telegram {
				return errors.New("telegram is not configured")
			}
			return a.sendDigest(cmd.Context())
		}
		text, err := a.digest.DailySummary(cmd.Context(), time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	digestCmd.Flags().BoolVar(&digestSend, "send", false, "send to Telegram instead of printing")
	rootCmd.AddCommand(digestCmd)
}
