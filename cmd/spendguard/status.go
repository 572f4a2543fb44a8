package main

import (
	"fmt"
	"io"
	"os"

	"SpendGuard/internal/custody"
	"SpendGuard/internal/ledger"
	"SpendGuard/internal/model"
	"SpendGuard/internal/notifier"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the persisted ledger snapshot",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	state, err := custody.LoadState(cfg.Ledger.StateFile)
	if err != nil {
		return err
	}
	if state == nil {
		fmt.Printf("\n  No ledger state at %s yet. Start the daemon with `spendguard run`.\n\n", cfg.Ledger.StateFile)
		return nil
	}

	printStatus(os.Stdout, state)
	return nil
}

func printStatus(w io.Writer, state *model.LedgerState) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Balance:          %s\n", notifier.FormatAmount(state.Balance))
	fmt.Fprintf(w, "  Daily send limit: %s\n", notifier.FormatAmount(state.DailySendLimit))
	if !state.LimitChanged && state.LastLimitChange.IsZero() {
		fmt.Fprintln(w, "  Limit change:     never")
	} else {
		ends := state.LastLimitChange.Add(ledger.Window)
		fmt.Fprintf(w, "  Limit change:     %s (locked until %s)\n",
			humanize.Time(state.LastLimitChange), ends.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "  Recipients:       %d\n", len(state.Records))
	fmt.Fprintf(w, "  Whitelisted:      %d\n", len(state.Whitelist))
	for _, addr := range state.Whitelist {
		fmt.Fprintf(w, "    %s\n", addr.Hex())
	}
	fmt.Fprintf(w, "  Payments made:    %d\n", len(state.PaidAddresses))
	fmt.Fprintf(w, "  Saved:            %s\n", humanize.Time(state.UpdatedAt))
	fmt.Fprintln(w)
}
