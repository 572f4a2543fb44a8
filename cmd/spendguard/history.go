package main

import (
	"fmt"
	"os"

	"SpendGuard/internal/notifier"
	"SpendGuard/internal/recorder"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent spend attempts from the history database",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagLimit, "limit", "l", 20, "Number of spends to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.SQLitePath == "" {
		return fmt.Errorf("database.sqlite_path is not configured")
	}
	if _, err := os.Stat(cfg.Database.SQLitePath); err != nil {
		return fmt.Errorf("open history: %w", err)
	}

	rec, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, zap.NewNop())
	if err != nil {
		return err
	}
	defer rec.Close()

	spends, err := rec.RecentSpends(flagLimit)
	if err != nil {
		return err
	}
	if len(spends) == 0 {
		fmt.Println("\n  No spends recorded.")
		return nil
	}

	fmt.Println()
	for _, s := range spends {
		mark := "ok"
		if !s.Accepted {
			mark = "REJECTED"
		}
		wl := ""
		if s.Whitelisted {
			wl = " [whitelisted]"
		}
		fmt.Printf("  %-16s %-8s %s -> %s%s\n", humanize.Time(s.At), mark, notifier.FormatAmount(s.Amount), s.Recipient.Hex(), wl)
		if s.Reason != "" {
			fmt.Printf("  %16s %s\n", "", s.Reason)
		}
	}
	fmt.Println()
	return nil
}
