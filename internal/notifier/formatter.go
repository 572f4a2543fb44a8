package notifier

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"SpendGuard/internal/model"
	"SpendGuard/internal/recorder"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/common"
)

// FormatAmount renders an integer amount with thousands separators.
func FormatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return humanize.BigComma(v)
}

// FormatStatus formats the ledger state for display.
func FormatStatus(state *model.LedgerState, cooldownEnds time.Time) string {
	var b strings.Builder
	b.WriteString("📦 <b>Ledger status</b>\n\n")
	b.WriteString(fmt.Sprintf("Balance: %s\n", FormatAmount(state.Balance)))
	b.WriteString(fmt.Sprintf("Daily send limit: %s\n", FormatAmount(state.DailySendLimit)))
	if cooldownEnds.After(state.UpdatedAt) {
		b.WriteString(fmt.Sprintf("Limit locked until: %s\n", cooldownEnds.UTC().Format("2006-01-02 15:04 MST")))
	} else {
		b.WriteString("Limit change: available\n")
	}
	b.WriteString(fmt.Sprintf("Whitelisted: %d\n", len(state.Whitelist)))
	b.WriteString(fmt.Sprintf("Payments made: %d\n", len(state.PaidAddresses)))
	b.WriteString(fmt.Sprintf("Updated: %s\n", state.UpdatedAt.UTC().Format("2006-01-02 15:04")))
	return b.String()
}

// FormatAddress formats the per-address view with the allowance left now.
// A nil remaining means the address is whitelisted.
func FormatAddress(info *model.AddressInfo, remaining *big.Int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔎 <b>%s</b>\n\n", info.Address.Hex()))
	b.WriteString(fmt.Sprintf("Whitelisted: %v\n", info.Whitelisted))
	if info.WindowStart.IsZero() {
		b.WriteString("Window: none yet\n")
	} else {
		b.WriteString(fmt.Sprintf("Window start: %s (%s)\n",
			info.WindowStart.UTC().Format("2006-01-02 15:04"), humanize.Time(info.WindowStart)))
		b.WriteString(fmt.Sprintf("Sent in window: %s\n", FormatAmount(info.AmountSpentToday)))
	}
	if remaining == nil {
		b.WriteString("Remaining today: unlimited\n")
	} else {
		b.WriteString(fmt.Sprintf("Remaining today: %s\n", FormatAmount(remaining)))
	}
	return b.String()
}

// FormatPaid lists the last n paid addresses, newest last.
func FormatPaid(paid []common.Address, n int) string {
	if len(paid) == 0 {
		return "No payments yet."
	}
	start := 0
	if len(paid) > n {
		start = len(paid) - n
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🧾 <b>Paid addresses</b> (%d total)\n\n", len(paid)))
	for i := start; i < len(paid); i++ {
		b.WriteString(fmt.Sprintf("%d. %s\n", i, paid[i].Hex()))
	}
	return b.String()
}

// FormatSpendRejected formats an alert for a rejected spend.
func FormatSpendRejected(evt *recorder.SpendEvent) string {
	return fmt.Sprintf("⚠️ <b>Spend rejected</b>\n\nTo: %s\nAmount: %s\nReason: %s\nBalance: %s",
		evt.Recipient.Hex(), FormatAmount(evt.Amount), evt.Reason, FormatAmount(evt.BalanceAfter))
}

// FormatLimitChange formats an alert for a limit change attempt.
func FormatLimitChange(evt *recorder.LimitChangeEvent) string {
	if evt.Accepted {
		return fmt.Sprintf("🔧 <b>Daily limit changed</b>\n\n%s → %s\nBy: %s",
			FormatAmount(evt.OldLimit), FormatAmount(evt.NewLimit), evt.Caller)
	}
	return fmt.Sprintf("⛔ <b>Limit change rejected</b>\n\nRequested: %s\nBy: %s\nReason: %s",
		FormatAmount(evt.NewLimit), evt.Caller, evt.Reason)
}

// FormatDailyReport formats the scheduled daily summary.
func FormatDailyReport(state *model.LedgerState, spends []recorder.SpendEvent, since time.Time) string {
	var accepted, rejected int
	total := new(big.Int)
	for _, s := range spends {
		if s.At.Before(since) {
			continue
		}
		if s.Accepted {
			accepted++
			total.Add(total, s.Amount)
		} else {
			rejected++
		}
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>Daily report</b> | %s\n\n", state.UpdatedAt.UTC().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Sends: %d accepted, %d rejected\n", accepted, rejected))
	b.WriteString(fmt.Sprintf("Sent: %s\n", FormatAmount(total)))
	b.WriteString(fmt.Sprintf("Balance: %s\n", FormatAmount(state.Balance)))
	b.WriteString(fmt.Sprintf("Daily send limit: %s\n", FormatAmount(state.DailySendLimit)))
	return b.String()
}
