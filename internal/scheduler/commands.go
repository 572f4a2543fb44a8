package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"math/big"
	"strings"

	"SpendGuard/internal/custody"
	"SpendGuard/internal/ledger"
	"SpendGuard/internal/notifier"

	"github.com/ethereum/go-ethereum/common"
)

const paidListSize = 10

// Replies are sent with HTML parse mode, so anything echoed back or shown in
// angle brackets goes through html.EscapeString.
var helpText = html.EscapeString(`Available commands:
• /status
• /deposit <from> <amount>
• /send <to> <amount>
• /limit <amount>
• /whitelist <address>
• /address <address>
• /paid`)

// HandleCommand processes a chat command from sender and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, sender, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	args := fields[1:]

	switch strings.ToLower(fields[0]) {
	case "/status":
		state := s.Custody.Status()
		return notifier.FormatStatus(&state, s.Custody.CooldownEndsAt())

	case "/deposit":
		if len(args) != 2 {
			return usage("/deposit <from> <amount>")
		}
		from, amount, err := parseAddressAmount(args[0], args[1])
		if err != nil {
			return err.Error()
		}
		if err := s.Custody.Deposit(sender, from, amount); err != nil {
			return "❌ " + describe(err)
		}
		return fmt.Sprintf("✅ Deposited %s", notifier.FormatAmount(amount))

	case "/send":
		if len(args) != 2 {
			return usage("/send <to> <amount>")
		}
		to, amount, err := parseAddressAmount(args[0], args[1])
		if err != nil {
			return err.Error()
		}
		if err := s.Custody.Send(ctx, sender, to, amount); err != nil {
			return "❌ " + describe(err)
		}
		return fmt.Sprintf("✅ Sent %s to %s", notifier.FormatAmount(amount), to.Hex())

	case "/limit":
		if len(args) != 1 {
			return usage("/limit <amount>")
		}
		amount, err := parseAmount(args[0])
		if err != nil {
			return err.Error()
		}
		if err := s.Custody.SetDailySendLimit(ctx, sender, amount); err != nil {
			return "❌ " + describe(err)
		}
		return fmt.Sprintf("✅ Daily send limit set to %s", notifier.FormatAmount(amount))

	case "/whitelist":
		if len(args) != 1 {
			return usage("/whitelist <address>")
		}
		addr, err := parseAddress(args[0])
		if err != nil {
			return err.Error()
		}
		added, err := s.Custody.WhitelistAddress(sender, addr)
		if err != nil {
			return "❌ " + describe(err)
		}
		if !added {
			return fmt.Sprintf("%s is already whitelisted", addr.Hex())
		}
		return fmt.Sprintf("✅ Whitelisted %s", addr.Hex())

	case "/address":
		if len(args) != 1 {
			return usage("/address <address>")
		}
		addr, err := parseAddress(args[0])
		if err != nil {
			return err.Error()
		}
		info := s.Custody.AddressData(addr)
		return notifier.FormatAddress(&info, s.Custody.Remaining(addr))

	case "/paid":
		return notifier.FormatPaid(s.Custody.Status().PaidAddresses, paidListSize)

	default:
		return helpText
	}
}

// describe maps ledger errors to short chat replies.
func describe(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "send conditions not valid: insufficient funds"
	case errors.Is(err, ledger.ErrDailyCapExceeded):
		return "send conditions not valid: daily limit reached for this address"
	case errors.Is(err, custody.ErrNotOwner):
		return "only the owner can do that"
	default:
		return html.EscapeString(err.Error())
	}
}

func usage(cmd string) string {
	return "usage: " + html.EscapeString(cmd)
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", html.EscapeString(s))
	}
	return common.HexToAddress(s), nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", html.EscapeString(s))
	}
	return v, nil
}

func parseAddressAmount(addr, amount string) (common.Address, *big.Int, error) {
	a, err := parseAddress(addr)
	if err != nil {
		return common.Address{}, nil, err
	}
	v, err := parseAmount(amount)
	if err != nil {
		return common.Address{}, nil, err
	}
	return a, v, nil
}
