package recorder

import (
	"database/sql"
	"fmt"
	"math/big"
	"sync"
	"time"

	"SpendGuard/internal/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists ledger history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so the CLI history command can read while the daemon writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS deposits (
			id            TEXT PRIMARY KEY,
			timestamp     INTEGER NOT NULL,
			event_type    TEXT NOT NULL,
			from_address  TEXT NOT NULL,
			amount        TEXT NOT NULL,
			balance_after TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deposits_ts ON deposits(timestamp)`,

		`CREATE TABLE IF NOT EXISTS spends (
			id            TEXT PRIMARY KEY,
			timestamp     INTEGER NOT NULL,
			event_type    TEXT NOT NULL,
			recipient     TEXT NOT NULL,
			amount        TEXT NOT NULL,
			whitelisted   INTEGER NOT NULL,
			accepted      INTEGER NOT NULL,
			reason        TEXT,
			balance_after TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_spends_ts ON spends(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_spends_recipient ON spends(recipient)`,

		`CREATE TABLE IF NOT EXISTS limit_changes (
			id         TEXT PRIMARY KEY,
			timestamp  INTEGER NOT NULL,
			event_type TEXT NOT NULL,
			caller     TEXT,
			old_limit  TEXT NOT NULL,
			new_limit  TEXT NOT NULL,
			accepted   INTEGER NOT NULL,
			reason     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_limit_changes_ts ON limit_changes(timestamp)`,

		`CREATE TABLE IF NOT EXISTS whitelist_events (
			id         TEXT PRIMARY KEY,
			timestamp  INTEGER NOT NULL,
			event_type TEXT NOT NULL,
			caller     TEXT,
			address    TEXT NOT NULL,
			added      INTEGER NOT NULL
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func amountText(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func (r *SQLiteRecorder) RecordDeposit(evt *DepositEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO deposits
		(id, timestamp, event_type, from_address, amount, balance_after)
		VALUES (?,?,?,?,?,?)`,
		uuid.NewString(), evt.At.UnixNano(), string(model.EventDeposit),
		evt.From.Hex(), amountText(evt.Amount), amountText(evt.BalanceAfter),
	)
	return err
}

func (r *SQLiteRecorder) RecordSpend(evt *SpendEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO spends
		(id, timestamp, event_type, recipient, amount, whitelisted, accepted, reason, balance_after)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		uuid.NewString(), evt.At.UnixNano(), string(model.EventSpend),
		evt.Recipient.Hex(), amountText(evt.Amount), evt.Whitelisted, evt.Accepted,
		evt.Reason, amountText(evt.BalanceAfter),
	)
	return err
}

func (r *SQLiteRecorder) RecordLimitChange(evt *LimitChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO limit_changes
		(id, timestamp, event_type, caller, old_limit, new_limit, accepted, reason)
		VALUES (?,?,?,?,?,?,?,?)`,
		uuid.NewString(), evt.At.UnixNano(), string(model.EventLimitChange),
		evt.Caller, amountText(evt.OldLimit), amountText(evt.NewLimit), evt.Accepted, evt.Reason,
	)
	return err
}

func (r *SQLiteRecorder) RecordWhitelist(evt *WhitelistEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO whitelist_events
		(id, timestamp, event_type, caller, address, added)
		VALUES (?,?,?,?,?,?)`,
		uuid.NewString(), evt.At.UnixNano(), string(model.EventWhitelist),
		evt.Caller, evt.Address.Hex(), evt.Added,
	)
	return err
}

// RecentSpends returns up to limit spend attempts, newest first.
func (r *SQLiteRecorder) RecentSpends(limit int) ([]SpendEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, recipient, amount, whitelisted, accepted, reason, balance_after
		FROM spends ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query spends: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SpendEvent
	for rows.Next() {
		var (
			ts                    int64
			recipient, amt, after string
			reason                sql.NullString
			evt                   SpendEvent
		)
		if err := rows.Scan(&ts, &recipient, &amt, &evt.Whitelisted, &evt.Accepted, &reason, &after); err != nil {
			return nil, fmt.Errorf("scan spend: %w", err)
		}
		evt.At = time.Unix(0, ts).UTC()
		evt.Recipient = common.HexToAddress(recipient)
		evt.Reason = reason.String
		var ok bool
		if evt.Amount, ok = new(big.Int).SetString(amt, 10); !ok {
			return nil, fmt.Errorf("bad amount %q", amt)
		}
		if evt.BalanceAfter, ok = new(big.Int).SetString(after, 10); !ok {
			return nil, fmt.Errorf("bad balance %q", after)
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
