package checkout

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotRecorded is returned by Ledger.Lookup for an authority never verified.
var ErrNotRecorded = errors.New("authority not recorded")

// Verification is the outcome of verifying one payment authority.
type Verification struct {
	Authority  string
	ProfileID  string
	Success    bool
	RefID      string
	OrderID    string
	Message    string
	VerifiedAt time.Time
}

// Ledger remembers verified payment authorities so a repeated gateway callback
// is answered from the record.
type Ledger interface {
	Lookup(ctx context.Context, authority string) (*Verification, error)
	// Record stores v unless the authority is already present. It reports
	// whether this call wrote the row.
	Record(ctx context.Context, v Verification) (bool, error)
}

type SQLiteLedger struct {
	db *sql.DB
}

func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	// sqlite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping ledger database: %w", err)
	}

	l := &SQLiteLedger{db: db}
	if err := l.runMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *SQLiteLedger) runMigrations() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migration source: %w", err)
	}

	driver, err := sqlite.WithInstance(l.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (l *SQLiteLedger) Lookup(ctx context.Context, authority string) (*Verification, error) {
	query := `
		SELECT authority, profile_id, success, ref_id, order_id, message, verified_at
		FROM payment_verifications
		WHERE authority = ?
	`

	var (
		v          Verification
		success    int
		verifiedAt int64
	)
	err := l.db.QueryRowContext(ctx, query, authority).Scan(
		&v.Authority, &v.ProfileID, &success, &v.RefID, &v.OrderID, &v.Message, &verifiedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotRecorded
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up authority: %w", err)
	}

	v.Success = success == 1
	v.VerifiedAt = time.Unix(verifiedAt, 0).UTC()
	return &v, nil
}

func (l *SQLiteLedger) Record(ctx context.Context, v Verification) (bool, error) {
	query := `
		INSERT INTO payment_verifications (authority, profile_id, success, ref_id, order_id, message, verified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(authority) DO NOTHING
	`

	success := 0
	if v.Success {
		success = 1
	}
	res, err := l.db.ExecContext(ctx, query,
		v.Authority, v.ProfileID, success, v.RefID, v.OrderID, v.Message, v.VerifiedAt.Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to record verification: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to record verification: %w", err)
	}
	return n == 1, nil
}

func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

// MemoryLedger keeps verifications for the life of the process.
type MemoryLedger struct {
	mu      sync.Mutex
	records map[string]Verification
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[string]Verification)}
}

func (l *MemoryLedger) Lookup(_ context.Context, authority string) (*Verification, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.records[authority]
	if !ok {
		return nil, ErrNotRecorded
	}
	return &v, nil
}

func (l *MemoryLedger) Record(_ context.Context, v Verification) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.records[v.Authority]; ok {
		return false, nil
	}
	l.records[v.Authority] = v
	return true, nil
}
