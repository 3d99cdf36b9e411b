package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/EpicMandM/rental-calendar/internal/models"
	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dbPath, err := resolveDBPath(path)
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, errors.Join(err, cerr)
		}
		return nil, err
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func resolveDBPath(path string) (string, error) {
	abs := filepath.Clean(path)
	if strings.HasSuffix(abs, ".db") {
		if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
			return "", err
		}
		return abs, nil
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return "", err
	}
	return filepath.Join(abs, "rentals.db"), nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rentals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			customer_name TEXT NOT NULL,
			customer_email TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TEXT NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_rentals_dates ON rentals(start_date, end_date);",
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialise schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateRental validates and inserts rental, filling in its id, creation time
// and, when empty, the default status.
func (s *SQLiteStore) CreateRental(ctx context.Context, rental *models.Rental) error {
	if err := rental.Validate(); err != nil {
		return fmt.Errorf("invalid rental: %w", err)
	}
	if rental.Status == "" {
		rental.Status = models.DefaultRentalStatus
	}
	createdAt := s.now().UTC().Truncate(time.Second)

	res, err := s.db.ExecContext(ctx, `INSERT INTO rentals (customer_name, customer_email, start_date, end_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rental.CustomerName, rental.CustomerEmail,
		rental.StartDate.Format(models.DateLayout), rental.EndDate.Format(models.DateLayout),
		rental.Status, createdAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert rental: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rental.ID = id
	rental.CreatedAt = createdAt
	return nil
}

const rentalColumns = `id, customer_name, customer_email, start_date, end_date, status, created_at`

func (s *SQLiteStore) GetRental(ctx context.Context, id int64) (*models.Rental, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+rentalColumns+` FROM rentals WHERE id = ?`, id)
	rental, err := scanRental(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rental, nil
}

func (s *SQLiteStore) ListRentals(ctx context.Context, from, to time.Time) ([]*models.Rental, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+rentalColumns+` FROM rentals
		WHERE start_date <= ? AND end_date >= ? ORDER BY start_date, id`,
		to.Format(models.DateLayout), from.Format(models.DateLayout))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var rentals []*models.Rental
	for rows.Next() {
		rental, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, rental)
	}
	return rentals, rows.Err()
}

func (s *SQLiteStore) UpdateRentalStatus(ctx context.Context, id int64, status string) error {
	if strings.TrimSpace(status) == "" {
		return fmt.Errorf("status is required")
	}
	res, err := s.db.ExecContext(ctx, `UPDATE rentals SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) CountRentals(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rentals`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRental(sc scanner) (*models.Rental, error) {
	var (
		r                           models.Rental
		startDate, endDate, created string
	)
	if err := sc.Scan(&r.ID, &r.CustomerName, &r.CustomerEmail, &startDate, &endDate, &r.Status, &created); err != nil {
		return nil, err
	}

	var err error
	if r.StartDate, err = time.Parse(models.DateLayout, startDate); err != nil {
		return nil, fmt.Errorf("rental %d: bad start_date: %w", r.ID, err)
	}
	if r.EndDate, err = time.Parse(models.DateLayout, endDate); err != nil {
		return nil, fmt.Errorf("rental %d: bad end_date: %w", r.ID, err)
	}
	if r.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("rental %d: bad created_at: %w", r.ID, err)
	}
	return &r, nil
}
