package leads

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type leadRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Email       string `db:"email"`
	Phone       string `db:"phone"`
	City        string `db:"city"`
	ZipCode     string `db:"zip_code"`
	ServiceType string `db:"service_type"`
	Bedrooms    int    `db:"bedrooms"`
	Bathrooms   int    `db:"bathrooms"`
	Frequency   string `db:"frequency"`
	PriceQuote  int    `db:"price_quote"`
	Status      string `db:"status"`
	Notes       string `db:"notes"`
	CreatedAt   string `db:"created_at"`
}

func toRow(l Lead) leadRow {
	return leadRow{
		ID:          l.ID.String(),
		Name:        l.Name,
		Email:       l.Email,
		Phone:       l.Phone,
		City:        l.City,
		ZipCode:     l.ZipCode,
		ServiceType: l.ServiceType,
		Bedrooms:    l.Bedrooms,
		Bathrooms:   l.Bathrooms,
		Frequency:   l.Frequency,
		PriceQuote:  l.PriceQuote,
		Status:      string(l.Status),
		Notes:       l.Notes,
		CreatedAt:   l.CreatedAt.UTC().Format(timeLayout),
	}
}

func (r leadRow) lead() (Lead, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return Lead{}, fmt.Errorf("leads: parse id %q: %w", r.ID, err)
	}
	created, err := time.Parse(timeLayout, r.CreatedAt)
	if err != nil {
		return Lead{}, fmt.Errorf("leads: parse created_at %q: %w", r.CreatedAt, err)
	}
	return Lead{
		ID:          id,
		Name:        r.Name,
		Email:       r.Email,
		Phone:       r.Phone,
		City:        r.City,
		ZipCode:     r.ZipCode,
		ServiceType: r.ServiceType,
		Bedrooms:    r.Bedrooms,
		Bathrooms:   r.Bathrooms,
		Frequency:   r.Frequency,
		PriceQuote:  r.PriceQuote,
		Status:      Status(r.Status),
		Notes:       r.Notes,
		CreatedAt:   created,
	}, nil
}

// SQLiteStore keeps leads in a SQLite file.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path and applies pending
// migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite", fmt.Sprintf("%s?_journal=WAL&_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("leads: connecting to db: %w", err)
	}
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		db.Close()
		return nil, fmt.Errorf("leads: setting migration dialect: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("leads: applying migrations: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Add(ctx context.Context, lead Lead) (Lead, error) {
	lead = prepare(lead, s.now())
	if err := validStatus(lead.Status); err != nil {
		return Lead{}, err
	}
	query := `INSERT INTO leads (id, name, email, phone, city, zip_code, service_type, bedrooms, bathrooms,
		frequency, price_quote, status, notes, created_at)
		VALUES (:id, :name, :email, :phone, :city, :zip_code, :service_type, :bedrooms, :bathrooms,
		:frequency, :price_quote, :status, :notes, :created_at)`
	if _, err := s.db.NamedExecContext(ctx, query, toRow(lead)); err != nil {
		return Lead{}, fmt.Errorf("leads: inserting %s: %w", lead.ID, err)
	}
	return lead, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Lead, error) {
	var rows []leadRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM leads ORDER BY created_at DESC, id`); err != nil {
		return nil, fmt.Errorf("leads: listing: %w", err)
	}
	out := make([]Lead, 0, len(rows))
	for _, row := range rows {
		lead, err := row.lead()
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	return out, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (Lead, error) {
	var row leadRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM leads WHERE id = ?`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("leads: getting %s: %w", id, err)
	}
	return row.lead()
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if err := validStatus(status); err != nil {
		return err
	}
	return s.exec(ctx, id, `UPDATE leads SET status = ? WHERE id = ?`, string(status), id.String())
}

func (s *SQLiteStore) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	return s.exec(ctx, id, `UPDATE leads SET notes = ? WHERE id = ?`, notes, id.String())
}

func (s *SQLiteStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.exec(ctx, id, `DELETE FROM leads WHERE id = ?`, id.String())
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("leads: closing db: %w", err)
	}
	return nil
}

func (s *SQLiteStore) exec(ctx context.Context, id uuid.UUID, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("leads: updating %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("leads: updating %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
