package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"tryst/internal/model"
)

const timeLayout = time.RFC3339Nano

const schema = `
CREATE TABLE IF NOT EXISTS contact_message (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	college TEXT NOT NULL,
	course TEXT NOT NULL,
	message TEXT NOT NULL,
	status TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS general_registration (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	phone TEXT NOT NULL,
	college TEXT NOT NULL,
	roll_number TEXT NOT NULL,
	year TEXT NOT NULL,
	course TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS event_registration (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	phone TEXT NOT NULL,
	college TEXT NOT NULL,
	roll_number TEXT NOT NULL,
	event TEXT NOT NULL,
	team_members TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

type sqliteRepository struct {
	db  *sql.DB
	log *zerolog.Logger
}

// NewSQLiteRepository opens dsn with the modernc driver and applies the schema.
// A single connection serialises writes, which also keeps ":memory:" databases
// shared across requests.
func NewSQLiteRepository(ctx context.Context, dsn string, log *zerolog.Logger) (Repository, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite dsn cannot be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	log.Info().Str("dsn", dsn).Msg("SQLite store ready")
	return &sqliteRepository{db: db, log: log}, nil
}

func table(kind model.Kind) (string, error) {
	switch kind {
	case model.KindContact:
		return "contact_message", nil
	case model.KindGeneralRegistration:
		return "general_registration", nil
	case model.KindEventRegistration:
		return "event_registration", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if errors.As(err, &serr) && serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *sqliteRepository) exec(ctx context.Context, tbl, query string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, tbl)
		}
		return unavailable("insert into "+tbl, err)
	}
	return nil
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func (r *sqliteRepository) CreateContactMessage(ctx context.Context, m *model.ContactMessage) error {
	if err := m.Validate(); err != nil {
		return validationError(err)
	}
	id := uuid.NewString()
	now := stamp()
	err := r.exec(ctx, "contact_message",
		`INSERT INTO contact_message (id, name, email, college, course, message, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, m.Name, m.Email, m.College, m.Course, m.Message, nullStr(m.Status),
		now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return err
	}
	m.ID, m.CreatedAt, m.UpdatedAt = id, now, now
	return nil
}

func (r *sqliteRepository) CreateGeneralRegistration(ctx context.Context, reg *model.GeneralRegistration) error {
	if err := reg.Validate(); err != nil {
		return validationError(err)
	}
	id := uuid.NewString()
	now := stamp()
	err := r.exec(ctx, "general_registration",
		`INSERT INTO general_registration (id, name, email, phone, college, roll_number, year, course, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, reg.Name, reg.Email, reg.Phone, reg.College, reg.RollNumber, reg.Year, reg.Course,
		now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return err
	}
	reg.ID, reg.CreatedAt, reg.UpdatedAt = id, now, now
	return nil
}

func (r *sqliteRepository) CreateEventRegistration(ctx context.Context, reg *model.EventRegistration) error {
	if err := reg.Validate(); err != nil {
		return validationError(err)
	}
	id := uuid.NewString()
	now := stamp()
	err := r.exec(ctx, "event_registration",
		`INSERT INTO event_registration (id, name, email, phone, college, roll_number, event, team_members, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, reg.Name, reg.Email, reg.Phone, reg.College, reg.RollNumber, reg.Event, nullStr(reg.TeamMembers),
		now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return err
	}
	reg.ID, reg.CreatedAt, reg.UpdatedAt = id, now, now
	return nil
}

func (r *sqliteRepository) ListContactMessages(ctx context.Context) ([]model.ContactMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, college, course, message, status, created_at, updated_at
		FROM contact_message
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, unavailable("select contact_message", err)
	}
	defer rows.Close()

	out := make([]model.ContactMessage, 0)
	for rows.Next() {
		var (
			m                    model.ContactMessage
			status               sql.NullString
			createdAt, updatedAt string
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.College, &m.Course, &m.Message,
			&status, &createdAt, &updatedAt); err != nil {
			return nil, unavailable("scan contact_message", err)
		}
		m.Status = status.String
		m.CreatedAt, m.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate contact_message", err)
	}
	return out, nil
}

func (r *sqliteRepository) ListGeneralRegistrations(ctx context.Context) ([]model.GeneralRegistration, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, phone, college, roll_number, year, course, created_at, updated_at
		FROM general_registration
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, unavailable("select general_registration", err)
	}
	defer rows.Close()

	out := make([]model.GeneralRegistration, 0)
	for rows.Next() {
		var (
			reg                  model.GeneralRegistration
			createdAt, updatedAt string
		)
		if err := rows.Scan(&reg.ID, &reg.Name, &reg.Email, &reg.Phone, &reg.College,
			&reg.RollNumber, &reg.Year, &reg.Course, &createdAt, &updatedAt); err != nil {
			return nil, unavailable("scan general_registration", err)
		}
		reg.CreatedAt, reg.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate general_registration", err)
	}
	return out, nil
}

func (r *sqliteRepository) ListEventRegistrations(ctx context.Context) ([]model.EventRegistration, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, phone, college, roll_number, event, team_members, created_at, updated_at
		FROM event_registration
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, unavailable("select event_registration", err)
	}
	defer rows.Close()

	out := make([]model.EventRegistration, 0)
	for rows.Next() {
		var (
			reg                  model.EventRegistration
			teamMembers          sql.NullString
			createdAt, updatedAt string
		)
		if err := rows.Scan(&reg.ID, &reg.Name, &reg.Email, &reg.Phone, &reg.College,
			&reg.RollNumber, &reg.Event, &teamMembers, &createdAt, &updatedAt); err != nil {
			return nil, unavailable("scan event_registration", err)
		}
		reg.TeamMembers = teamMembers.String
		reg.CreatedAt, reg.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate event_registration", err)
	}
	return out, nil
}

func (r *sqliteRepository) EmailExists(ctx context.Context, kind model.Kind, email string) (bool, error) {
	if kind == model.KindContact {
		return false, fmt.Errorf("%w: %q has no email constraint", ErrUnknownKind, kind)
	}
	tbl, err := table(kind)
	if err != nil {
		return false, err
	}
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM ` + tbl + ` WHERE email = ?)`
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, unavailable("lookup email in "+tbl, err)
	}
	return exists, nil
}

func (r *sqliteRepository) Stats(ctx context.Context) (model.Stats, error) {
	var s model.Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM contact_message),
			(SELECT COUNT(*) FROM general_registration),
			(SELECT COUNT(*) FROM event_registration),
			(SELECT COUNT(*) FROM contact_message WHERE status IS NULL OR status = '' OR status = 'new')
	`).Scan(&s.TotalContacts, &s.TotalRegistrations, &s.TotalEventRegistrations, &s.NewContacts)
	if err != nil {
		return model.Stats{}, unavailable("count records", err)
	}
	return s, nil
}

func (r *sqliteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (r *sqliteRepository) Close(_ context.Context) error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	r.log.Info().Msg("SQLite store closed")
	return nil
}
