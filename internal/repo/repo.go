package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tryst/internal/model"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrDuplicateKey     = errors.New("email already registered")
	ErrStoreUnavailable = errors.New("record store unavailable")
	ErrUnknownKind      = errors.New("unknown record kind")
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Repository is the record store. Records are append-only: there is no update
// or delete path.
type Repository interface {
	CreateContactMessage(ctx context.Context, m *model.ContactMessage) error
	CreateGeneralRegistration(ctx context.Context, r *model.GeneralRegistration) error
	CreateEventRegistration(ctx context.Context, r *model.EventRegistration) error

	ListContactMessages(ctx context.Context) ([]model.ContactMessage, error)
	ListGeneralRegistrations(ctx context.Context) ([]model.GeneralRegistration, error)
	ListEventRegistrations(ctx context.Context) ([]model.EventRegistration, error)

	// EmailExists is the advisory duplicate check. Only the registration kinds
	// carry an email uniqueness constraint.
	EmailExists(ctx context.Context, kind model.Kind, email string) (bool, error)
	Stats(ctx context.Context) (model.Stats, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type Options struct {
	Driver         string
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// New connects the configured backend. The returned repository is meant to be
// created once at startup and closed at shutdown.
func New(ctx context.Context, opts Options, log *zerolog.Logger) (Repository, error) {
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}

	switch opts.Driver {
	case DriverMongo:
		return NewMongoRepository(ctx, opts.URI, opts.Database, log)
	case DriverSQLite, "":
		return NewSQLiteRepository(ctx, opts.URI, log)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", opts.Driver)
	}
}

func validationError(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// stamp returns the creation time for a new record. Millisecond precision
// keeps both backends round-tripping the same value.
func stamp() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
