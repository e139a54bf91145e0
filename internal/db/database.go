// Package db provides PostgreSQL connectivity for scanbridge.
// It handles connection setup, schema migrations and the persistence of
// pending report delivery obligations.
package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/anstrom/scanbridge/internal/errors"
	"github.com/anstrom/scanbridge/internal/logging"
)

// ErrNoRows is returned by repository lookups that match nothing.
var ErrNoRows = sql.ErrNoRows

// sanitizeDBError converts raw database errors into errors that don't expose
// SQL details or credentials. The original error stays in Cause.
func sanitizeDBError(operation string, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		var msg string
		switch pqErr.Code {
		case "23505": // unique_violation
			msg = "obligation already exists"
		case "57014": // query_canceled
			msg = "database operation was canceled"
		case "57P01", "08000", "08003", "08006":
			msg = "database connection error"
		default:
			msg = fmt.Sprintf("database operation failed: %s", operation)
		}
		return errors.WrapDeliveryError(errors.CodeStore, "", msg, err)
	}

	return errors.WrapDeliveryError(errors.CodeStore, "",
		fmt.Sprintf("database operation failed: %s", operation), err)
}

const (
	// Default database configuration values.
	defaultPostgresPort    = 5432
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 2
	defaultConnMaxLifetime = 5
	defaultConnMaxIdleTime = 5
)

// DB wraps sqlx.DB with additional functionality.
type DB struct {
	*sqlx.DB
}

// Config holds database configuration.
type Config struct {
	Host            string        `yaml:"host" json:"host" mapstructure:"host"`
	Port            int           `yaml:"port" json:"port" mapstructure:"port"`
	Database        string        `yaml:"database" json:"database" mapstructure:"database"`
	Username        string        `yaml:"username" json:"username" mapstructure:"username"`
	Password        string        `yaml:"password" json:"password" mapstructure:"password"`
	SSLMode         string        `yaml:"ssl_mode" json:"ssl_mode" mapstructure:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
}

// DefaultConfig returns the default database configuration.
// Database name, username, and password must be explicitly configured.
func DefaultConfig() Config {
	return Config{
		Host:            "localhost",
		Port:            defaultPostgresPort,
		SSLMode:         "disable",
		MaxOpenConns:    defaultMaxOpenConns,
		MaxIdleConns:    defaultMaxIdleConns,
		ConnMaxLifetime: defaultConnMaxLifetime * time.Minute,
		ConnMaxIdleTime: defaultConnMaxIdleTime * time.Minute,
	}
}

// DSN builds the lib/pq key=value connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.Username, c.Password, c.SSLMode,
	)
}

// Connect establishes a connection to PostgreSQL.
// Returns sanitized errors that don't leak credentials or DSN details.
func Connect(ctx context.Context, config *Config) (*DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", config.DSN())
	if err != nil {
		return nil, errors.WrapDeliveryError(errors.CodeStore, "", "failed to connect to database", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.WrapDeliveryError(errors.CodeStore, "", "failed to verify database connection", err)
	}

	logging.Info("connected to database",
		"component", "database", "host", config.Host, "port", config.Port, "database", config.Database)
	return &DB{DB: db}, nil
}

// Ping tests the database connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Obligation is a persisted pending report delivery.
type Obligation struct {
	TaskID    string    `db:"task_id"`
	Recipient string    `db:"recipient"`
	CreatedAt time.Time `db:"created_at"`
}

// ObligationRepository persists delivery obligations in the
// delivery_obligations table.
type ObligationRepository struct {
	db *sqlx.DB
}

// NewObligationRepository creates a new obligation repository.
func NewObligationRepository(db *sqlx.DB) *ObligationRepository {
	return &ObligationRepository{db: db}
}

// Upsert records or replaces the obligation for a task.
func (r *ObligationRepository) Upsert(ctx context.Context, o Obligation) error {
	query := `
		INSERT INTO delivery_obligations (task_id, recipient, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (task_id) DO UPDATE
		SET recipient = EXCLUDED.recipient, created_at = EXCLUDED.created_at`

	if _, err := r.db.ExecContext(ctx, query, o.TaskID, o.Recipient, o.CreatedAt); err != nil {
		return sanitizeDBError("upsert obligation", err)
	}
	return nil
}

// Take deletes the obligation for taskID and returns it. The single DELETE
// statement makes concurrent takers race on the row lock, so at most one of
// them observes the row. Obligations created before notBefore are ignored.
func (r *ObligationRepository) Take(ctx context.Context, taskID string, notBefore time.Time) (Obligation, error) {
	query := `
		DELETE FROM delivery_obligations
		WHERE task_id = $1 AND created_at >= $2
		RETURNING task_id, recipient, created_at`

	var o Obligation
	if err := r.db.QueryRowxContext(ctx, query, taskID, notBefore).StructScan(&o); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return Obligation{}, ErrNoRows
		}
		return Obligation{}, sanitizeDBError("take obligation", err)
	}
	return o, nil
}

// DeleteOlderThan removes obligations created before cutoff.
func (r *ObligationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM delivery_obligations WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, sanitizeDBError("sweep obligations", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, sanitizeDBError("sweep obligations", err)
	}
	return n, nil
}

// Count returns the number of stored obligations.
func (r *ObligationRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM delivery_obligations`); err != nil {
		return 0, sanitizeDBError("count obligations", err)
	}
	return n, nil
}
