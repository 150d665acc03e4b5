package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bookloop/bookloop-ui-api/internal/data/pgxutil"
	"github.com/bookloop/bookloop-ui-api/internal/ports"
)

// AuthEventRepo persists authentication lifecycle audit events.
// It implements ports.AuthEventRecorder; write failures are surfaced to the
// caller, which logs and continues rather than failing the auth operation.
type AuthEventRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewAuthEventRepo creates a new AuthEventRepo with the given database connection.
func NewAuthEventRepo(db *sql.DB) *AuthEventRepo {
	return &AuthEventRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewAuthEventRepoWithTimeProvider creates an AuthEventRepo with a custom time provider.
func NewAuthEventRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *AuthEventRepo {
	return &AuthEventRepo{DB: db, timeProvider: tp}
}

var _ ports.AuthEventRecorder = (*AuthEventRepo)(nil)

const authEventColumns = `id, identity_id, email, kind, detail, created_at`

// StoredAuthEvent is an audit row as read back from the database.
type StoredAuthEvent struct {
	ID         string    `db:"id"`
	IdentityID string    `db:"identity_id"`
	Email      string    `db:"email"`
	Kind       string    `db:"kind"`
	Detail     string    `db:"detail"`
	CreatedAt  time.Time `db:"created_at"`
}

// Record inserts an audit event row.
func (r *AuthEventRepo) Record(ctx context.Context, ev ports.AuthEvent) error {
	if strings.TrimSpace(ev.Kind) == "" {
		return errors.New("event kind is required")
	}

	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO auth_events (identity_id, email, kind, detail, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, ev.IdentityID, ev.Email, ev.Kind, ev.Detail, r.timeProvider.Now().UTC())
		return err
	}); err != nil {
		return fmt.Errorf("record auth event: %w", MapDBError(err))
	}
	return nil
}

// AuthEventListOptions filters ListRecent.
type AuthEventListOptions struct {
	IdentityID string
	Kind       string
	Limit      int
}

// ListRecent returns the newest audit events matching the filters.
func (r *AuthEventRepo) ListRecent(ctx context.Context, opts AuthEventListOptions) ([]StoredAuthEvent, error) {
	conditions := make([]string, 0, 2)
	args := make([]any, 0, 3)
	next := func() int { return len(args) + 1 }
	if opts.IdentityID != "" {
		conditions = append(conditions, fmt.Sprintf("identity_id = $%d", next()))
		args = append(args, opts.IdentityID)
	}
	if opts.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", next()))
		args = append(args, opts.Kind)
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)

	query := `SELECT ` + authEventColumns + ` FROM auth_events ` + where +
		fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args))

	var out []StoredAuthEvent
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[StoredAuthEvent])
		return err
	}); err != nil {
		return nil, fmt.Errorf("list auth events: %w", MapDBError(err))
	}
	return out, nil
}

// PurgeOlderThan deletes audit rows past the retention window. Returns the
// number of rows removed.
func (r *AuthEventRepo) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, errors.New("retention days must be positive")
	}
	var removed int64
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx,
			`DELETE FROM auth_events WHERE created_at < now() - make_interval(days => $1)`, days)
		if err != nil {
			return err
		}
		removed = ct.RowsAffected()
		return nil
	}); err != nil {
		return 0, fmt.Errorf("purge auth events: %w", MapDBError(err))
	}
	return removed, nil
}
