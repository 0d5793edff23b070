package direct

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// Lockout defaults. Five bad passwords inside the window lock the
// account out for blockFor.
const (
	lockoutWindow   = 15 * time.Minute
	lockoutMaxFails = 5
	lockoutBlockFor = 15 * time.Minute
)

// Lockout applies a sliding-window login lockout per email.
type Lockout struct {
	db       *DB
	window   time.Duration
	maxFails int
	blockFor time.Duration
}

// NewLockout constructs a lockout with the package defaults.
func NewLockout(db *DB) *Lockout {
	return &Lockout{db: db, window: lockoutWindow, maxFails: lockoutMaxFails, blockFor: lockoutBlockFor}
}

// Allow reports whether login is currently allowed and a retry-after duration.
func (l *Lockout) Allow(ctx context.Context, email string) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM login_lockout WHERE email=$1`
	var blockedUntil time.Time
	err := l.db.Pool.QueryRow(ctx, q, email).Scan(&blockedUntil)
	switch err {
	case nil:
		if blockedUntil.After(time.Now()) {
			return false, time.Until(blockedUntil), nil
		}
		return true, 0, nil
	case pgx.ErrNoRows:
		return true, 0, nil
	default:
		return false, 0, err
	}
}

// Success resets counters for the email.
func (l *Lockout) Success(ctx context.Context, email string) error {
	const q = `
INSERT INTO login_lockout (email, fail_count, blocked_until, updated_at)
VALUES ($1,0,'epoch',now())
ON CONFLICT (email)
DO UPDATE SET fail_count=0, blocked_until='epoch', updated_at=now()`
	_, err := l.db.Pool.Exec(ctx, q, email)
	return err
}

// Failure records a failed attempt; reaching the threshold inside the
// window places a temporary block.
func (l *Lockout) Failure(ctx context.Context, email string) (bool, time.Duration, error) {
	const q = `
INSERT INTO login_lockout (email, fail_count, blocked_until, updated_at)
VALUES ($1,1,'epoch',now())
ON CONFLICT (email) DO UPDATE
SET
  fail_count = CASE WHEN EXCLUDED.updated_at - login_lockout.updated_at > $2::interval THEN 1 ELSE login_lockout.fail_count + 1 END,
  updated_at = now()
RETURNING fail_count`
	var fails int
	if err := l.db.Pool.QueryRow(ctx, q, email, l.window).Scan(&fails); err != nil {
		return false, 0, err
	}
	if fails >= l.maxFails {
		blockUntil := time.Now().Add(l.blockFor)
		const upd = `UPDATE login_lockout SET blocked_until=$2 WHERE email=$1`
		if _, err := l.db.Pool.Exec(ctx, upd, email, blockUntil); err != nil {
			return false, 0, err
		}
		return true, l.blockFor, nil
	}
	return false, 0, nil
}
