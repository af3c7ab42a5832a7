// Package repository implements the lockdown engine's collaborators on gorm.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/zaqqye/seb_exam_gate/internal/lockdown"
)

const DefaultTimeout = 3 * time.Second

type base struct {
	db      *gorm.DB
	timeout time.Duration
}

func newBase(db *gorm.DB, timeout time.Duration) base {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return base{db: db, timeout: timeout}
}

// with bounds one store call by the configured timeout.
func (b base) with(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	return b.db.WithContext(ctx), cancel
}

// wrap turns a driver error into lockdown.ErrStoreUnavailable.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		log.Printf("%s: postgres %s: %s", op, pgErr.Code, pgErr.Message)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: timed out", lockdown.ErrStoreUnavailable, op)
	}
	return fmt.Errorf("%w: %s: %v", lockdown.ErrStoreUnavailable, op, err)
}

// IsUniqueViolation reports a postgres unique_violation (23505), or the
// translated gorm error when the dialector translates errors.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
