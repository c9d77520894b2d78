package repository

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TxRunner runs multi-step writes inside one transaction at a fixed isolation level.
type TxRunner struct {
	db   *gorm.DB
	opts *sql.TxOptions
}

// NewTxRunner uses isolation for every transaction; sql.LevelDefault leaves
// the driver default in place (SQLite rejects explicit levels).
func NewTxRunner(db *gorm.DB, isolation sql.IsolationLevel) *TxRunner {
	r := &TxRunner{db: db}
	if isolation != sql.LevelDefault {
		r.opts = &sql.TxOptions{Isolation: isolation}
	}
	return r
}

// Run commits when fn returns nil and rolls back otherwise.
func (r *TxRunner) Run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if r.opts == nil {
		return r.db.WithContext(ctx).Transaction(fn)
	}
	return r.db.WithContext(ctx).Transaction(fn, r.opts)
}

// conn returns tx when the caller is inside a transaction, the pool otherwise.
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

func forUpdate(q *gorm.DB) *gorm.DB {
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}

// IsNotFound reports whether err is gorm's record-not-found.
func IsNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

func paginate(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return (page - 1) * limit, limit
}
