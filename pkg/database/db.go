package database

import (
	"context"
	"database/sql"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
)

// Querier is satisfied by both DB and Tx so read paths can run inside or outside a transaction.
type Querier interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// DB is a connection pool whose transactions travel on the context, so a repository
// called inside another repository's transaction joins it instead of opening its own.
type DB interface {
	Querier
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, Tx, error)
	PingContext(ctx context.Context) error
	DriverName() string
	Close() error
}

type Pool struct {
	*sqlx.DB
	logger ectologger.Logger
}

func NewPool(db *sqlx.DB, logger ectologger.Logger) DB {
	return &Pool{
		DB:     db,
		logger: logger,
	}
}

func (p *Pool) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, Tx, error) {
	return GetTx(ctx, p.logger, p, opts)
}

// QuerierFrom returns the open transaction carried by ctx, or db when there is none.
// Reads made through it see the caller's uncommitted writes.
func QuerierFrom(ctx context.Context, db DB) Querier {
	if tx, ok := ctx.Value(txKey).(*Transaction); ok && tx != nil && tx.IsOpen() {
		return tx
	}
	return db
}
