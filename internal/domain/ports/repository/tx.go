package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle. Repositories accept nil (run on the
// pool) or a driver transaction started by the TransactionManager.
type Tx = interface{}

// NoTX signals "run outside any transaction".
var NoTX Tx = nil

type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
