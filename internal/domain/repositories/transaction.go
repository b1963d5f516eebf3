package repositories

import "context"

// TxFn runs within a transaction; every repository call made through its
// context participates in that transaction.
type TxFn func(ctx context.Context) error

// TransactionManager scopes a function to one database transaction. Each
// top-level hierarchy mutation runs under exactly one ExecTx call.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
