package database

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/cockroach-go/v2/crdb/crdbgorm"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TransactionFunc runs fn in a database transaction, committing when fn returns nil.
type TransactionFunc func(
	ctx context.Context, fn func(tx *gorm.DB) error, opts ...*sql.TxOptions,
) error

func Silent(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{
		Logger: db.Logger.LogMode(logger.Silent),
	})
}

type Dialect int

const (
	DialectSqlLite Dialect = iota
	DialectPostgreSQL
	DialectCockroachDB
)

func (d Dialect) String() string {
	switch d {
	case DialectPostgreSQL:
		return "postgresql"
	case DialectCockroachDB:
		return "cockroachdb"
	default:
		return "sqlite"
	}
}

// GetTransactionFunc detects the database flavor behind db and returns the
// transaction runner suited to it. CockroachDB transactions are retried by
// crdbgorm when the server asks the client to retry.
func GetTransactionFunc(db *gorm.DB) (TransactionFunc, Dialect, error) {
	dialect := DialectSqlLite
	if db.Dialector.Name() == "postgres" {
		version := ""
		if err := Silent(db).Raw("SELECT version()").Scan(&version).Error; err != nil {
			return nil, dialect, err
		}
		dialect = DialectPostgreSQL
		if strings.HasPrefix(version, "CockroachDB") {
			dialect = DialectCockroachDB
		}
	}

	txOptions := func(opts []*sql.TxOptions) *sql.TxOptions {
		if len(opts) > 0 {
			return opts[0]
		}
		return nil
	}

	if dialect == DialectCockroachDB {
		return func(ctx context.Context, fn func(tx *gorm.DB) error, opts ...*sql.TxOptions) error {
			return crdbgorm.ExecuteTx(ctx, db, txOptions(opts), fn)
		}, dialect, nil
	}
	return func(ctx context.Context, fn func(tx *gorm.DB) error, opts ...*sql.TxOptions) error {
		return db.WithContext(ctx).Transaction(fn, txOptions(opts))
	}, dialect, nil
}
