package sqldb

import (
	"context"
	"database/sql"
	"time"

	"community-feed-backend/internal/util"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// querier 由 *sql.DB 和 *sql.Tx 共同实现
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB 包装连接池和方言，所有仓库共用
type DB struct {
	*sql.DB
	dialect Dialect
}

// Open 打开数据库并配置连接池
func Open(driver, dsn string, maxOpenConns int) (*DB, error) {
	dialect, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	if dialect == SQLite {
		// SQLite 只有一个写者，单连接避免 SQLITE_BUSY
		db.SetMaxOpenConns(1)
	} else {
		if maxOpenConns <= 0 {
			maxOpenConns = 25
		}
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	util.Logger.Info("数据库连接池配置完成",
		zap.String("driver", driver),
		zap.Int("max_open_conns", db.Stats().MaxOpenConnections))
	return &DB{DB: db, dialect: dialect}, nil
}

// Dialect 返回当前方言
func (db *DB) Dialect() Dialect {
	return db.dialect
}

func (db *DB) exec(ctx context.Context, q querier, query string, args ...interface{}) (sql.Result, error) {
	return q.ExecContext(ctx, db.dialect.Rebind(query), args...)
}

func (db *DB) query(ctx context.Context, q querier, query string, args ...interface{}) (*sql.Rows, error) {
	return q.QueryContext(ctx, db.dialect.Rebind(query), args...)
}

func (db *DB) queryRow(ctx context.Context, q querier, query string, args ...interface{}) *sql.Row {
	return q.QueryRowContext(ctx, db.dialect.Rebind(query), args...)
}

// insertID 执行 INSERT 并返回自增主键；pgx 不支持 LastInsertId，改用 RETURNING
func (db *DB) insertID(ctx context.Context, q querier, query string, args ...interface{}) (int, error) {
	if db.dialect == Postgres {
		var id int
		err := db.queryRow(ctx, q, query+" RETURNING id", args...).Scan(&id)
		return id, err
	}
	result, err := db.exec(ctx, q, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	return int(id), err
}

// withTx 在事务中执行 fn，fn 返回错误时回滚
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit transaction")
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
