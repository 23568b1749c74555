package orm

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/startdusk/dbkit/orm/mapping"
	"github.com/startdusk/dbkit/orm/model"
)

var (
	_ Session = &DB{}
)

// DefaultBatchSize 批量操作默认每一批的行数
const DefaultBatchSize = 10

//go:generate mockgen -source=db.go -destination=mocks/conn.go -package=mocks Conn

// Conn 执行语句的连接
// *sql.DB, *sql.Conn 和 *sql.Tx 都实现了这个接口
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type DBOption func(db *DB)

type DB struct {
	core
	// db 只有 Open 和 OpenDB 打开的才有, 开启事务需要用到
	db   *sql.DB
	conn Conn

	useReflect    bool
	stmtCacheSize int
}

func (db *DB) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, query, args...)
}

func (db *DB) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.conn.ExecContext(ctx, query, args...)
}

func (db *DB) getCore() core {
	return db.core
}

// Close 关闭底层的 *sql.DB, OpenConn 打开的连接由调用方自己关闭
func (db *DB) Close() error {
	if db.db == nil {
		return nil
	}
	return db.db.Close()
}

func Open(driver string, dataSourceName string, opts ...DBOption) (*DB, error) {
	db, err := sql.Open(driver, dataSourceName)
	if err != nil {
		return nil, err
	}

	return OpenDB(db, opts...)
}

func OpenDB(db *sql.DB, opts ...DBOption) (*DB, error) {
	newDB, err := OpenConn(db, opts...)
	if err != nil {
		return nil, err
	}
	newDB.db = db
	return newDB, nil
}

// OpenConn 使用自定义的连接, 例如 *sql.Conn 或者测试里面的 mock
// 这种情况下不支持 BeginTx
func OpenConn(conn Conn, opts ...DBOption) (*DB, error) {
	newDB := &DB{
		core: core{
			r:         model.Default(),
			dialect:   DialectMySQL,
			logger:    zap.NewNop(),
			batchSize: DefaultBatchSize,
		},
		conn:          conn,
		stmtCacheSize: defaultStatementCacheSize,
	}

	for _, opt := range opts {
		opt(newDB)
	}

	if newDB.compiler == nil {
		newDB.compiler = newDB.newCompiler()
	}
	stmts, err := newStatementCache(newDB.stmtCacheSize)
	if err != nil {
		return nil, err
	}
	newDB.stmts = stmts
	return newDB, nil
}

// newCompiler 默认的注册中心共用进程级别的映射缓存
func (db *DB) newCompiler() *mapping.Compiler {
	if db.r == model.Default() && !db.useReflect {
		return mapping.Default()
	}
	opts := []mapping.CompilerOption{mapping.CompilerWithLogger(db.logger)}
	if db.useReflect {
		opts = append(opts, mapping.CompilerUseReflect())
	}
	return mapping.NewCompiler(db.r, opts...)
}

func MustOpenDB(db *sql.DB, opts ...DBOption) *DB {
	newDB, err := OpenDB(db, opts...)
	if err != nil {
		panic(err)
	}
	return newDB
}

func MustOpen(driver string, dataSourceName string, opts ...DBOption) *DB {
	newDB, err := Open(driver, dataSourceName, opts...)
	if err != nil {
		panic(err)
	}
	return newDB
}

func DBUseReflect() DBOption {
	return func(db *DB) {
		db.useReflect = true
	}
}

func DBWithRegistry(r model.Registry) DBOption {
	return func(db *DB) {
		db.r = r
	}
}

// DBWithCompiler 映射器缓存, 它的注册中心会覆盖 DBWithRegistry
func DBWithCompiler(c *mapping.Compiler) DBOption {
	return func(db *DB) {
		db.compiler = c
		db.r = c.Registry()
	}
}

func DBWithDialect(dialect Dialect) DBOption {
	return func(db *DB) {
		db.dialect = dialect
	}
}

func DBWithLogger(logger *zap.Logger) DBOption {
	return func(db *DB) {
		db.logger = logger
	}
}

func DBWithMiddlewares(mdls ...Middleware) DBOption {
	return func(db *DB) {
		db.mdls = mdls
	}
}

// DBWithBatchSize 批量操作每一批的行数, 小于等于 0 的时候使用 DefaultBatchSize
func DBWithBatchSize(size int) DBOption {
	return func(db *DB) {
		if size <= 0 {
			size = DefaultBatchSize
		}
		db.batchSize = size
	}
}

// DBWithStatementCacheSize 语句缓存的容量, 0 表示不缓存
func DBWithStatementCacheSize(size int) DBOption {
	return func(db *DB) {
		db.stmtCacheSize = size
	}
}
