package orm

import (
	"database/sql"
	"strconv"
)

var (
	DialectMySQL      Dialect = &mysqlDialect{}
	DialectPostgreSQL Dialect = &postgreDialect{}
	DialectSQLite     Dialect = &sqliteDialect{}
	DialectSQLServer  Dialect = &sqlserverDialect{}
)

// Dialect 方言
// 主要面向 MySQL, 其它方言只覆盖差异的部分
type Dialect interface {
	// Name 方言名字, 也用在语句缓存的键里面
	Name() string

	// quoter 就是为了解决引号问题
	// MySQL 反引号 `
	// PostgreSQL 是双引号
	// SQL Server 是方括号
	quoter() (byte, byte)
	// placeholder 写入占位符, 调用的时候参数已经加入了 b.args
	placeholder(b *builder, name string)
	// bindArg 使用命名参数的方言返回 sql.NamedArg
	bindArg(name string, val any) any

	// topPrefix 和 limitSuffix 只有一个会生效
	topPrefix(b *builder, top int)
	limitSuffix(b *builder, top int)
	hints(b *builder, hints string)

	buildMerge(b *builder, m *mergeClause) error
	buildTruncate(b *builder, table string)
}

// mergeClause 插入或者更新
type mergeClause struct {
	table string
	hints string
	cols  []string
	keys  []string
	rows  [][]any
}

// updateCols 除去限定字段之外的列
func (m *mergeClause) updateCols() []string {
	res := make([]string, 0, len(m.cols))
	for _, col := range m.cols {
		isKey := false
		for _, key := range m.keys {
			if key == col {
				isKey = true
				break
			}
		}
		if !isKey {
			res = append(res, col)
		}
	}
	return res
}

type standardSQL struct{}

func (d standardSQL) Name() string {
	return "standard"
}

func (d standardSQL) quoter() (byte, byte) {
	return '"', '"'
}

func (d standardSQL) placeholder(b *builder, name string) {
	b.sb.WriteByte('?')
}

func (d standardSQL) bindArg(name string, val any) any {
	return val
}

func (d standardSQL) topPrefix(b *builder, top int) {}

func (d standardSQL) limitSuffix(b *builder, top int) {
	b.sb.WriteString(" LIMIT ")
	b.sb.WriteString(strconv.Itoa(top))
}

func (d standardSQL) hints(b *builder, hints string) {}

// buildMerge INSERT ... ON CONFLICT(...) DO UPDATE SET
func (d standardSQL) buildMerge(b *builder, m *mergeClause) error {
	if err := buildInsertValues(b, m.table, m.cols, m.rows); err != nil {
		return err
	}
	b.sb.WriteString(" ON CONFLICT (")
	b.buildColumnList(m.keys)
	b.sb.WriteByte(')')
	cols := m.updateCols()
	if len(cols) == 0 {
		b.sb.WriteString(" DO NOTHING")
		return nil
	}
	b.sb.WriteString(" DO UPDATE SET ")
	for i, col := range cols {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.quote(col)
		b.sb.WriteString(" = excluded.")
		b.quote(col)
	}
	return nil
}

func (d standardSQL) buildTruncate(b *builder, table string) {
	b.sb.WriteString("TRUNCATE TABLE ")
	b.quote(table)
}

type mysqlDialect struct {
	standardSQL
}

func (d mysqlDialect) Name() string {
	return "mysql"
}

func (d mysqlDialect) quoter() (byte, byte) {
	return '`', '`'
}

// buildMerge MySQL 依赖唯一索引, 所以限定字段只用来排除更新的列
func (d mysqlDialect) buildMerge(b *builder, m *mergeClause) error {
	if err := buildInsertValues(b, m.table, m.cols, m.rows); err != nil {
		return err
	}
	b.sb.WriteString(" ON DUPLICATE KEY UPDATE ")
	cols := m.updateCols()
	if len(cols) == 0 {
		// 全部都是限定字段, 什么都不更新
		b.quote(m.keys[0])
		b.sb.WriteString(" = ")
		b.quote(m.keys[0])
		return nil
	}
	for i, col := range cols {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.quote(col)
		b.sb.WriteString(" = VALUES(")
		b.quote(col)
		b.sb.WriteByte(')')
	}
	return nil
}

type sqliteDialect struct {
	standardSQL
}

func (d sqliteDialect) Name() string {
	return "sqlite"
}

func (d sqliteDialect) quoter() (byte, byte) {
	return '`', '`'
}

func (d sqliteDialect) placeholder(b *builder, name string) {
	b.sb.WriteByte('@')
	b.sb.WriteString(name)
}

func (d sqliteDialect) bindArg(name string, val any) any {
	return sql.Named(name, val)
}

// buildTruncate SQLite 没有 TRUNCATE
func (d sqliteDialect) buildTruncate(b *builder, table string) {
	b.sb.WriteString("DELETE FROM ")
	b.quote(table)
}

type postgreDialect struct {
	standardSQL
}

func (d postgreDialect) Name() string {
	return "postgres"
}

func (d postgreDialect) placeholder(b *builder, name string) {
	b.sb.WriteByte('$')
	b.sb.WriteString(strconv.Itoa(len(b.args)))
}

type sqlserverDialect struct {
	standardSQL
}

func (d sqlserverDialect) Name() string {
	return "sqlserver"
}

func (d sqlserverDialect) quoter() (byte, byte) {
	return '[', ']'
}

func (d sqlserverDialect) placeholder(b *builder, name string) {
	b.sb.WriteByte('@')
	b.sb.WriteString(name)
}

func (d sqlserverDialect) bindArg(name string, val any) any {
	return sql.Named(name, val)
}

func (d sqlserverDialect) topPrefix(b *builder, top int) {
	b.sb.WriteString("TOP (")
	b.sb.WriteString(strconv.Itoa(top))
	b.sb.WriteString(") ")
}

func (d sqlserverDialect) limitSuffix(b *builder, top int) {}

func (d sqlserverDialect) hints(b *builder, hints string) {
	if hints == "" {
		return
	}
	b.sb.WriteString(" WITH (")
	b.sb.WriteString(hints)
	b.sb.WriteByte(')')
}

// buildMerge
// MERGE [t] AS T USING (VALUES (@a, @b)) AS S ([a], [b]) ON (T.[a] = S.[a])
// WHEN MATCHED THEN UPDATE SET ... WHEN NOT MATCHED THEN INSERT ... VALUES ...
func (d sqlserverDialect) buildMerge(b *builder, m *mergeClause) error {
	b.sb.WriteString("MERGE ")
	b.quote(m.table)
	d.hints(b, m.hints)
	b.sb.WriteString(" AS T USING (VALUES ")
	if err := b.buildValues(m.cols, m.rows); err != nil {
		return err
	}
	b.sb.WriteString(") AS S (")
	b.buildColumnList(m.cols)
	b.sb.WriteString(") ON (")
	for i, key := range m.keys {
		if i > 0 {
			b.sb.WriteString(" AND ")
		}
		b.sb.WriteString("T.")
		b.quote(key)
		b.sb.WriteString(" = S.")
		b.quote(key)
	}
	b.sb.WriteByte(')')
	if cols := m.updateCols(); len(cols) > 0 {
		b.sb.WriteString(" WHEN MATCHED THEN UPDATE SET ")
		for i, col := range cols {
			if i > 0 {
				b.sb.WriteString(", ")
			}
			b.sb.WriteString("T.")
			b.quote(col)
			b.sb.WriteString(" = S.")
			b.quote(col)
		}
	}
	b.sb.WriteString(" WHEN NOT MATCHED THEN INSERT (")
	b.buildColumnList(m.cols)
	b.sb.WriteString(") VALUES (")
	for i, col := range m.cols {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.sb.WriteString("S.")
		b.quote(col)
	}
	b.sb.WriteByte(')')
	return nil
}

// buildInsertValues INSERT INTO `t` (`a`, `b`) VALUES (?, ?)
func buildInsertValues(b *builder, table string, cols []string, rows [][]any) error {
	b.sb.WriteString("INSERT INTO ")
	b.quote(table)
	b.sb.WriteString(" (")
	b.buildColumnList(cols)
	b.sb.WriteString(") VALUES ")
	return b.buildValues(cols, rows)
}
