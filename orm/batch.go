package orm

import (
	"context"

	"go.uber.org/zap"

	"github.com/startdusk/dbkit/orm/internal/errs"
	"github.com/startdusk/dbkit/orm/model"
)

// Batcher 把实体切成连续的若干批, 每一批生成一条多行语句, 按顺序执行
//
// 中途失败的时候不会重试, 也不会回滚已经执行的批次,
// 需要原子性的话在事务里面调用
type Batcher[T any] struct {
	core
	sess Session

	size       int
	columns    []string
	qualifiers []string
}

func NewBatcher[T any](sess Session) *Batcher[T] {
	c := sess.getCore()
	return &Batcher[T]{
		core: c,
		sess: sess,
		size: c.batchSize,
	}
}

// Size 每一批的行数, 小于等于 0 的时候使用 DB 的配置
func (b *Batcher[T]) Size(n int) *Batcher[T] {
	if n <= 0 {
		n = b.batchSize
	}
	b.size = n
	return b
}

// Columns INSERT/MERGE 插入的列, UPDATE 更新的列
func (b *Batcher[T]) Columns(cols ...string) *Batcher[T] {
	b.columns = cols
	return b
}

// Qualifiers MERGE/UPDATE/DELETE 定位数据的字段, 默认主键
func (b *Batcher[T]) Qualifiers(fields ...string) *Batcher[T] {
	b.qualifiers = fields
	return b
}

// Exec 返回数据库确认的影响行数
// 出错的时候返回出错之前已经完成的批次的影响行数
func (b *Batcher[T]) Exec(ctx context.Context, kind StatementKind, entities []*T) (int64, error) {
	m, err := b.r.Get(new(T))
	if err != nil {
		return 0, err
	}
	size := b.size
	if size <= 0 {
		size = DefaultBatchSize
	}

	var total int64
	for start, chunk := 0, 0; start < len(entities); start, chunk = start+size, chunk+1 {
		end := min(start+size, len(entities))
		stmt, err := b.statement(m, kind, entities[start:end])
		if err != nil {
			return total, err
		}
		q, err := b.stmts.compile(b.dialect, stmt)
		if err != nil {
			return total, err
		}
		res := exec(ctx, b.sess, b.core, &QueryContext{
			Type:    kind.String(),
			Builder: staticQuery{q: q},
			Model:   m,
			Table:   m.TableName,
		})
		affected, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += affected
		b.logger.Debug("orm: 批量执行",
			zap.String("type", kind.String()),
			zap.Int("chunk", chunk),
			zap.Int("rows", end-start),
			zap.Int64("affected", affected),
			zap.Int64("total", total))
	}
	return total, nil
}

func (b *Batcher[T]) statement(m *model.Model, kind StatementKind, chunk []*T) (Statement, error) {
	switch kind {
	case KindInsert, KindMerge:
		return writeStatement[T](b.core, m, kind, b.columns, b.qualifiers, chunk)
	case KindUpdate:
		return b.updateStatement(m, chunk)
	case KindDelete:
		return deleteStatement[T](b.core, m, b.qualifiers, chunk)
	}
	return Statement{}, errs.NewErrUnknownStatementKind(kind)
}

// updateStatement 限定字段放在每一行的末尾
func (b *Batcher[T]) updateStatement(m *model.Model, chunk []*T) (Statement, error) {
	keys, err := keyFields(m, b.qualifiers)
	if err != nil {
		return Statement{}, err
	}
	var fields []*model.Field
	if len(b.columns) > 0 {
		fields, err = modelFields(m, b.columns)
		if err != nil {
			return Statement{}, err
		}
	} else {
		exclude := make([]*model.Field, 0, len(keys)+1)
		exclude = append(exclude, keys...)
		exclude = append(exclude, m.PrimaryKeys()...)
		fields = writableFields(m, exclude)
	}
	if len(fields) == 0 {
		return Statement{}, errs.NewErrEmptyFieldSet(m.TableName)
	}
	all := make([]*model.Field, 0, len(fields)+len(keys))
	all = append(all, fields...)
	all = append(all, keys...)
	rows, err := entityRows[T](b.core, chunk, all)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		Kind:       KindUpdate,
		Model:      m,
		Fields:     toFields(fields),
		Qualifiers: toFields(keys),
		Rows:       rows,
	}, nil
}

// InsertAll 使用默认的批量大小插入
func InsertAll[T any](ctx context.Context, sess Session, entities []*T) (int64, error) {
	return NewBatcher[T](sess).Exec(ctx, KindInsert, entities)
}

// MergeAll 使用默认的批量大小插入或者更新
func MergeAll[T any](ctx context.Context, sess Session, entities []*T) (int64, error) {
	return NewBatcher[T](sess).Exec(ctx, KindMerge, entities)
}

// UpdateAll 按主键更新
func UpdateAll[T any](ctx context.Context, sess Session, entities []*T) (int64, error) {
	return NewBatcher[T](sess).Exec(ctx, KindUpdate, entities)
}

// DeleteAll 按主键删除
func DeleteAll[T any](ctx context.Context, sess Session, entities []*T) (int64, error) {
	return NewBatcher[T](sess).Exec(ctx, KindDelete, entities)
}
