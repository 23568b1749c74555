package orm

import (
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultStatementCacheSize = 512

// statementCache 缓存按实体生成的语句文本
// 只缓存 SQL 和占位符名字, 参数每次都按照行重新绑定
// 没有 WHERE 条件的 INSERT/MERGE/DELETE 和单行 UPDATE 才会进缓存, 它们的参数顺序就是行的顺序
type statementCache struct {
	cache *lru.Cache[string, *Query]
}

// newStatementCache size <= 0 的时候不缓存
func newStatementCache(size int) (*statementCache, error) {
	if size <= 0 {
		return &statementCache{}, nil
	}
	cache, err := lru.New[string, *Query](size)
	if err != nil {
		return nil, err
	}
	return &statementCache{cache: cache}, nil
}

func (c *statementCache) compile(d Dialect, s Statement) (*Query, error) {
	if c == nil || c.cache == nil {
		return Compile(d, s)
	}
	key, ok := statementKey(d, s)
	if !ok {
		return Compile(d, s)
	}
	if tpl, ok := c.cache.Get(key); ok {
		if q, ok := tpl.bind(d, s.Rows); ok {
			return q, nil
		}
		// 行的长度不对, 让 Compile 返回具体的错误
		return Compile(d, s)
	}
	q, err := Compile(d, s)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, &Query{SQL: q.SQL, Params: q.Params})
	return q, nil
}

func (c *statementCache) len() int {
	if c == nil || c.cache == nil {
		return 0
	}
	return c.cache.Len()
}

// bind 把行按顺序展开成参数
func (q *Query) bind(d Dialect, rows [][]any) (*Query, bool) {
	args := make([]any, 0, len(q.Params))
	for _, row := range rows {
		for _, val := range row {
			if len(args) == len(q.Params) {
				return nil, false
			}
			args = append(args, d.bindArg(q.Params[len(args)], val))
		}
	}
	if len(args) != len(q.Params) {
		return nil, false
	}
	return &Query{SQL: q.SQL, Args: args, Params: q.Params}, true
}

func statementKey(d Dialect, s Statement) (string, bool) {
	switch s.Kind {
	case KindInsert, KindMerge, KindUpdate, KindDelete:
	default:
		return "", false
	}
	if len(s.Rows) == 0 || s.Where != nil {
		return "", false
	}
	// 多行 UPDATE 的限定字段在 CASE 和 WHERE 里面各出现一次
	if s.Kind == KindUpdate && len(s.Rows) > 1 {
		return "", false
	}
	var sb strings.Builder
	sb.WriteString(d.Name())
	sb.WriteByte('|')
	sb.WriteString(s.Kind.String())
	sb.WriteByte('|')
	sb.WriteString(s.Table)
	sb.WriteByte('|')
	// 同名的表可能注册了不同的模型
	fmt.Fprintf(&sb, "%p", s.Model)
	sb.WriteByte('|')
	writeFieldNames(&sb, s.Fields)
	sb.WriteByte('|')
	writeFieldNames(&sb, s.Qualifiers)
	sb.WriteByte('|')
	sb.WriteString(s.Hints)
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(len(s.Rows)))
	return sb.String(), true
}

func writeFieldNames(sb *strings.Builder, fs []Field) {
	for i, f := range fs {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(f.name)
	}
}
