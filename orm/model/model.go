package model

import (
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/startdusk/dbkit/orm/internal/errs"
)

const (
	tagName       = "orm"
	tagColumn     = "column"
	tagPrimaryKey = "primary_key"
	tagIdentity   = "identity"
)

// TableName 用户实现这个接口来返回自定义的表名
type TableName interface {
	TableName() string
}

// Model 是一个类型的元数据
// 进程内只解析一次, 之后不会失效
type Model struct {
	TableName string
	// Fields 按照结构体声明顺序排列, 生成 INSERT 的时候依赖这个顺序
	Fields []*Field
	// FieldMap Go 字段名 => 字段
	FieldMap map[string]*Field
	// ColumnMap 列名 => 字段
	ColumnMap map[string]*Field
}

// Field 字段
type Field struct {
	// 列名
	ColName string
	// Go 字段名
	GoName string
	// 字段类型
	Type reflect.Type
	// 字段相对于结构体本身的偏移量
	Offset uintptr
	// 在 Fields 里面的下标
	Index int

	PrimaryKey bool
	// Identity 自增列, INSERT 的时候跳过
	Identity bool
}

// PrimaryKeys 返回主键字段, 没有主键返回 nil
func (m *Model) PrimaryKeys() []*Field {
	var res []*Field
	for _, fd := range m.Fields {
		if fd.PrimaryKey {
			res = append(res, fd)
		}
	}
	return res
}

// Identity 返回自增字段
func (m *Model) Identity() *Field {
	for _, fd := range m.Fields {
		if fd.Identity {
			return fd
		}
	}
	return nil
}

type ModelOption func(m *Model) error

func ModelWithTableName(tableName string) ModelOption {
	return func(m *Model) error {
		m.TableName = tableName
		return nil
	}
}

func ModelWithColumnName(field string, colName string) ModelOption {
	return func(m *Model) error {
		fd, ok := m.FieldMap[field]
		if !ok {
			return errs.NewErrUnknownField(field)
		}
		delete(m.ColumnMap, fd.ColName)
		fd.ColName = colName
		m.ColumnMap[colName] = fd
		return nil
	}
}

// ModelWithPrimaryKey 覆盖掉标签和约定得出的主键
func ModelWithPrimaryKey(fields ...string) ModelOption {
	return func(m *Model) error {
		for _, fd := range m.Fields {
			fd.PrimaryKey = false
		}
		for _, name := range fields {
			fd, ok := m.FieldMap[name]
			if !ok {
				return errs.NewErrUnknownField(name)
			}
			fd.PrimaryKey = true
		}
		return nil
	}
}

func ModelWithIdentity(field string) ModelOption {
	return func(m *Model) error {
		fd, ok := m.FieldMap[field]
		if !ok {
			return errs.NewErrUnknownField(field)
		}
		for _, f := range m.Fields {
			f.Identity = false
		}
		fd.Identity = true
		return nil
	}
}

// Registry 代表元数据的注册中心
type Registry interface {
	// Get 查找元数据, 找不到就解析
	Get(val any) (*Model, error)
	// Register 显式注册, 可以通过 opts 修改解析出来的元数据
	Register(val any, opts ...ModelOption) (*Model, error)
	// ByTable 按表名查找已经注册过的元数据
	ByTable(table string) (*Model, bool)
}

var defaultRegistry = NewRegistry()

// Default 进程级别的注册中心, DB 默认使用它
func Default() Registry {
	return defaultRegistry
}

// registry 基于 double check 读写锁
type registry struct {
	// 为什么要用reflect.Type作为key
	// 因为有同名结构体但表名不一样的需求
	// 如: buyer下的User 和 seller下的User
	// 那么reflect.Type就能很好的记录和区分这两个同名结构体
	models map[reflect.Type]*Model
	tables map[string]*Model

	// 也可以使用sync.Map, 但sync.Map有线程覆盖的问题
	// 使用严格的读写锁, 采用double check的读写锁写法就没有线程覆盖的问题
	lock sync.RWMutex
}

func NewRegistry() Registry {
	return &registry{
		// 一个项目如果超过64张表, 说明需要拆分了
		models: make(map[reflect.Type]*Model, 64),
		tables: make(map[string]*Model, 64),
	}
}

func (r *registry) Get(val any) (*Model, error) {
	typ := reflect.TypeOf(val)
	r.lock.RLock()
	m, ok := r.models[typ]
	r.lock.RUnlock()
	if ok {
		return m, nil
	}

	// 解析放在锁外面, 多个 goroutine 同时解析只有第一个写入的会被保留
	parsed, err := r.parseModel(val)
	if err != nil {
		return nil, err
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	// double check 写法, 保证不重复创建对象
	m, ok = r.models[typ]
	if ok {
		return m, nil
	}
	r.store(typ, parsed)
	return parsed, nil
}

func (r *registry) Register(val any, opts ...ModelOption) (*Model, error) {
	m, err := r.parseModel(val)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if old, ok := r.models[reflect.TypeOf(val)]; ok {
		delete(r.tables, old.TableName)
	}
	r.store(reflect.TypeOf(val), m)
	return m, nil
}

func (r *registry) ByTable(table string) (*Model, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	m, ok := r.tables[table]
	return m, ok
}

// store 调用方必须持有写锁
func (r *registry) store(typ reflect.Type, m *Model) {
	r.models[typ] = m
	r.tables[m.TableName] = m
}

// 只支持输入指针类型的结构体
func (r *registry) parseModel(entity any) (*Model, error) {
	typ := reflect.TypeOf(entity)
	if typ == nil || typ.Kind() != reflect.Ptr || typ.Elem().Kind() != reflect.Struct {
		return nil, errs.ErrPointerOnly
	}
	elemTyp := typ.Elem()
	numField := elemTyp.NumField()
	fields := make([]*Field, 0, numField)
	fieldMap := make(map[string]*Field, numField)
	columnMap := make(map[string]*Field, numField)
	hasKey := false
	for i := 0; i < numField; i++ {
		fd := elemTyp.Field(i)
		if !fd.IsExported() {
			continue
		}
		pair, err := r.parseTag(fd.Tag)
		if err != nil {
			return nil, err
		}
		if pair == nil && fd.Tag.Get(tagName) == "-" {
			continue
		}
		colName := pair[tagColumn]
		if colName == "" {
			colName = underscoreName(fd.Name)
		}
		pk, err := parseBool(pair, tagPrimaryKey)
		if err != nil {
			return nil, err
		}
		identity, err := parseBool(pair, tagIdentity)
		if err != nil {
			return nil, err
		}
		hasKey = hasKey || pk
		f := &Field{
			ColName:    colName,
			GoName:     fd.Name,
			Type:       fd.Type,
			Offset:     fd.Offset,
			Index:      len(fields),
			PrimaryKey: pk,
			Identity:   identity,
		}
		fields = append(fields, f)
		fieldMap[fd.Name] = f
		columnMap[colName] = f
	}

	// 没有显式声明主键, 按照约定 ID 字段就是主键
	if !hasKey {
		for _, f := range fields {
			if strings.EqualFold(f.GoName, "id") {
				f.PrimaryKey = true
				break
			}
		}
	}

	var tableName string
	if tbl, ok := entity.(TableName); ok {
		tableName = tbl.TableName()
	}
	if tableName == "" {
		tableName = underscoreName(elemTyp.Name())
	}

	return &Model{
		TableName: tableName,
		Fields:    fields,
		FieldMap:  fieldMap,
		ColumnMap: columnMap,
	}, nil
}

func (r *registry) parseTag(tag reflect.StructTag) (map[string]string, error) {
	ormTag, ok := tag.Lookup(tagName)
	if !ok || ormTag == "-" {
		return nil, nil
	}
	pairs := strings.Split(ormTag, ",")
	tags := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		segs := strings.Split(pair, "=")
		if len(segs) != 2 {
			return nil, errs.NewErrIinvalidTagContent(pair)
		}
		tags[segs[0]] = segs[1]
	}
	return tags, nil
}

func parseBool(pair map[string]string, key string) (bool, error) {
	val, ok := pair[key]
	if !ok || val == "" {
		return false, nil
	}
	res, err := strconv.ParseBool(val)
	if err != nil {
		return false, errs.NewErrIinvalidTagContent(key + "=" + val)
	}
	return res, nil
}

// 驼峰名字符串转下划线命名
func underscoreName(name string) string {
	runes := []rune(name)
	var buf []rune
	for i, v := range runes {
		if unicode.IsUpper(v) {
			if i != 0 && (!unicode.IsUpper(runes[i-1]) || (i < len(runes)-1 && !unicode.IsUpper(runes[i+1]))) {
				buf = append(buf, '_')
			}
			buf = append(buf, unicode.ToLower(v))
		} else {
			buf = append(buf, v)
		}
	}
	return string(buf)
}
