package mapping

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/startdusk/dbkit/orm/internal/errs"
	"github.com/startdusk/dbkit/orm/internal/syncx"
	"github.com/startdusk/dbkit/orm/internal/valuer"
	"github.com/startdusk/dbkit/orm/model"
)

type cacheKey struct {
	// typ 为 nil 代表动态类型
	typ   reflect.Type
	shape ShapeKey
}

// Compiler 映射器的编译器和缓存
// 缓存懒加载, 永不失效, 同一个 key 只会编译一次
type Compiler struct {
	r       model.Registry
	creator valuer.Creator
	logger  *zap.Logger
	mappers *syncx.Map[cacheKey, *Mapper]
}

type CompilerOption func(c *Compiler)

// CompilerUseReflect 使用反射访问字段, 默认是 unsafe
func CompilerUseReflect() CompilerOption {
	return func(c *Compiler) {
		c.creator = valuer.NewReflectValue
	}
}

func CompilerWithLogger(logger *zap.Logger) CompilerOption {
	return func(c *Compiler) {
		c.logger = logger
	}
}

func NewCompiler(r model.Registry, opts ...CompilerOption) *Compiler {
	c := &Compiler{
		r:       r,
		creator: valuer.NewUnsafeValue,
		logger:  zap.NewNop(),
		mappers: syncx.NewMap[cacheKey, *Mapper](64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCompiler = NewCompiler(model.Default())

// Default 进程级别的编译器, 和 model.Default() 配套
func Default() *Compiler {
	return defaultCompiler
}

// Compile 返回 typ 和 cols 对应的映射器, 没有就编译一个
// typ 可以是结构体或者结构体指针, nil 代表动态类型
func (c *Compiler) Compile(typ reflect.Type, cols []Column) (*Mapper, error) {
	if typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ != nil && typ.Kind() != reflect.Struct {
		return nil, errs.ErrPointerOnly
	}
	key := cacheKey{typ: typ, shape: NewShapeKey(cols)}
	// 写锁内编译, 其他 goroutine 只会看到编译完成的映射器
	return c.mappers.LoadOrCompute(key, func() (*Mapper, error) {
		return c.compile(key, cols)
	})
}

func (c *Compiler) compile(key cacheKey, cols []Column) (*Mapper, error) {
	if key.typ == nil {
		c.logger.Debug("orm: 编译动态映射器", zap.String("shape", string(key.shape)))
		return newDynamicMapper(cols), nil
	}
	m, err := c.r.Get(reflect.New(key.typ).Interface())
	if err != nil {
		return nil, err
	}
	c.logger.Debug("orm: 编译映射器",
		zap.String("type", key.typ.String()),
		zap.String("shape", string(key.shape)))
	return newStaticMapper(key.typ, m, cols, c.creator), nil
}

// For 泛型版本, T 是结构体类型
func For[T any](c *Compiler, cols []Column) (*Mapper, error) {
	return c.Compile(reflect.TypeOf((*T)(nil)).Elem(), cols)
}

// ForEntity 只需要对象到参数的转换时使用, 不依赖结果集
func (c *Compiler) ForEntity(entity any) (*Mapper, error) {
	return c.Compile(reflect.TypeOf(entity), nil)
}

func (c *Compiler) Registry() model.Registry {
	return c.r
}

// Len 缓存的映射器数量
func (c *Compiler) Len() int {
	return c.mappers.Len()
}

// Clear 只给测试隔离用, 生产代码不要调用
func (c *Compiler) Clear() {
	c.mappers.Clear()
}
