package gen

import (
	"fmt"
	"go/ast"
	"strconv"
	"strings"
)

type SingleFileVisitor struct {
	file *FileVisitor
}

func (spv *SingleFileVisitor) Get() *File {
	if spv.file == nil {
		return &File{}
	}
	types := make([]Type, 0, len(spv.file.types))
	for _, typ := range spv.file.types {
		if len(typ.fields) == 0 {
			continue
		}
		types = append(types, Type{
			Name:   typ.name,
			Fields: typ.fields,
		})
	}
	return &File{
		Package: spv.file.Package,
		Imports: usedImports(spv.file.Imports, types),
		Types:   types,
	}
}

var _ ast.Visitor = &SingleFileVisitor{}

func (spv *SingleFileVisitor) Visit(node ast.Node) ast.Visitor {
	fn, ok := node.(*ast.File)
	if !ok {
		// 不是我们要的文件节点
		return spv
	}

	fv := &FileVisitor{
		Package: fn.Name.String(),
	}
	spv.file = fv
	return fv
}

type FileVisitor struct {
	Package string
	Imports []Import
	types   []*TypeVisitor
}

var _ ast.Visitor = &FileVisitor{}

func (fv *FileVisitor) Visit(node ast.Node) ast.Visitor {
	switch n := node.(type) {
	case *ast.TypeSpec:
		// 只处理导出的结构体, 接口的方法也是 ast.Field
		if _, ok := n.Type.(*ast.StructType); !ok || !n.Name.IsExported() {
			return nil
		}
		v := &TypeVisitor{name: n.Name.String()}
		fv.types = append(fv.types, v)
		return v
	case *ast.ImportSpec:
		path, _ := strconv.Unquote(n.Path.Value)
		imp := Import{Path: path}
		if n.Name != nil {
			// 处理导入包有别名的情况, 如 a "import/bbb"
			imp.Alias = n.Name.String()
		}
		fv.Imports = append(fv.Imports, imp)
	}
	return fv
}

type TypeVisitor struct {
	name   string
	fields []Field
}

var _ ast.Visitor = &TypeVisitor{}

func (tv *TypeVisitor) Visit(node ast.Node) ast.Visitor {
	n, ok := node.(*ast.Field)
	if !ok {
		return tv
	}
	typ := typeString(n.Type)
	// 其它类型 ORM 本来也不支持, 例如 map, channel
	if typ == "" {
		return nil
	}
	for _, name := range n.Names {
		if !name.IsExported() {
			continue
		}
		tv.fields = append(tv.fields, Field{
			Name: name.String(),
			Type: typ,
		})
	}
	return nil
}

func typeString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.String()
	case *ast.SelectorExpr:
		x, ok := t.X.(*ast.Ident)
		if !ok {
			return ""
		}
		return fmt.Sprintf("%s.%s", x.String(), t.Sel.String())
	case *ast.StarExpr:
		if elem := typeString(t.X); elem != "" {
			return "*" + elem
		}
	case *ast.ArrayType:
		// 只支持切片
		if t.Len != nil {
			return ""
		}
		if elem := typeString(t.Elt); elem != "" {
			return "[]" + elem
		}
	}
	return ""
}

// usedImports 只保留字段类型用到的包, 否则生成的代码编译不过
func usedImports(imports []Import, types []Type) []Import {
	res := make([]Import, 0, len(imports))
	for _, imp := range imports {
		name := imp.Name()
		if name == "_" || name == "." {
			continue
		}
	search:
		for _, typ := range types {
			for _, f := range typ.Fields {
				if strings.Contains(f.Type, name+".") {
					res = append(res, imp)
					break search
				}
			}
		}
	}
	return res
}

type File struct {
	Package string
	Imports []Import
	Types   []Type
}

type Import struct {
	Alias string
	Path  string
}

// Name 代码里面引用这个包用的名字
func (i Import) Name() string {
	if i.Alias != "" {
		return i.Alias
	}
	return i.Path[strings.LastIndexByte(i.Path, '/')+1:]
}

func (i Import) String() string {
	if i.Alias != "" {
		return i.Alias + " " + strconv.Quote(i.Path)
	}
	return strconv.Quote(i.Path)
}

type Type struct {
	Name   string
	Fields []Field
}

type Field struct {
	Name string
	Type string
}
