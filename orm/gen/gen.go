// Package gen 根据结构体定义生成带类型的查询字段
//
//	var UserAge = orm.C("Age")
//	func UserAgeGt(val int) *orm.QueryField
package gen

import (
	"bytes"
	_ "embed"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"io"
	"text/template"
)

//go:embed tpl.gohtml
var genOrm string

var tpl = template.Must(template.New("gen-orm").Parse(genOrm))

// DefaultOps 默认给每个字段生成的比较操作
var DefaultOps = []string{"Eq", "NotEq", "Gt", "GtEq", "Lt", "LtEq"}

var supportedOps = map[string]struct{}{
	"Eq": {}, "NotEq": {}, "Gt": {}, "GtEq": {}, "Lt": {}, "LtEq": {},
}

type Data struct {
	*File
	Ops []string
}

// Gen 解析 srcFile 里面导出的结构体, 生成的代码写入 w
func Gen(w io.Writer, srcFile string, ops ...string) error {
	if len(ops) == 0 {
		ops = DefaultOps
	}
	for _, op := range ops {
		if _, ok := supportedOps[op]; !ok {
			return fmt.Errorf("gen: 不支持的操作 %s", op)
		}
	}

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, srcFile, nil, parser.ParseComments)
	if err != nil {
		return err
	}
	v := &SingleFileVisitor{}
	ast.Walk(v, f)
	file := v.Get()
	if len(file.Types) == 0 {
		return fmt.Errorf("gen: %s 没有可以生成的结构体", srcFile)
	}

	var buf bytes.Buffer
	if err = tpl.Execute(&buf, Data{File: file, Ops: ops}); err != nil {
		return err
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return err
	}
	_, err = w.Write(src)
	return err
}
