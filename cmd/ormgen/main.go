// ormgen 根据结构体生成带类型的查询字段, 生成的文件和源文件放在同一个目录
//
//	//go:generate ormgen user.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/startdusk/dbkit/orm/gen"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		output string
		ops    []string
	)
	cmd := &cobra.Command{
		Use:   "ormgen <src.go>",
		Short: "根据结构体生成带类型的查询字段",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			dst := output
			if dst == "" {
				dst = dstFile(src)
			}
			f, err := os.Create(dst)
			if err != nil {
				return err
			}
			if err = gen.Gen(f, src, ops...); err != nil {
				_ = f.Close()
				_ = os.Remove(dst)
				return err
			}
			if err = f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "生成成功 %s\n", dst)
			return nil
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "输出文件, 默认是 <src>.gen.go")
	cmd.Flags().StringSliceVar(&ops, "ops", gen.DefaultOps, "生成的比较操作")
	return cmd
}

// dstFile user.go -> user.gen.go
func dstFile(src string) string {
	fileName := filepath.Base(src)
	return filepath.Join(filepath.Dir(src), strings.TrimSuffix(fileName, filepath.Ext(fileName))+".gen.go")
}
