// dbq 执行一段 SQL 脚本, 把每个结果集按 JSON 输出
//
//	dbq --driver sqlite3 --dsn file:test.db -e "SELECT * FROM users; SELECT COUNT(*) FROM users"
//	DBQ_DRIVER=mysql DBQ_DSN="root:root@tcp(localhost:3306)/test?multiStatements=true" dbq script.sql
package main

import (
	"os"

	"github.com/fatih/color"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		_, _ = color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
