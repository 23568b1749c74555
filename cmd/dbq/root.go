package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/startdusk/dbkit/orm"
	"github.com/startdusk/dbkit/orm/mapping"
	"github.com/startdusk/dbkit/orm/middleware/querylog"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

func newRootCommand() *cobra.Command {
	var script string
	cmd := &cobra.Command{
		Use:   "dbq [script file]",
		Short: "执行 SQL 脚本, 按 JSON 输出每一个结果集",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			query, err := readScript(cmd.InOrStdin(), script, args)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, query, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.String("driver", "", "database/sql 驱动名: mysql, sqlite3, postgres (env DBQ_DRIVER)")
	flags.String("dsn", "", "数据源 (env DBQ_DSN)")
	flags.String("dialect", "", "SQL 方言, 默认按驱动推断 (env DBQ_DIALECT)")
	flags.String("config", "", "配置文件, 默认读取当前目录的 .dbq.yaml")
	flags.BoolP("verbose", "v", false, "打印执行的 SQL")
	flags.StringVarP(&script, "execute", "e", "", "直接执行的 SQL, 优先于脚本文件")
	return cmd
}

// readScript 依次从 -e, 文件, 标准输入读取
func readScript(stdin io.Reader, script string, args []string) (string, error) {
	if script != "" {
		return script, nil
	}
	if len(args) > 0 {
		bs, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(bs), nil
	}
	bs, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	if len(bs) == 0 {
		return "", errors.New("dbq: 没有要执行的 SQL")
	}
	return string(bs), nil
}

// resultSet 一个结果集的输出格式
type resultSet struct {
	Position int              `json:"position"`
	Records  []mapping.Record `json:"records"`
}

func run(ctx context.Context, cfg *config, query string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	dialect, err := dialectOf(cfg.Driver, cfg.Dialect)
	if err != nil {
		return err
	}
	logger := zap.NewNop()
	if cfg.Verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer func() {
			_ = logger.Sync()
		}()
	}

	db, err := orm.Open(cfg.Driver, cfg.DSN,
		orm.DBWithDialect(dialect),
		orm.DBWithLogger(logger),
		orm.DBWithMiddlewares(querylog.NewMiddlewareBuilder(logger).Build()))
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	cursor, err := orm.QueryMultiple(ctx, db, query)
	if err != nil {
		return err
	}
	defer func() {
		_ = cursor.Close()
	}()

	enc := json.NewEncoder(out)
	for !cursor.Exhausted() {
		pos := cursor.Position()
		records, err := orm.ExtractRecords(cursor)
		if err != nil {
			return fmt.Errorf("dbq: 读取第 %d 个结果集失败: %w", pos, err)
		}
		if records == nil {
			records = []mapping.Record{}
		}
		if err = enc.Encode(resultSet{Position: pos, Records: records}); err != nil {
			return err
		}
	}
	return nil
}
