package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/startdusk/dbkit/orm"
)

// appFs 读取配置文件和 .env, 测试的时候替换成内存文件系统
var appFs = afero.NewOsFs()

type config struct {
	Driver  string
	DSN     string
	Dialect string
	Verbose bool
}

// loadConfig 优先级: 命令行参数 > 环境变量 DBQ_* (包括 .env) > 配置文件 .dbq.yaml
// 配置文件依次在当前目录和用户目录查找
func loadConfig(cmd *cobra.Command) (*config, error) {
	if err := loadEnv(".env"); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetFs(appFs)
	v.SetEnvPrefix("DBQ")
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	if file, _ := cmd.Flags().GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName(".dbq")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	cfg := &config{
		Driver:  v.GetString("driver"),
		DSN:     v.GetString("dsn"),
		Dialect: v.GetString("dialect"),
		Verbose: v.GetBool("verbose"),
	}
	if cfg.Driver == "" || cfg.DSN == "" {
		return nil, errors.New("dbq: 需要指定 driver 和 dsn")
	}
	return cfg, nil
}

// loadEnv 把 .env 里面的变量加到环境变量里面, 已经存在的不覆盖
func loadEnv(file string) error {
	f, err := appFs.Open(file)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	envs, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("dbq: 解析 %s 失败: %w", file, err)
	}
	for k, val := range envs {
		if _, ok := os.LookupEnv(k); ok {
			continue
		}
		if err = os.Setenv(k, val); err != nil {
			return err
		}
	}
	return nil
}

// dialectOf 没有指定方言的时候按照驱动名推断
func dialectOf(driver, name string) (orm.Dialect, error) {
	if name == "" {
		name = driver
	}
	switch strings.ToLower(name) {
	case "mysql":
		return orm.DialectMySQL, nil
	case "sqlite", "sqlite3":
		return orm.DialectSQLite, nil
	case "postgres", "postgresql":
		return orm.DialectPostgreSQL, nil
	case "sqlserver", "mssql":
		return orm.DialectSQLServer, nil
	}
	return nil, fmt.Errorf("dbq: 不支持的方言 %s", name)
}
