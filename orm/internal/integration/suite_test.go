//go:build integration

package integration

import (
	"context"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/startdusk/dbkit/orm"
	"github.com/startdusk/dbkit/orm/internal/test"
)

// Suite 集成测试的公共部分, 负责连接数据库和建表
type Suite struct {
	suite.Suite

	driver  string
	dsn     string
	dialect orm.Dialect

	db *orm.DB
}

func (s *Suite) SetupSuite() {
	dialect := s.dialect
	if dialect == nil {
		dialect = orm.DialectMySQL
	}
	db, err := orm.Open(s.driver, s.dsn, orm.DBWithDialect(dialect))
	require.NoError(s.T(), err)
	s.db = db

	for _, ddl := range []string{test.SimpleStruct{}.CreateSQL(), test.Order{}.CreateSQL()} {
		res := orm.RawQuery[any](db, ddl).Exec(context.Background())
		require.NoError(s.T(), res.Err())
	}
}

func (s *Suite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
}
