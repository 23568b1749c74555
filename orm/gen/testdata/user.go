package testdata

import (
	"context"
	"database/sql"
	"time"
)

type User struct {
	Name      string
	Age       *int
	NickName  *sql.NullString
	Picture   []byte
	CreatedAt time.Time
	password  string
	Tags      map[string]string
}

type UserDetail struct {
	Address string
}

type userCache struct {
	Key string
}

type UserService interface {
	Find(ctx context.Context, name string) (*User, error)
}
