package testdata

type Finder interface {
	Find(name string) (*User, error)
}
