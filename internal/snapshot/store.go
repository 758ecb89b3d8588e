// Package snapshot persists serialized shape maps under a name so a host can
// save a board and restore it later.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrNotFound is returned by Load when nothing was saved under the name.
var ErrNotFound = errors.New("snapshot not found")

// ErrInvalidName is returned for names that cannot be used as keys.
var ErrInvalidName = errors.New("invalid snapshot name")

// Store saves and loads shape map wire text.
type Store interface {
	Save(ctx context.Context, name, payload string) error
	Load(ctx context.Context, name string) (string, error)
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend   string // file, bolt, badger or redis
	Dir       string
	BoltPath  string
	BadgerDir string
	RedisAddr string
}

// Open creates the store named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "file":
		return NewFileStore(opts.Dir)
	case "bolt":
		return NewBoltStore(opts.BoltPath)
	case "badger":
		return NewBadgerStore(opts.BadgerDir)
	case "redis":
		return NewRedisStore(ctx, opts.RedisAddr)
	}
	return nil, fmt.Errorf("unknown snapshot backend %q", opts.Backend)
}

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

func checkName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
