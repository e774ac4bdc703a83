package database

//go:generate mockgen -source=driver.go -destination=mock_driver.go -package=database

import (
	"context"
	"fmt"
	"strings"
)

// Kind identifies a backend family.
type Kind string

const (
	KindSQLite   Kind = "sqlite"
	KindMariaDB  Kind = "mariadb"
	KindPostgres Kind = "postgres"
	KindRedis    Kind = "redis"
	KindMongoDB  Kind = "mongodb"
)

// ParseKind maps a configured backend name to a Kind. "mysql" is accepted as
// an alias of mariadb and "postgresql" of postgres.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3":
		return KindSQLite, nil
	case "mysql", "mariadb":
		return KindMariaDB, nil
	case "postgres", "postgresql":
		return KindPostgres, nil
	case "redis":
		return KindRedis, nil
	case "mongodb", "mongo":
		return KindMongoDB, nil
	default:
		return "", fmt.Errorf("unknown database type %q", s)
	}
}

// Driver is implemented by every backend.
type Driver interface {
	// Name is the registry key of this driver instance.
	Name() string
	Kind() Kind

	// Connect is idempotent.
	Connect(ctx context.Context) error
	// Disconnect rolls back an open transaction and releases held connections.
	Disconnect(ctx context.Context) error
	// IsConnected pings the backend. It never returns an error.
	IsConnected(ctx context.Context) bool

	// DatabaseSize reports the backend's size metric, in bytes where the backend
	// exposes one and as a key count otherwise.
	DatabaseSize(ctx context.Context) (int64, error)

	Backup(ctx context.Context, path string) error
	Restore(ctx context.Context, path string) error
}
