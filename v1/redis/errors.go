package redis

import (
	"errors"
	"fmt"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/redis/go-redis/v9"
)

// IsNilError checks if the error is a "key does not exist" error.
func IsNilError(err error) bool {
	return errors.Is(err, redis.Nil) || errors.Is(err, database.ErrRecordNotFound)
}

// IsServerError reports whether err is a reply error sent by the server, as
// opposed to a transport failure.
func IsServerError(err error) bool {
	var rerr redis.Error
	return errors.As(err, &rerr)
}

// translate maps go-redis errors onto the database sentinels.
func translate(key string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return fmt.Errorf("key %q: %w", key, database.ErrRecordNotFound)
	case errors.Is(err, redis.ErrClosed):
		return fmt.Errorf("%w: %v", database.ErrNotConnected, err)
	}
	return err
}
