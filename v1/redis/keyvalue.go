package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/redis/go-redis/v9"
)

// Get returns the string value of key, or database.ErrRecordNotFound.
func (d *Driver) Get(ctx context.Context, key string) (value string, err error) {
	c, err := d.conn()
	if err != nil {
		return "", err
	}

	ctx, done := d.observeOperation(ctx, "get", key)
	defer func() { done(1, err) }()

	value, err = c.Get(ctx, key).Result()
	return value, translate(key, err)
}

// Set stores value at key. A zero ttl keeps the key until it is deleted.
func (d *Driver) Set(ctx context.Context, key string, value any, ttl time.Duration) (err error) {
	c, err := d.conn()
	if err != nil {
		return err
	}

	ctx, done := d.observeOperation(ctx, "set", key)
	defer func() { done(1, err) }()

	return translate(key, c.Set(ctx, key, value, ttl).Err())
}

// Delete removes keys and returns how many existed.
func (d *Driver) Delete(ctx context.Context, keys ...string) (deleted int64, err error) {
	if len(keys) == 0 {
		return 0, nil
	}

	c, err := d.conn()
	if err != nil {
		return 0, err
	}

	ctx, done := d.observeOperation(ctx, "del", strings.Join(keys, " "))
	defer func() { done(deleted, err) }()

	return c.Del(ctx, keys...).Result()
}

// Scan walks the keyspace with SCAN and returns every key matching pattern.
// Keys written during the walk may or may not be included.
func (d *Driver) Scan(ctx context.Context, pattern string) (keys []string, err error) {
	c, err := d.conn()
	if err != nil {
		return nil, err
	}

	ctx, done := d.observeOperation(ctx, "scan", pattern)
	defer func() { done(int64(len(keys)), err) }()

	keys = []string{}
	iter := c.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Pipeline sends commands in one round trip. Server replies that are errors,
// including a missing key, are reported per command; only a transport failure
// fails the whole call.
func (d *Driver) Pipeline(ctx context.Context, commands []database.Command) (results []database.CommandResult, err error) {
	if len(commands) == 0 {
		return []database.CommandResult{}, nil
	}

	c, err := d.conn()
	if err != nil {
		return nil, err
	}

	ctx, done := d.observeOperation(ctx, database.OpCommand, "pipeline")
	defer func() { done(int64(len(commands)), err) }()

	cmds := make([]*redis.Cmd, len(commands))
	_, err = c.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, command := range commands {
			args := make([]any, 0, len(command.Args)+1)
			args = append(args, command.Name)
			args = append(args, command.Args...)
			cmds[i] = p.Do(ctx, args...)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) && !IsServerError(err) {
		return nil, err
	}

	results = make([]database.CommandResult, len(cmds))
	for i, cmd := range cmds {
		v, cmdErr := cmd.Result()
		results[i] = database.CommandResult{Value: v, Err: translate(commands[i].Name, cmdErr)}
	}
	return results, nil
}
