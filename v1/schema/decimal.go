package schema

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// cast parses strings with base prefixes, so "010" would come back as 8 and
// "08" would fail. Textual integers coming out of a database are decimal.

func text(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), true
	case []byte:
		return strings.TrimSpace(string(s)), true
	}
	return "", false
}

func toInt64E(v any) (int64, error) {
	if s, ok := text(v); ok {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		return cast.ToInt64E(s)
	}
	return cast.ToInt64E(v)
}

func toIntE(v any) (int, error) {
	if s, ok := text(v); ok {
		if n, err := strconv.ParseInt(s, 10, strconv.IntSize); err == nil {
			return int(n), nil
		}
		return cast.ToIntE(s)
	}
	return cast.ToIntE(v)
}

func toInt32E(v any) (int32, error) {
	if s, ok := text(v); ok {
		if n, err := strconv.ParseInt(s, 10, 32); err == nil {
			return int32(n), nil
		}
		return cast.ToInt32E(s)
	}
	return cast.ToInt32E(v)
}

func toUint64E(v any) (uint64, error) {
	if s, ok := text(v); ok {
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			return n, nil
		}
		return cast.ToUint64E(s)
	}
	return cast.ToUint64E(v)
}

func toFloat64E(v any) (float64, error) {
	if s, ok := text(v); ok {
		return cast.ToFloat64E(s)
	}
	return cast.ToFloat64E(v)
}

func toFloat32E(v any) (float32, error) {
	if s, ok := text(v); ok {
		return cast.ToFloat32E(s)
	}
	return cast.ToFloat32E(v)
}
