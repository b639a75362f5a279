package database

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
)

var (
	ErrUnterminated  = errors.New("database: unterminated quote in query")
	ErrParamMismatch = errors.New("database: placeholder count does not match params")
)

// Rewrite turns dialect-neutral query text into the dialect's own syntax.
// Double-quoted identifiers are requoted, `?` placeholders become native
// parameters and slice params expand into one parameter per element.
// Single-quoted literals are copied untouched.
func Rewrite(d Dialect, query string, args []any) (string, []any, error) {
	var b strings.Builder
	b.Grow(len(query) + 16)
	out := make([]any, 0, len(args))
	next, n := 0, 0

	bind := func(v any) {
		n++
		b.WriteString(d.Placeholder(n))
		out = append(out, normalizeArg(v))
	}

	for i := 0; i < len(query); i++ {
		switch c := query[i]; c {
		case '\'':
			end := literalEnd(query, i)
			if end < 0 {
				return "", nil, ErrUnterminated
			}
			b.WriteString(query[i : end+1])
			i = end
		case '"':
			end := strings.IndexByte(query[i+1:], '"')
			if end < 0 {
				return "", nil, ErrUnterminated
			}
			b.WriteString(d.QuoteIdent(query[i+1 : i+1+end]))
			i += end + 1
		case '?':
			if next >= len(args) {
				return "", nil, fmt.Errorf("%w: query has more than %d placeholders", ErrParamMismatch, len(args))
			}
			arg := args[next]
			next++

			elems, ok := expandSlice(arg)
			if !ok {
				bind(arg)
				continue
			}
			if len(elems) == 0 {
				b.WriteString("NULL")
				continue
			}
			for k, e := range elems {
				if k > 0 {
					b.WriteString(", ")
				}
				bind(e)
			}
		default:
			b.WriteByte(c)
		}
	}

	if next != len(args) {
		return "", nil, fmt.Errorf("%w: %d placeholders, %d params", ErrParamMismatch, next, len(args))
	}
	return b.String(), out, nil
}

// literalEnd returns the index of the quote closing the literal opened at
// start, honouring doubled '' escapes.
func literalEnd(query string, start int) int {
	for j := start + 1; j < len(query); j++ {
		if query[j] != '\'' {
			continue
		}
		if j+1 < len(query) && query[j+1] == '\'' {
			j++
			continue
		}
		return j
	}
	return -1
}

func expandSlice(arg any) ([]any, bool) {
	if arg == nil {
		return nil, false
	}
	if _, ok := arg.([]byte); ok {
		return nil, false
	}
	v := reflect.ValueOf(arg)
	if v.Kind() != reflect.Slice {
		return nil, false
	}
	elems := make([]any, v.Len())
	for i := range elems {
		elems[i] = v.Index(i).Interface()
	}
	return elems, true
}

func normalizeArg(arg any) any {
	switch v := arg.(type) {
	case time.Time:
		return v.UTC()
	case driver.Valuer:
		return arg
	}

	if v := reflect.ValueOf(arg); v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		return normalizeArg(v.Elem().Interface())
	}
	return arg
}
