// Package jsonfield reads single values out of flat JSON objects.
//
// It is deliberately not a parser: nested objects and arrays are not
// supported. Callers that need structure should decode with encoding/json.
package jsonfield

import (
	"errors"
	"strconv"
	"strings"
)

var ErrMissing = errors.New("field missing")

// Get locates the first `"key":` in body and returns the text up to the next
// comma or closing brace outside a string, trimmed and with one layer of
// surrounding quotes removed.
func Get(body, key string) (string, bool) {
	needle := `"` + key + `"`
	from := 0
	for {
		i := strings.Index(body[from:], needle)
		if i < 0 {
			return "", false
		}
		start := from + i + len(needle)
		j := start
		for j < len(body) && isSpace(body[j]) {
			j++
		}
		if j < len(body) && body[j] == ':' {
			return value(body[j+1:]), true
		}
		from = start
	}
}

func value(rest string) string {
	end := len(rest)
	inStr, esc := false, false
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		if c == '"' {
			inStr = true
			continue
		}
		if c == ',' || c == '}' {
			end = i
			break
		}
	}
	v := strings.TrimSpace(rest[:end])
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
	}
	return v
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// Int reads key as a base-10 integer.
func Int(body, key string) (int, error) {
	s, ok := Get(body, key)
	if !ok {
		return 0, ErrMissing
	}
	return strconv.Atoi(s)
}
