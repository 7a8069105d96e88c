package database

import (
	"strconv"
	"strings"
)

// rebind rewrites ? placeholders to $N for postgres. Queries are
// authored with ? throughout the repositories; sqlite takes them as-is.
func rebind(driver, query string) string {
	if driver != DriverPostgres || !strings.ContainsRune(query, '?') {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inSingle := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inSingle = !inSingle
			b.WriteByte(c)
		case c == '?' && !inSingle:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
