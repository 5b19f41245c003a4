package storage

import (
	"strconv"
	"strings"
	"time"
)

// ParseCode returns the numeric code in query, if query is all digits
func ParseCode(query string) (int64, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, false
	}
	for _, r := range query {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	code, err := strconv.ParseInt(query, 10, 64)
	if err != nil {
		return 0, false
	}
	return code, true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern turns query into a LIKE pattern matching it as a literal
// substring, with backslash as the escape character
func ContainsPattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

// Day truncates t to midnight in its own location
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
