package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCode(t *testing.T) {
	tests := []struct {
		query string
		code  int64
		ok    bool
	}{
		{"7", 7, true},
		{"007", 7, true},
		{" 12 ", 12, true},
		{"", 0, false},
		{"-1", 0, false},
		{"12a", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			code, ok := ParseCode(tt.query)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%matrix%", ContainsPattern("matrix"))
	assert.Equal(t, `%100\% a\_b\\c%`, ContainsPattern(`100% a_b\c`))
}
