package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMentions(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		identifier string
		want       bool
	}{
		{"plain mention", "see gost-12345 for details", "GOST-12345", true},
		{"start of text", "gost-12345 applies here", "GOST-12345", true},
		{"end of text", "governed by gost-12345", "GOST-12345", true},
		{"substring of longer id", "see gost-123456 for details", "GOST-12345", false},
		{"prefixed by letters", "xgost-12345 is unrelated", "GOST-12345", false},
		{"absent", "no references here", "GOST-12345", false},
		{"punctuation boundary", "per gost-12345, tighten the bolt", "GOST-12345", true},
		{"second occurrence valid", "agost-12345 then gost-12345 alone", "GOST-12345", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mentions(tt.content, tt.identifier))
		})
	}
}
