package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBlank(t *testing.T) {
	for _, s := range []string{"", " ", "\t\n", "  \r\n  "} {
		assert.True(t, IsBlank(s), "%q", s)
	}
	assert.False(t, IsBlank(" a "))
}

func TestIsValidPrompt(t *testing.T) {
	tests := []struct {
		prompt string
		valid  bool
	}{
		{"hi", false},
		{"hello", true},
		{"aaaa", false},
		{"what is the weather today", true},
		{"show me all accounts in NYC", true},
		{"asdf jkl", false},
		{"1234 5678 9012 a", false},
		{"?!?! ... ,,,, ok", false},
		{"sooooo cool", false},
		{"a b c d e f", false},
		{strings.Repeat("word ", 2001), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, IsValidPrompt(tt.prompt), "%q", tt.prompt)
	}
}

func TestIsRecordQuery(t *testing.T) {
	assert.True(t, IsRecordQuery("Show all accounts in NYC"))
	assert.True(t, IsRecordQuery("how many contacts were created today"))
	assert.True(t, IsRecordQuery("Generate a report of open cases"))
	assert.True(t, IsRecordQuery("record details for Acme"))
	assert.False(t, IsRecordQuery("what is a good name for a cat"))
	assert.False(t, IsRecordQuery("showcase your skills"))
}
