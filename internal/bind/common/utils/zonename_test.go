package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalZoneName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: "example.com", expected: "example.com"},
		{name: "trailing dot", input: "example.com.", expected: "example.com"},
		{name: "several trailing dots", input: "example.com...", expected: "example.com"},
		{name: "mixed case", input: "ExAmPlE.CoM", expected: "example.com"},
		{name: "surrounding whitespace", input: " \texample.com \n", expected: "example.com"},
		{name: "reverse zone", input: "1.168.192.IN-ADDR.ARPA.", expected: "1.168.192.in-addr.arpa"},
		{name: "root", input: ".", expected: "."},
		{name: "empty", input: "   ", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanonicalZoneName(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, got, CanonicalZoneName(got), "idempotent")
		})
	}
}
