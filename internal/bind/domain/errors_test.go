package domain

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseError_Error(t *testing.T) {
	err := &ParseError{
		Kind:     ErrSyntax,
		Line:     3,
		Column:   7,
		Expected: "';'",
		Detail:   `found "}"`,
		Path:     "/etc/bind/rndc.conf",
	}
	assert.Equal(t, `syntax error: /etc/bind/rndc.conf at line 3, column 7: expected ';': found "}"`, err.Error())

	bare := NewParseError(ErrCircularInclude, "")
	assert.Equal(t, "circular include detected", bare.Error())
}

func TestParseError_Is(t *testing.T) {
	cause := fmt.Errorf("open: %w", fs.ErrNotExist)
	err := fmt.Errorf("loading credentials: %w", &ParseError{Kind: ErrFileNotFound, Path: "/x", Err: cause})

	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.NotErrorIs(t, err, ErrIO)

	pe, ok := AsParseError(err)
	require.True(t, ok)
	assert.Equal(t, "/x", pe.Path)

	_, ok = AsParseError(errors.New("plain"))
	assert.False(t, ok)
}

func TestParseError_WithPathKeepsInnermost(t *testing.T) {
	inner := (&ParseError{Kind: ErrSyntax}).WithPath("/inner.conf")
	outer := inner.WithPath("/outer.conf")
	assert.Equal(t, "/inner.conf", outer.Path)

	fresh := NewParseError(ErrSyntax, "x")
	annotated := fresh.WithPath("/a.conf")
	assert.Equal(t, "/a.conf", annotated.Path)
	assert.Empty(t, fresh.Path, "WithPath returns a copy")
}
