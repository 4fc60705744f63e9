package errs

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	assert.Equal(t, "[statement] bad query", New(ErrKindStatement, "bad query").Error())
	assert.Equal(t, "[connection_failed] execute failed: EOF", Wrap(ErrKindConnectionFailed, "execute failed", io.EOF).Error())
	assert.Equal(t, "[unsupported] query_alias not configured", Newf(ErrKindUnsupported, "%s not configured", "query_alias").Error())
}

func TestError_Unwrap(t *testing.T) {
	err := Wrap(ErrKindConnectionFailed, "ping", io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrKindUnknown, KindOf(nil))
	assert.Equal(t, ErrKindUnknown, KindOf(errors.New("plain")))

	wrapped := fmt.Errorf("lookup: %w", New(ErrKindEncoding, "result too large"))
	assert.Equal(t, ErrKindEncoding, KindOf(wrapped))
	assert.True(t, IsEncoding(wrapped))
}

func TestPredicates(t *testing.T) {
	cases := []struct {
		kind ErrKind
		is   func(error) bool
	}{
		{ErrKindNotFound, IsNotFound},
		{ErrKindTimeout, IsTimeout},
		{ErrKindConnectionFailed, IsConnectionFailed},
		{ErrKindQueryFailed, IsQueryFailed},
		{ErrKindInvalidInput, IsInvalidInput},
		{ErrKindConfiguration, IsConfiguration},
		{ErrKindStatement, IsStatement},
		{ErrKindEncoding, IsEncoding},
		{ErrKindUnsupported, IsUnsupported},
	}
	for _, tc := range cases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			for _, other := range cases {
				assert.Equal(t, other.kind == tc.kind, other.is(New(tc.kind, "x")), other.kind.String())
			}
		})
	}
}
