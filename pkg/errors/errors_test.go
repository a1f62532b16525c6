package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrorTypeConfig, "missing database name")

	assert.Equal(t, ErrorTypeConfig, err.Type)
	assert.Equal(t, "config: missing database name", err.Error())
	assert.NotEmpty(t, err.Stack)
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")
	err := Wrap(cause, ErrorTypeConnection, "failed to connect to MongoDB")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")

	assert.Nil(t, Wrap(nil, ErrorTypeConnection, "ignored"))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(ErrorTypeTimeout, "request timed out")))
	assert.True(t, IsRetryable(New(ErrorTypeConnection, "connection reset")))
	assert.True(t, IsRetryable(New(ErrorTypeRateLimit, "throttled")))
	assert.False(t, IsRetryable(New(ErrorTypeConfig, "bad config")))
	assert.False(t, IsRetryable(stderrors.New("plain error")))
}

func TestIsType(t *testing.T) {
	err := Wrap(New(ErrorTypeStorage, "insert failed"), ErrorTypeStorage, "load aborted")

	assert.True(t, IsType(err, ErrorTypeStorage))
	assert.False(t, IsType(err, ErrorTypeData))
	assert.False(t, IsType(stderrors.New("plain"), ErrorTypeStorage))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeStorage, "insert failed").
		WithDetail("collection", "tags_raw").
		WithDetail("documents", 42)

	require.NotNil(t, err.Details)
	assert.Equal(t, "tags_raw", err.Details["collection"])
	assert.Equal(t, 42, err.Details["documents"])
}
