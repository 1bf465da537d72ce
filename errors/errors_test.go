package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClass_String(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "unknown", ErrorClass(99).String())
}

func TestWrap_Format(t *testing.T) {
	base := stderrors.New("dial tcp: refused")
	err := Wrap(base, "Client", "establish", "open websocket")
	require.Error(t, err)
	assert.Equal(t, "Client.establish: open websocket failed: dial tcp: refused", err.Error())
	assert.True(t, stderrors.Is(err, base))
}

func TestWrap_NilPassthrough(t *testing.T) {
	assert.NoError(t, Wrap(nil, "Client", "establish", "open"))
	assert.NoError(t, WrapTransient(nil, "Client", "establish", "open"))
	assert.NoError(t, WrapInvalid(nil, "Client", "Send", "check state"))
	assert.NoError(t, WrapFatal(nil, "Client", "auth", "validate token"))
}

func TestClassification_Wrappers(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
		invalid   bool
		fatal     bool
	}{
		{
			name:      "wrapped transient",
			err:       WrapTransient(fmt.Errorf("boom"), "Client", "establish", "open"),
			transient: true,
		},
		{
			name:    "wrapped invalid",
			err:     WrapInvalid(fmt.Errorf("boom"), "Client", "Send", "check state"),
			invalid: true,
		},
		{
			name:  "wrapped fatal",
			err:   WrapFatal(fmt.Errorf("boom"), "Client", "auth", "validate token"),
			fatal: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.transient, IsTransient(tt.err))
			assert.Equal(t, tt.invalid, IsInvalid(tt.err))
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
		})
	}
}

func TestClassification_Sentinels(t *testing.T) {
	assert.True(t, IsTransient(ErrConnectFailed))
	assert.True(t, IsTransient(ErrConnectionLost))
	assert.True(t, IsTransient(fmt.Errorf("read: %w", ErrNotConnected)))

	assert.True(t, IsInvalid(ErrInvalidState))
	assert.True(t, IsInvalid(ErrMalformedFrame))

	assert.True(t, IsFatal(ErrAuthRejected))
	assert.False(t, IsTransient(ErrAuthRejected))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ErrorFatal, Classify(ErrAuthRejected))
	assert.Equal(t, ErrorInvalid, Classify(ErrInvalidState))
	assert.Equal(t, ErrorTransient, Classify(ErrConnectFailed))
	// Unknown errors default to transient so reconnect gets a chance
	assert.Equal(t, ErrorTransient, Classify(fmt.Errorf("who knows")))
}

func TestClassifiedError_Unwrap(t *testing.T) {
	base := stderrors.New("underlying")
	err := WrapFatal(base, "Client", "auth", "validate token")

	var ce *ClassifiedError
	require.True(t, stderrors.As(err, &ce))
	assert.Equal(t, "Client", ce.Component)
	assert.Equal(t, "auth", ce.Operation)
	assert.True(t, stderrors.Is(err, base))
}
