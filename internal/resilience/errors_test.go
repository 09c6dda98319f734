package resilience

import (
	"syscall"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient error type", NewTransientError(eris.New("503"), 503), true},
		{"wrapped transient", eris.Wrap(NewTransientError(eris.New("503"), 503), "outer"), true},
		{"connection refused errno", syscall.ECONNREFUSED, true},
		{"connection reset errno", syscall.ECONNRESET, true},
		{"reset message heuristic", eris.New("read tcp: connection reset by peer"), true},
		{"dns message heuristic", eris.New("dial tcp: no such host"), true},
		{"io timeout heuristic", eris.New("read tcp: i/o timeout"), true},
		{"plain error", eris.New("validation failed"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 201, 301, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}

func TestRetryAfterHint(t *testing.T) {
	te := &TransientError{Err: eris.New("429"), StatusCode: 429, RetryAfter: 7 * time.Second}

	assert.Equal(t, 7*time.Second, RetryAfterHint(te))
	assert.Equal(t, 7*time.Second, RetryAfterHint(eris.Wrap(te, "outer")))
	assert.Equal(t, time.Duration(0), RetryAfterHint(eris.New("plain")))
	assert.Equal(t, time.Duration(0), RetryAfterHint(nil))
}
