package gateway

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCheckOrigin(t *testing.T) {
	appURL := "https://classpoll.example.com/app"

	tests := []struct {
		name          string
		origin        string
		isDevelopment bool
		want          bool
	}{
		{"empty origin", "", false, true},
		{"app origin", "https://classpoll.example.com", false, true},

		{"different host", "https://evil.com", false, false},
		{"different port", "https://classpoll.example.com:9090", false, false},
		{"http instead of https", "http://classpoll.example.com", false, false},
		{"subdomain", "https://sub.classpoll.example.com", false, false},

		{"localhost dev", "http://localhost:5173", true, true},
		{"127.0.0.1 dev", "http://127.0.0.1:3000", true, true},
		{"localhost prod rejected", "http://localhost:5173", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewCheckOrigin(appURL, tt.isDevelopment)
			r, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, checker(r))
		})
	}
}

func TestNewCheckOrigin_NoAppURLAllowsAll(t *testing.T) {
	checker := NewCheckOrigin("", false)
	r, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/ws", nil)
	r.Header.Set("Origin", "https://anything.example.org")
	assert.True(t, checker(r))
}

func TestIPConnectionLimiter(t *testing.T) {
	l := NewIPConnectionLimiter(2)

	assert.True(t, l.Acquire("10.0.0.1"))
	assert.True(t, l.Acquire("10.0.0.1"))
	assert.False(t, l.Acquire("10.0.0.1"))
	assert.True(t, l.Acquire("10.0.0.2"))

	l.Release("10.0.0.1")
	assert.Equal(t, 1, l.Count("10.0.0.1"))
	assert.True(t, l.Acquire("10.0.0.1"))

	l.Release("10.0.0.2")
	l.Release("10.0.0.2")
	assert.Equal(t, 0, l.Count("10.0.0.2"))
}

func TestSessionStateString(t *testing.T) {
	assert.Equal(t, "connected", stateConnected.String())
	assert.Equal(t, "identified", stateIdentified.String())
	assert.Equal(t, "disconnected", stateDisconnected.String())
}
