package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsExcludedPath(t *testing.T) {
	excludes := []string{"POST:/api/login", "*:/api/refresh", "/health"}
	tests := []struct {
		methodPath string
		want       bool
	}{
		{"POST:/api/login", true},
		{"GET:/api/login", false},
		{"PUT:/api/refresh", true},
		{"GET:/health", true},
		{"GET:/api/menu", false},
	}
	for _, tt := range tests {
		t.Run(tt.methodPath, func(t *testing.T) {
			assert.Equal(t, tt.want, isExcludedPath(tt.methodPath, excludes))
		})
	}
}

func TestLoggerMiddleware_Config(t *testing.T) {
	assert := assert.New(t)
	l := NewLogger(LoggerConfig{MaxBodySize: 4})

	assert.Equal("abcd", l.truncate([]byte("abcd")))
	assert.Equal("abcd[TRUNCATED]", l.truncate([]byte("abcdef")))
	assert.True(l.isSensitive("Password"))
	assert.False(l.isSensitive("login"))
	assert.True(l.skipBody("/api/view"))
	assert.False(l.skipBody("/api/menu"))
}
