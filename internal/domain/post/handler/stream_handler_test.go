package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func originRequest(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/posts/stream", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestStreamOriginCheck(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"wildcard allows any origin", []string{"*"}, "http://localhost:5173", true},
		{"wildcard mixed with explicit", []string{"https://board.example.com", "*"}, "http://other.test", true},
		{"explicit origin allowed", []string{"https://board.example.com"}, "https://board.example.com", true},
		{"explicit origin rejects others", []string{"https://board.example.com"}, "http://localhost:5173", false},
		{"empty list allows all", nil, "http://localhost:5173", true},
		{"no origin header", []string{"https://board.example.com"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewStreamHandler(nil, tt.allowed, nil)
			assert.Equal(t, tt.want, h.upgrader.CheckOrigin(originRequest(tt.origin)))
		})
	}
}
