package util

import (
	"net/http"
	"testing"
)

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.internal:3128", "", "localhost,.corp")

	tests := []struct {
		target string
		want   string
	}{
		{"https://api.openai.com/v1/chat/completions", "http://proxy.internal:3128"},
		{"http://example.org/x", "http://proxy.internal:3128"},
		{"http://rerank.corp/rerank", ""},
		{"http://localhost:11434/api/generate", ""},
	}

	for _, tt := range tests {
		req, err := http.NewRequest(http.MethodGet, tt.target, nil)
		if err != nil {
			t.Fatalf("build request: %v", err)
		}
		got, err := proxy(req)
		if err != nil {
			t.Fatalf("proxy(%s): %v", tt.target, err)
		}
		gotStr := ""
		if got != nil {
			gotStr = got.String()
		}
		if gotStr != tt.want {
			t.Errorf("proxy(%s) = %q, want %q", tt.target, gotStr, tt.want)
		}
	}
}

func TestNewProxyFunc_Environment(t *testing.T) {
	t.Setenv("HTTP_PROXY", "")
	t.Setenv("HTTPS_PROXY", "")
	proxy := NewProxyFunc("", "", "")

	req, _ := http.NewRequest(http.MethodGet, "https://api.anthropic.com", nil)
	got, err := proxy(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected no proxy from empty environment, got %v", got)
	}
}
