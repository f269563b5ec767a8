package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"casenote-nlp/internal/config"
)

func TestHTTPClientGenerateStructured(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key-1" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", "key-1", "model-x", zap.NewNop())
	out, err := c.GenerateStructured(context.Background(), "hola", Schema{Name: "S", Body: map[string]any{"type": "object"}})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != `{"ok":true}` {
		t.Fatalf("unexpected output %q", out)
	}
	if got.Model != "model-x" || len(got.Messages) != 2 {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format")
	}
}

func TestHTTPClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", "m", nil)
	if _, err := c.Generate(context.Background(), "hola"); err == nil {
		t.Fatalf("expected empty response error")
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error on 401")
	}
}

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantNil  bool
		wantErr  bool
		wantType string
	}{
		{name: "none", cfg: config.Config{LLMProvider: "none"}, wantNil: true},
		{name: "empty", cfg: config.Config{}, wantNil: true},
		{name: "openai without key", cfg: config.Config{LLMProvider: "openai"}, wantErr: true},
		{name: "openai", cfg: config.Config{LLMProvider: "OpenAI", LLMAPIKey: "k", LLMModel: "m"}, wantType: "openai"},
		{name: "http", cfg: config.Config{LLMProvider: "http", LLMBaseURL: "http://localhost:8000/v1"}, wantType: "http"},
		{name: "unknown", cfg: config.Config{LLMProvider: "bert"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewFromConfig(&tt.cfg, zap.NewNop())
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if tt.wantNil {
				if client != nil {
					t.Fatalf("expected nil client, got %T", client)
				}
				return
			}
			switch tt.wantType {
			case "openai":
				if _, ok := client.(*OpenAIClient); !ok {
					t.Fatalf("expected *OpenAIClient, got %T", client)
				}
			case "http":
				if _, ok := client.(*HTTPClient); !ok {
					t.Fatalf("expected *HTTPClient, got %T", client)
				}
			}
		})
	}
}
