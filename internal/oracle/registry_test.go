package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewProvider_Unknown(t *testing.T) {
	_, err := NewProvider("nonexistent", DefaultProviderConfig())
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewProvider_Known(t *testing.T) {
	for _, name := range []string{"anthropic", "openai", "openrouter", "ollama"} {
		p, err := NewProvider(name, DefaultProviderConfig())
		if err != nil {
			t.Errorf("NewProvider(%q) error: %v", name, err)
			continue
		}
		if p.Name() != name {
			t.Errorf("NewProvider(%q).Name() = %q", name, p.Name())
		}
	}
}

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		name         string
		env          map[string]string
		wantProvider string
		wantKey      string
	}{
		{
			name:         "no keys falls back to ollama",
			env:          map[string]string{},
			wantProvider: "ollama",
			wantKey:      "",
		},
		{
			name:         "anthropic key",
			env:          map[string]string{"ANTHROPIC_API_KEY": "sk-ant-test"},
			wantProvider: "anthropic",
			wantKey:      "sk-ant-test",
		},
		{
			name: "openrouter beats anthropic",
			env: map[string]string{
				"ANTHROPIC_API_KEY":  "sk-ant-test",
				"OPENROUTER_API_KEY": "sk-or-test",
			},
			wantProvider: "openrouter",
			wantKey:      "sk-or-test",
		},
		{
			name:         "openai key",
			env:          map[string]string{"OPENAI_API_KEY": "sk-test"},
			wantProvider: "openai",
			wantKey:      "sk-test",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"OPENROUTER_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY"} {
				t.Setenv(key, tt.env[key])
			}
			provider, apiKey := DetectProvider()
			if provider != tt.wantProvider || apiKey != tt.wantKey {
				t.Errorf("DetectProvider() = (%q, %q), want (%q, %q)",
					provider, apiKey, tt.wantProvider, tt.wantKey)
			}
		})
	}
}

func TestGetDefaultModel(t *testing.T) {
	if got := GetDefaultModel("ollama"); got != "llama3.2" {
		t.Errorf("GetDefaultModel(ollama) = %q", got)
	}
	if got := GetDefaultModel("nonexistent"); got != "" {
		t.Errorf("GetDefaultModel(nonexistent) = %q, want empty", got)
	}
}

func TestOllamaComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("request should not stream")
		}
		json.NewEncoder(w).Encode(ollamaResponse{
			Model:           req.Model,
			Message:         ollamaMessage{Role: "assistant", Content: `{"invoiceNumber": "INV-1"}`},
			Done:            true,
			PromptEvalCount: 12,
			EvalCount:       8,
		})
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(ProviderConfig{BaseURL: srv.URL, Model: "test-model"})
	if err != nil {
		t.Fatalf("NewOllamaProvider: %v", err)
	}

	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "extract"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != `{"invoiceNumber": "INV-1"}` {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.InputTokens != 12 || resp.Usage.OutputTokens != 8 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
}

func TestOllamaComplete_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p, _ := NewOllamaProvider(ProviderConfig{BaseURL: srv.URL})
	if _, err := p.Complete(context.Background(), CompletionRequest{}); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}
