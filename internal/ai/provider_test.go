package ai

import (
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestNewProvider_Defaults(t *testing.T) {
	p, err := NewProvider(Config{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.cfg.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("unexpected base url %q", p.cfg.BaseURL)
	}
	if p.cfg.EmbeddingModel != "text-embedding-3-large" {
		t.Errorf("unexpected embedding model %q", p.cfg.EmbeddingModel)
	}
	if p.cfg.ChatModel != "gpt-4o-mini" {
		t.Errorf("unexpected chat model %q", p.cfg.ChatModel)
	}
	if p.Dimensions() != 1024 {
		t.Errorf("unexpected dimensions %d", p.Dimensions())
	}
}

func TestNewProvider_RequiresAPIKey(t *testing.T) {
	if _, err := NewProvider(Config{}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestNewProvider_OverridesKept(t *testing.T) {
	p, err := NewProvider(Config{
		APIKey:         "sk-test",
		BaseURL:        "http://localhost:11434/v1",
		EmbeddingModel: "nomic-embed-text",
		Dimensions:     768,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.cfg.BaseURL != "http://localhost:11434/v1" || p.cfg.EmbeddingModel != "nomic-embed-text" {
		t.Errorf("overrides lost: %+v", p.cfg)
	}
	if p.Dimensions() != 768 {
		t.Errorf("unexpected dimensions %d", p.Dimensions())
	}
}

func TestBuildUserContent(t *testing.T) {
	content := buildUserContent(
		"How do I remove the back cover?",
		[]string{"Step 1: Heat the edges.", "Step 2: Pry gently."},
		[]string{"User: hi", "Assistant: hello"},
	)

	historyIdx := strings.Index(content, "Conversation so far:")
	contextIdx := strings.Index(content, "Relevant information from documentation:")
	questionIdx := strings.Index(content, "User question: How do I remove the back cover?")

	if historyIdx < 0 || contextIdx < 0 || questionIdx < 0 {
		t.Fatalf("missing sections in content:\n%s", content)
	}
	if !(historyIdx < contextIdx && contextIdx < questionIdx) {
		t.Errorf("sections out of order:\n%s", content)
	}
	if !strings.Contains(content, "- Step 1: Heat the edges.") {
		t.Errorf("contexts not bulleted:\n%s", content)
	}
}

func TestBuildUserContent_QuestionOnly(t *testing.T) {
	content := buildUserContent("What torque spec?", nil, nil)

	if content != "User question: What torque spec?" {
		t.Errorf("unexpected content %q", content)
	}
}

func TestProviderError_Transient(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{0, true},
		{429, true},
		{500, true},
		{503, true},
		{400, false},
		{401, false},
	}
	for _, tt := range tests {
		e := &ProviderError{Op: "embed", StatusCode: tt.status, Err: errors.New("x")}
		if got := e.Transient(); got != tt.want {
			t.Errorf("status %d: Transient() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestWrapProviderError(t *testing.T) {
	apiErr := &openai.APIError{HTTPStatusCode: 429, Message: "rate limited"}

	err := wrapProviderError("embed", apiErr)

	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.StatusCode != 429 {
		t.Errorf("status not extracted, got %d", pe.StatusCode)
	}
	var unwrapped *openai.APIError
	if !errors.As(err, &unwrapped) {
		t.Error("original error not wrapped")
	}
}
