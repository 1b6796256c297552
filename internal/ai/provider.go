// Package ai wraps the embedding and answer-generation provider behind
// the two calls the rest of the system needs.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const answerSystemPrompt = "You are a professional technical assistant. " +
	"Answer questions precisely and accurately using only the information provided. " +
	"Do not add general advice or assumptions beyond what is stated in the documentation. " +
	"Be clear, direct, and specific to the procedures described."

// Config holds provider settings. Zero fields fall back to defaults.
type Config struct {
	BaseURL        string
	APIKey         string
	EmbeddingModel string
	ChatModel      string
	Dimensions     int
	Timeout        time.Duration
}

// DefaultConfig returns the provider defaults: an OpenAI-compatible
// endpoint with 1024-dimensional embeddings.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "https://api.openai.com/v1",
		EmbeddingModel: "text-embedding-3-large",
		ChatModel:      "gpt-4o-mini",
		Dimensions:     1024,
		Timeout:        60 * time.Second,
	}
}

// Provider calls the embedding and chat endpoints.
type Provider struct {
	client *openai.Client
	cfg    Config
}

func NewProvider(cfg Config) (*Provider, error) {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = def.EmbeddingModel
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = def.ChatModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = def.Dimensions
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	return &Provider{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}, nil
}

// Dimensions returns the embedding vector size this provider produces.
func (p *Provider) Dimensions() int {
	return p.cfg.Dimensions
}

// Embed returns one vector per input text, in input order, in a single
// batch call.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      texts,
		Model:      openai.EmbeddingModel(p.cfg.EmbeddingModel),
		Dimensions: p.cfg.Dimensions,
	})
	if err != nil {
		return nil, wrapProviderError("embed", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, &ProviderError{
			Op:  "embed",
			Err: fmt.Errorf("got %d embeddings for %d texts", len(resp.Data), len(texts)),
		}
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// GenerateAnswer asks the chat model to answer a question from retrieved
// contexts. History entries, when present, are prepended as prior
// conversation lines.
func (p *Provider) GenerateAnswer(ctx context.Context, question string, contexts, history []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.cfg.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: answerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserContent(question, contexts, history)},
		},
		MaxTokens:   1024,
		Temperature: 0.1,
	})
	if err != nil {
		return "", wrapProviderError("generate answer", err)
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Op: "generate answer", Err: errors.New("empty completion response")}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildUserContent(question string, contexts, history []string) string {
	var sections []string

	if len(history) > 0 {
		sections = append(sections, "Conversation so far:\n"+strings.Join(history, "\n"))
	}

	if len(contexts) > 0 {
		var block strings.Builder
		block.WriteString("Relevant information from documentation:\n")
		for i, c := range contexts {
			if i > 0 {
				block.WriteString("\n\n")
			}
			block.WriteString("- ")
			block.WriteString(c)
		}
		sections = append(sections, block.String())
	}

	sections = append(sections, "User question: "+question)
	return strings.Join(sections, "\n\n")
}
