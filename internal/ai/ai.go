// Package ai wraps the Gemini API as an opaque text-generation service.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-1.5-flash"

var ErrEmptyResponse = errors.New("ai returned no content")

// Result is the generated text plus the tokens billed for producing it.
type Result struct {
	Text       string
	TokenCount int
}

// Generator is the contract the content flow consumes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Result, error)
	Model() string
}

// GeminiService holds the Gemini client.
type GeminiService struct {
	Client    *genai.Client
	modelName string
}

// NewGeminiService initializes the Gemini client.
func NewGeminiService(ctx context.Context, apiKey, modelName string) (*GeminiService, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	return &GeminiService{Client: client, modelName: modelName}, nil
}

func (s *GeminiService) Model() string { return s.modelName }

// Close releases the underlying client.
func (s *GeminiService) Close() error {
	return s.Client.Close()
}

// Generate sends a single-turn prompt and returns the first candidate's text.
func (s *GeminiService) Generate(ctx context.Context, prompt string) (Result, error) {
	model := s.Client.GenerativeModel(s.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	res, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return Result{}, fmt.Errorf("error generating content: %w", err)
	}
	return resultFrom(res)
}

func resultFrom(res *genai.GenerateContentResponse) (Result, error) {
	totalTokens := 0
	if res.UsageMetadata != nil {
		totalTokens = int(res.UsageMetadata.TotalTokenCount)
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return Result{TokenCount: totalTokens}, ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return Result{TokenCount: totalTokens}, ErrEmptyResponse
	}
	return Result{Text: out, TokenCount: totalTokens}, nil
}
