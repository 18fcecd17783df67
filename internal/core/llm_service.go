package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/Kabir-Narula/Mindful-Ai-DPS-sub000/internal/config"
)

const defaultCompletionModelName = "gemini-1.5-flash-latest"

// GenOptions are the per-call completion parameters.
type GenOptions struct {
	Temperature float32
	MaxTokens   int32
	JSONOutput  bool // ask the model for a JSON-shaped reply
}

// Completer performs one call to the external completion service. Services
// depend on this interface so tests can substitute a fake; the Gateway wraps
// every call with retry handling.
type Completer interface {
	Complete(ctx context.Context, systemInstruction, userPrompt string, opts GenOptions) (string, error)
}

type LLMService struct {
	client *genai.Client
}

func NewLLMService(ctx context.Context) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.AppConfig.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &LLMService{client: client}, nil
}

func (s *LLMService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *LLMService) Complete(ctx context.Context, systemInstruction, userPrompt string, opts GenOptions) (string, error) {
	model := s.client.GenerativeModel(defaultCompletionModelName)

	if systemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemInstruction)},
		}
	}

	genCfg := genai.GenerationConfig{}
	if opts.Temperature > 0 {
		temp := opts.Temperature
		genCfg.Temperature = &temp
	}
	if opts.MaxTokens > 0 {
		maxTokens := opts.MaxTokens
		genCfg.MaxOutputTokens = &maxTokens
	}
	if opts.JSONOutput {
		genCfg.ResponseMIMEType = "application/json"
	}
	model.GenerationConfig = genCfg

	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini completion request failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response was empty or had no valid candidates")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}

	if responseText.Len() == 0 {
		return "", fmt.Errorf("gemini response contained no text parts")
	}
	return responseText.String(), nil
}
