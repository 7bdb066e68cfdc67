package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/inkwell-app/inkwell/internal/config"
)

const defaultReplyModelName = "gemini-1.5-flash-latest"

// ReplyStreamer is the contract the reply path consumes: a one-shot
// completion for the non-streaming surface and a lazy, finite,
// non-restartable chunk sequence for the streaming one. Implementations may
// fail mid-sequence; callers must treat the stream as unresumable.
type ReplyStreamer interface {
	Available() bool
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	CompleteStream(ctx context.Context, systemPrompt, userPrompt string) (<-chan string, <-chan error)
}

type LLMService struct {
	client *genai.Client
}

// NewLLMService connects to Gemini when an API key is configured. Without a
// key it returns a service whose Available() is false and the server runs in
// canned-fallback mode.
func NewLLMService() *LLMService {
	if config.AppConfig.GeminiAPIKey == "" {
		return &LLMService{}
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.AppConfig.GeminiAPIKey))
	if err != nil {
		log.Fatalf("Failed to create GenAI client: %v", err)
	}

	return &LLMService{client: client}
}

func (s *LLMService) Available() bool {
	return s != nil && s.client != nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
	}
}

func (s *LLMService) replyModel(systemPrompt string) *genai.GenerativeModel {
	model := s.client.GenerativeModel(defaultReplyModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}
	return model
}

// Complete performs a one-shot, non-streaming completion. Callers treat a
// failure as "no reply", never as a reason to fail the surrounding request.
func (s *LLMService) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !s.Available() {
		return "", fmt.Errorf("no LLM backend configured")
	}

	model := s.replyModel(systemPrompt)
	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini completion request failed: %w", err)
	}

	text := collectText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty or non-text response")
	}
	return text, nil
}

// CompleteStream starts a streaming completion and forwards each text part as
// it arrives. The chunk channel closes on natural completion; at most one
// error is sent before both channels close. Cancelling ctx abandons the
// upstream request.
func (s *LLMService) CompleteStream(ctx context.Context, systemPrompt, userPrompt string) (<-chan string, <-chan error) {
	chunks := make(chan string, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		if !s.Available() {
			errs <- fmt.Errorf("no LLM backend configured")
			return
		}

		model := s.replyModel(systemPrompt)
		iter := model.GenerateContentStream(ctx, genai.Text(userPrompt))
		for {
			resp, err := iter.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				errs <- fmt.Errorf("gemini stream failed: %w", err)
				return
			}
			for _, candidate := range resp.Candidates {
				if candidate.Content == nil {
					continue
				}
				for _, part := range candidate.Content.Parts {
					txt, ok := part.(genai.Text)
					if !ok || len(txt) == 0 {
						continue
					}
					select {
					case chunks <- string(txt):
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return chunks, errs
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}
