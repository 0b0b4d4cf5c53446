// Package vision talks to the multimodal model that reads image resumes.
package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/talentscan/talentscan-backend/pkg/config"
	"github.com/talentscan/talentscan-backend/pkg/logger"
)

// ErrNotConfigured is returned by Generate when no API key was provided
var ErrNotConfigured = errors.New("vision model not configured")

// Model sends one instruction plus one image and returns the raw text answer
type Model interface {
	Generate(ctx context.Context, instruction string, image []byte, mimeType string) (string, error)
}

// GeminiModel implements Model on the Gemini API. It is built once at startup
// and shared by every request.
type GeminiModel struct {
	client *genai.Client
	model  string
	log    *logger.Logger
}

// NewGeminiModel creates the Gemini client from configuration
func NewGeminiModel(ctx context.Context, cfg *config.VisionConfig, log *logger.Logger) (*GeminiModel, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiModel{
		client: client,
		model:  cfg.Model,
		log:    log.WithComponent("vision"),
	}, nil
}

// Generate asks the model for a JSON answer about the image
func (m *GeminiModel) Generate(ctx context.Context, instruction string, image []byte, mimeType string) (string, error) {
	start := time.Now()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(instruction),
			genai.NewPartFromBytes(image, mimeType),
		}, genai.RoleUser),
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	m.log.Debug().
		Str("model", m.model).
		Int("image_bytes", len(image)).
		Int("response_chars", len(text)).
		Dur("duration", time.Since(start)).
		Msg("vision model answered")

	if text == "" {
		return "", errors.New("gemini returned no text")
	}
	return text, nil
}

// Unavailable is the Model used when no API key is configured. Every call
// fails, so image resumes are reported as extraction failures.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, string, []byte, string) (string, error) {
	return "", ErrNotConfigured
}
