package infra

import (
	"context"

	"github.com/kerem-gursoy/uup/internal/apierror"
	"github.com/kerem-gursoy/uup/internal/extraction"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// GeminiExtractor calls the Gemini generateContent API with the invoice image
// and the fixed extraction prompt.
type GeminiExtractor struct {
	client *genai.Client // nil when no API key is configured
	model  string
	maxDim int
}

// NewGeminiExtractor builds the client. A missing API key is not an error
// here: every Extract call then fails with a configuration error instead.
func NewGeminiExtractor(ctx context.Context, apiKey, model string, maxDim int) (*GeminiExtractor, error) {
	e := &GeminiExtractor{model: model, maxDim: maxDim}
	if apiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set; invoice parsing is disabled")
		return e, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	e.client = client
	return e, nil
}

// Configured reports whether an API key was supplied.
func (e *GeminiExtractor) Configured() bool { return e.client != nil }

func (e *GeminiExtractor) Extract(ctx context.Context, data []byte, mimeType string) (*extraction.Document, error) {
	if e.client == nil {
		return nil, apierror.Configuration("GEMINI_API_KEY is not configured")
	}

	payload, payloadType, err := PrepareImage(data, mimeType, e.maxDim)
	if err != nil {
		log.Warn().Err(err).Str("mime_type", mimeType).Msg("gemini: image downscale failed, sending original")
		payload, payloadType = data, mimeType
	}

	parts := []*genai.Part{
		genai.NewPartFromText(extraction.Prompt),
		genai.NewPartFromBytes(payload, payloadType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		log.Error().Err(err).Str("model", e.model).Msg("gemini: request failed")
		return nil, apierror.Upstream("extraction call failed", err)
	}

	text := resp.Text()
	if text == "" {
		log.Error().Int("candidates", len(resp.Candidates)).Msg("gemini: empty response text")
	}
	doc, err := extraction.Decode(text)
	if err != nil {
		log.Error().Err(err).Str("response_text", text).Msg("gemini: undecodable response")
		return nil, err
	}
	return doc, nil
}
