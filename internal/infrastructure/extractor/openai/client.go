// Package openai provides an Extractor that reads J294 forms with an OpenAI
// vision model.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/ersonp/provpack/internal/domain/entities"
	"github.com/ersonp/provpack/internal/domain/ports"
	"github.com/ersonp/provpack/internal/infrastructure/config"
)

const defaultModel = "gpt-4o-mini"

const extractionPrompt = `You read scanned South African estate files. The images are pages of a
J294 "Death Notice" form, usually in Afrikaans. Extract the form fields.

Return ONLY a JSON object of this shape, no other text:
{
  "formType": "J294",
  "deceased": {
    "fullName": "...", "deathDate": "...", "deathPlace": "...",
    "residence": "...", "maritalStatus": "getroud|ongetroud|weduwee|weduenaar",
    "spouse": "..."
  },
  "parents": {"father": "...", "mother": "..."},
  "children": [{"name": "...", "status": "minderjarig|meerderjarig", "birth": "...", "spouse": "...", "notes": "..."}],
  "citations": [{"sourceId": "...", "page": 1, "field": "deceased.fullName", "bbox": [x, y, width, height], "confidence": 0.0}]
}

Rules:
- Copy names exactly as written, including "(gebore ...)" for maiden names.
- Copy dates as written; do not reformat them.
- Omit optional fields you cannot read. Omit "parents" if the form has none.
- Add one citation per field you read. "field" is a path such as
  "deceased.deathDate" or "children[2].name". "sourceId" is the image label
  given before each page. "bbox" is in page pixels. "confidence" is 0.0-1.0.`

// Client implements ports.Extractor using OpenAI chat completions with
// image inputs.
type Client struct {
	client  *openai.Client
	model   string
	pages   ports.PageSource
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*openai.ClientConfig)

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(url string) Option {
	return func(c *openai.ClientConfig) {
		c.BaseURL = url
	}
}

// NewClient creates a new OpenAI extractor reading page images from pages.
func NewClient(cfg config.ExtractorConfig, pages ports.PageSource, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if pages == nil {
		return nil, errors.New("page source is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	for _, opt := range opts {
		opt(&clientCfg)
	}

	model := defaultModel
	if cfg.Model != "" {
		model = cfg.Model
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		pages:   pages,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// Extract sends the requested page images to the model and decodes its
// answer. The result is not validated.
func (c *Client) Extract(ctx context.Context, packetID string, pages []int) (*entities.Extraction, error) {
	if len(pages) == 0 {
		return nil, errors.New("at least one page is required")
	}

	parts := []openai.ChatMessagePart{{
		Type: openai.ChatMessagePartTypeText,
		Text: fmt.Sprintf("Packet %s, %d page(s).", packetID, len(pages)),
	}}
	for _, page := range pages {
		data, err := c.pages.PageBytes(ctx, packetID, page)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", page, err)
		}
		parts = append(parts,
			openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: fmt.Sprintf("Page %d, image label %q:", page, imageLabel(packetID, page)),
			},
			openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL(data),
					Detail: openai.ImageURLDetailHigh,
				},
			},
		)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limit: %w", err)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: extractionPrompt,
			},
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("calling OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	content := cleanJSONResponse(resp.Choices[0].Message.Content)

	var x entities.Extraction
	if err := json.Unmarshal([]byte(content), &x); err != nil {
		return nil, fmt.Errorf("parsing extraction JSON: %w (response: %s)", err, content)
	}
	if x.Parents != nil && x.Parents.Father == "" && x.Parents.Mother == "" {
		x.Parents = nil
	}
	for i := range x.Citations {
		if x.Citations[i].SourceID == "" && x.Citations[i].Page > 0 {
			x.Citations[i].SourceID = imageLabel(packetID, x.Citations[i].Page)
		}
	}

	return &x, nil
}

func imageLabel(packetID string, page int) string {
	return fmt.Sprintf("%s:img:%04d", packetID, page)
}

func dataURL(data []byte) string {
	return "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// cleanJSONResponse removes markdown code blocks if present.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}

	return strings.TrimSpace(content)
}
