package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	errs "github.com/yungbote/fieldlog-backend/internal/pkg/errors"
)

func (c *client) GenerateSummary(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errs.Validation("summary prompt required")
	}

	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema: map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"summary": map[string]any{"type": "STRING"},
				},
				"required": []string{"summary"},
			},
			Temperature: 0.7,
		},
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateContent", c.textModel)
	var resp generateResponse
	if err := c.do(ctx, path, req, &resp, summaryMaxAttempts); err != nil {
		return "", err
	}

	p, ok := resp.firstPart()
	if !ok || strings.TrimSpace(p.Text) == "" {
		return "", errs.Contract("gemini summary response has no text part")
	}

	var payload struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(p.Text), &payload); err != nil {
		return "", errs.Contract("gemini summary is not valid JSON: %v; text=%s", err, truncate(p.Text, 256))
	}
	summary := strings.TrimSpace(payload.Summary)
	if summary == "" {
		return "", errs.Contract("gemini summary response missing summary field")
	}
	return summary, nil
}
