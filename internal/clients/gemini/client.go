// Package gemini wraps the Gemini generateContent REST API for the two
// provider calls the engine makes: field log text and multi-entry TTS audio.
// The client is pure I/O: it never touches the store or the job record.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	errs "github.com/yungbote/fieldlog-backend/internal/pkg/errors"
	"github.com/yungbote/fieldlog-backend/internal/pkg/httpx"
	"github.com/yungbote/fieldlog-backend/internal/pkg/logger"
)

// TTSSampleRate is the PCM sample rate Gemini TTS returns (s16le mono).
const TTSSampleRate = 24000

const (
	defaultBaseURL   = "https://generativelanguage.googleapis.com"
	defaultTextModel = "gemini-2.5-flash"
	defaultTTSModel  = "gemini-2.5-flash-preview-tts"

	summaryMaxAttempts = 4
	ttsMaxAttempts     = 5

	transientBase = 1 * time.Second
	transientCap  = 64 * time.Second
	rateLimitBase = 15 * time.Second
	rateLimitCap  = 120 * time.Second
)

type Client interface {
	// GenerateSummary sends the prompt and returns the "summary" field of the
	// strict-JSON response. A missing or empty summary is a contract error.
	GenerateSummary(ctx context.Context, prompt string) (string, error)

	// GenerateTTS synthesizes the prompt with the named prebuilt voice and
	// returns raw 16-bit signed little-endian mono PCM at TTSSampleRate.
	GenerateTTS(ctx context.Context, text string, voice string) ([]byte, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	textModel  string
	ttsModel   string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}

	baseURL := strings.TrimSpace(os.Getenv("GEMINI_BASE_URL"))
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	textModel := strings.TrimSpace(os.Getenv("GEMINI_TEXT_MODEL"))
	if textModel == "" {
		textModel = defaultTextModel
	}
	ttsModel := strings.TrimSpace(os.Getenv("GEMINI_TTS_MODEL"))
	if ttsModel == "" {
		ttsModel = defaultTTSModel
	}

	return &client{
		log:        log.With("service", "GeminiClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		textModel:  textModel,
		ttsModel:   ttsModel,
		httpClient: &http.Client{Timeout: 180 * time.Second},
	}, nil
}

type geminiHTTPError struct {
	StatusCode int
	Body       string
}

func (e *geminiHTTPError) Error() string {
	return fmt.Sprintf("gemini http %d: %s", e.StatusCode, e.Body)
}

func (e *geminiHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) doOnce(ctx context.Context, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &geminiHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

// do runs the request with bounded retry. The rate-limit class (429,
// "resource exhausted", "overloaded") backs off on a longer schedule than
// ordinary transient failures; non-retryable errors surface immediately.
func (c *client) do(ctx context.Context, path string, body any, out any, maxAttempts int) error {
	backoff := transientBase
	rlBackoff := rateLimitBase

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return errs.Contract("gemini decode error: %v; raw=%s", uErr, truncate(string(raw), 512))
			}
			return nil
		}

		if !httpx.IsRetryableError(err) {
			return err
		}
		if attempt == maxAttempts {
			if httpx.IsRateLimitError(err) {
				return errs.RateLimited(err)
			}
			return errs.Transient(err)
		}

		var sleepFor time.Duration
		if httpx.IsRateLimitError(err) {
			sleepFor = httpx.RetryAfterDuration(resp, rlBackoff, rateLimitCap)
			rlBackoff *= 2
			if rlBackoff > rateLimitCap {
				rlBackoff = rateLimitCap
			}
		} else {
			sleepFor = httpx.RetryAfterDuration(resp, backoff, transientCap)
			backoff *= 2
			if backoff > transientCap {
				backoff = transientCap
			}
		}
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("Gemini request retrying",
			"path", path,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		select {
		case <-time.After(sleepFor):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("unreachable retry loop")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ---- generateContent request/response shapes ----

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"` // base64
}

type generationConfig struct {
	ResponseMimeType   string          `json:"responseMimeType,omitempty"`
	ResponseSchema     map[string]any  `json:"responseSchema,omitempty"`
	ResponseModalities []string        `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig   `json:"speechConfig,omitempty"`
	Temperature        float64         `json:"temperature,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason,omitempty"`
	} `json:"candidates"`
}

func (r *generateResponse) firstPart() (part, bool) {
	if r == nil || len(r.Candidates) == 0 {
		return part{}, false
	}
	parts := r.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return part{}, false
	}
	return parts[0], true
}
