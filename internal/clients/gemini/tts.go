package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	errs "github.com/yungbote/fieldlog-backend/internal/pkg/errors"
)

func (c *client) GenerateTTS(ctx context.Context, text string, voice string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.Validation("tts text required")
	}
	voice = strings.TrimSpace(voice)
	if voice == "" {
		voice = "Kore"
	}

	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: text}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: voice},
				},
			},
		},
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateContent", c.ttsModel)
	var resp generateResponse
	if err := c.do(ctx, path, req, &resp, ttsMaxAttempts); err != nil {
		return nil, err
	}

	p, ok := resp.firstPart()
	if !ok || p.InlineData == nil || strings.TrimSpace(p.InlineData.Data) == "" {
		return nil, errs.Contract("gemini tts response has no audio data")
	}

	pcm, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
	if err != nil {
		return nil, errs.Contract("gemini tts audio is not valid base64: %v", err)
	}
	if len(pcm) == 0 {
		return nil, errs.Contract("gemini tts returned empty audio")
	}
	return pcm, nil
}
