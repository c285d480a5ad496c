package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const systemPrompt = `You judge whether a web page is the official website of a specific Italian business.
Answer with a single JSON object: {"is_match": bool, "confidence": 0-100, "reason": "short explanation"}.
Directories, social profiles, marketplaces, and news articles are never official websites.`

// AnthropicVerifier implements Verifier on the Anthropic Messages API.
type AnthropicVerifier struct {
	client  sdk.Client
	model   string
	timeout time.Duration
}

// NewAnthropic creates a verifier using the given model.
func NewAnthropic(apiKey, model string, timeout time.Duration) *AnthropicVerifier {
	return &AnthropicVerifier{
		client:  sdk.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		timeout: timeout,
	}
}

// Verify asks the model for a match judgment. Malformed model output is
// an error; callers treat verifier errors as "no promotion".
func (v *AnthropicVerifier) Verify(ctx context.Context, req Request) (*Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"Business: %s\nCity: %s\nAddress: %s\nVAT: %s\n\nCandidate page:\nURL: %s\nTitle: %s\nSnippet: %s",
		req.CompanyName, req.City, req.Address, req.VATID, req.URL, req.Title, req.Snippet,
	)

	msg, err := v.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(v.model),
		MaxTokens: 256,
		System: []sdk.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "verify: anthropic request")
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	verdict, err := parseVerdict(text.String())
	if err != nil {
		return nil, err
	}

	zap.L().Debug("verify: verdict",
		zap.String("url", req.URL),
		zap.Bool("is_match", verdict.IsMatch),
		zap.Float64("confidence", verdict.Confidence),
	)
	return verdict, nil
}

// parseVerdict extracts the JSON object from the model's reply, which
// may be wrapped in prose or a code fence.
func parseVerdict(s string) (*Verdict, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, eris.Errorf("verify: no JSON object in reply: %.200s", s)
	}

	var v Verdict
	if err := json.Unmarshal([]byte(s[start:end+1]), &v); err != nil {
		return nil, eris.Wrap(err, "verify: parse verdict")
	}
	if v.Confidence < 0 {
		v.Confidence = 0
	}
	if v.Confidence > 100 {
		v.Confidence = 100
	}
	return &v, nil
}
