// Package anthropic implements question generation over the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/aparasochka/greektutor/internal/content"
	"github.com/aparasochka/greektutor/internal/domain"
)

// Config holds per-call model settings.
type Config struct {
	Model       string
	MaxTokens   int64
	Temperature float64
	CallTimeout time.Duration
}

// Generator produces candidate quiz questions via Claude. Implements the
// generation interface consumed by the content pipeline.
type Generator struct {
	client sdk.Client
	cfg    Config
	log    *slog.Logger
}

func NewGenerator(client sdk.Client, cfg Config, log *slog.Logger) *Generator {
	return &Generator{client: client, cfg: cfg, log: log}
}

const systemPrompt = "Ты генератор JSON-вопросов для квиза по греческому языку. " +
	"Отвечай ТОЛЬКО валидным JSON без markdown и пояснений."

// Generate requests one candidate per plan slot in plan order.
func (g *Generator) Generate(ctx context.Context, plan []domain.Topic, profile content.UserContext) ([]content.Candidate, error) {
	raw, err := g.complete(ctx, buildBatchPrompt(plan, profile))
	if err != nil {
		return nil, err
	}
	return decodeResponse(raw)
}

// Repair regenerates only the rejected slots, returning replacements in
// request order.
func (g *Generator) Repair(ctx context.Context, reqs []content.RepairRequest, profile content.UserContext) ([]content.Candidate, error) {
	raw, err := g.complete(ctx, buildRepairPrompt(reqs, profile))
	if err != nil {
		return nil, err
	}
	return decodeResponse(raw)
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	if g.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.CallTimeout)
		defer cancel()
	}

	started := time.Now()
	msg, err := g.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(g.cfg.Model),
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: sdk.Float(g.cfg.Temperature),
		System: []sdk.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("messages api: %w", err)
	}
	if len(msg.Content) == 0 {
		return "", fmt.Errorf("empty model response")
	}

	g.log.Debug("model call finished",
		slog.String("model", g.cfg.Model),
		slog.Duration("took", time.Since(started)),
	)
	return msg.Content[0].Text, nil
}

// decodeResponse extracts the JSON array from the model output and parses it
// into candidates.
func decodeResponse(raw string) ([]content.Candidate, error) {
	payload, err := extractJSONArray(raw)
	if err != nil {
		return nil, err
	}
	batch, err := content.DecodeBatch([]byte(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrGenerationInvalid, err)
	}
	return batch, nil
}

// extractJSONArray finds the first complete JSON array in a string. Models
// occasionally wrap output in markdown fences despite instructions.
func extractJSONArray(s string) (string, error) {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("%w: no JSON array found in response", domain.ErrGenerationInvalid)
	}
	payload := s[start : end+1]
	if !json.Valid([]byte(payload)) {
		return "", fmt.Errorf("%w: response is not valid JSON", domain.ErrGenerationInvalid)
	}
	return payload, nil
}
