package claude

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

const (
	visionMaxTokens    = 4096
	visionRenderDPI    = 150
	defaultVisionPages = 10
)

// Runner lets tests stub the pdftoppm invocation.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type VisionConfig struct {
	Model        string
	MaxPages     int
	PdftoppmPath string
	RenderDPI    int
}

// Vision analyzes documents whose extracted text failed the quality
// gate by showing the model rendered page images.
type Vision struct {
	client *Client
	cfg    VisionConfig
	runner Runner
}

func NewVision(client *Client, cfg VisionConfig, runner Runner) *Vision {
	if cfg.Model == "" {
		cfg.Model = domain.DefaultVisionModel
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultVisionPages
	}
	if cfg.PdftoppmPath == "" {
		cfg.PdftoppmPath = "pdftoppm"
	}
	if cfg.RenderDPI <= 0 {
		cfg.RenderDPI = visionRenderDPI
	}
	return &Vision{client: client, cfg: cfg, runner: runner}
}

// Analyze renders the document to page images and asks the vision model
// for a structured extraction. Failures come back inside the result;
// the caller decides what a failed attempt means for the run.
func (v *Vision) Analyze(ctx context.Context, path string) *domain.VisionResult {
	started := time.Now()

	images, mediaType, err := v.pageImages(ctx, path)
	if err != nil {
		slog.Error("vision page rendering failed", "path", path, "error", err)
		return v.failure(started, err)
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(images)+1)
	for _, img := range images {
		blocks = append(blocks, anthropic.NewImageBlockBase64(mediaType, base64.StdEncoding.EncodeToString(img)))
	}
	blocks = append(blocks, anthropic.NewTextBlock(buildVisionPrompt("legal")))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(v.cfg.Model),
		MaxTokens: visionMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: visionSystemPrompt}},
		Messages: []anthropic.MessageParam{
			{Role: anthropic.MessageParamRoleUser, Content: blocks},
		},
	}

	// One attempt only. A failed vision call turns into the poor-quality
	// outcome rather than burning the retry schedule on a large call.
	resp, err := v.client.api.Messages.New(ctx, params)
	if err != nil {
		slog.Error("vision model call failed", "error", err)
		return v.failure(started, err)
	}

	parsed := parseVisionResponse(messageText(resp))
	cost := domain.RoundUSD(domain.VisionRates.Cost(resp.Usage.InputTokens, resp.Usage.OutputTokens), 4)
	durationMS := time.Since(started).Milliseconds()

	slog.Info("vision analysis complete",
		"pages_processed", len(images),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"cost_usd", cost,
		"duration_ms", durationMS,
	)

	return &domain.VisionResult{
		Success:        true,
		Text:           parsed.Text,
		TextLength:     utf8.RuneCountInString(parsed.Text),
		Method:         domain.MethodVision,
		Model:          v.cfg.Model,
		PagesProcessed: len(images),
		DocumentType:   parsed.DocumentType,
		Entities:       parsed.Entities,
		FormFields:     parsed.FormFields,
		Confidence:     parsed.Confidence,
		InputTokens:    resp.Usage.InputTokens,
		OutputTokens:   resp.Usage.OutputTokens,
		DurationMS:     durationMS,
		CostUSD:        cost,
	}
}

func (v *Vision) failure(started time.Time, err error) *domain.VisionResult {
	return &domain.VisionResult{
		Success:    false,
		Method:     domain.MethodVisionFailed,
		Model:      v.cfg.Model,
		DurationMS: time.Since(started).Milliseconds(),
		Error:      err.Error(),
	}
}

var visionImageMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// pageImages renders PDF pages to PNG through pdftoppm. JPEG and PNG
// sources are sent to the model as-is; other formats have no rendering
// path and fail the attempt.
func (v *Vision) pageImages(ctx context.Context, path string) ([][]byte, string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if mediaType, ok := visionImageMIME[ext]; ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("read image source: %w", err)
		}
		return [][]byte{data}, mediaType, nil
	}
	if ext != ".pdf" {
		return nil, "", fmt.Errorf("no vision rendering for %q", ext)
	}

	tmpDir, err := os.MkdirTemp("", "vision-pages-*")
	if err != nil {
		return nil, "", fmt.Errorf("create render dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			slog.Warn("render dir cleanup failed", "path", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	_, _, err = v.runner.Run(ctx, v.cfg.PdftoppmPath,
		"-r", strconv.Itoa(v.cfg.RenderDPI), "-png",
		"-f", "1", "-l", strconv.Itoa(v.cfg.MaxPages),
		path, prefix,
	)
	if err != nil {
		return nil, "", fmt.Errorf("render pdf pages: %w", err)
	}

	// pdftoppm pads page numbers, so lexicographic order is page order.
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) > v.cfg.MaxPages {
		matches = matches[:v.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, "", errors.New("no pages rendered")
	}

	images := make([][]byte, 0, len(matches))
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			return nil, "", fmt.Errorf("read rendered page: %w", err)
		}
		images = append(images, data)
	}
	return images, "image/png", nil
}

type visionPayload struct {
	Text         string         `json:"text"`
	DocumentType string         `json:"document_type"`
	Entities     map[string]any `json:"entities"`
	FormFields   map[string]any `json:"form_fields"`
	Confidence   float64        `json:"confidence"`
}

var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// parseVisionResponse decodes the model reply: direct JSON first, then
// a fenced code block, then the raw text with reduced confidence.
func parseVisionResponse(raw string) visionPayload {
	var payload visionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err == nil {
		return payload.withDefaultConfidence()
	}
	if m := fencedJSONPattern.FindStringSubmatch(raw); m != nil {
		if err := json.Unmarshal([]byte(m[1]), &payload); err == nil {
			slog.Info("vision json recovered from fenced block")
			return payload.withDefaultConfidence()
		}
	}
	slog.Warn("vision response not valid json, using raw text")
	return visionPayload{Text: raw, Confidence: 0.7}
}

func (p visionPayload) withDefaultConfidence() visionPayload {
	if p.Confidence == 0 {
		p.Confidence = 0.8
	}
	return p
}
