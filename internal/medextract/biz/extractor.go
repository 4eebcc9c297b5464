package biz

import (
	"context"
	"errors"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/medextract/internal/model"
	"github.com/kart-io/medextract/pkg/llm"
)

// Default call settings for page extraction.
const (
	DefaultExtractionTemperature float32 = 0.1
	DefaultExtractionMaxTokens   int32   = 8192
)

// Page is one page image (or single-page PDF) of a submitted document.
type Page struct {
	Index    int
	Total    int
	Name     string
	MIMEType string
	Data     []byte
}

// ExtractorConfig 页面抽取配置。
type ExtractorConfig struct {
	Temperature     float32
	MaxOutputTokens int32
}

// Extractor sends page images to a vision model and parses the answer.
type Extractor struct {
	provider llm.VisionProvider
	config   ExtractorConfig
}

// NewExtractor 创建页面抽取器。零值配置使用默认参数。
func NewExtractor(provider llm.VisionProvider, config ExtractorConfig) *Extractor {
	if config.Temperature == 0 {
		config.Temperature = DefaultExtractionTemperature
	}
	if config.MaxOutputTokens <= 0 {
		config.MaxOutputTokens = DefaultExtractionMaxTokens
	}
	return &Extractor{provider: provider, config: config}
}

// ExtractPage extracts one page. It never returns an error: failures yield a
// stub page whose summary names the failure, and ok=false.
func (e *Extractor) ExtractPage(ctx context.Context, page Page) (model.PageExtraction, bool) {
	pageNo := page.Index + 1
	raw, err := e.provider.GenerateContent(ctx, &llm.GenerateRequest{
		Parts: []llm.Part{
			llm.BlobPart(page.MIMEType, page.Data),
			llm.TextPart(ExtractionPrompt(page.Index, page.Total)),
		},
		Temperature:     e.config.Temperature,
		MaxOutputTokens: e.config.MaxOutputTokens,
	})
	if err != nil {
		var statusErr *llm.StatusError
		if errors.As(err, &statusErr) {
			logger.Warnw("page extraction rejected by provider",
				"page", pageNo, "provider", e.provider.Name(), "status", statusErr.StatusCode, "error", err.Error())
			return model.FailedPage(fmt.Sprintf("Page %d could not be processed - API error: %d", pageNo, statusErr.StatusCode)), false
		}
		logger.Warnw("page extraction failed", "page", pageNo, "provider", e.provider.Name(), "error", err.Error())
		return model.FailedPage(fmt.Sprintf("Page %d could not be processed - Response read error", pageNo)), false
	}

	extracted, err := ParsePage(raw)
	if err != nil {
		logger.Warnw("page response could not be parsed", "page", pageNo, "error", err.Error(), "response_length", len(raw))
		return model.FailedPage(fmt.Sprintf("Page %d content could not be parsed - JSON parsing failed", pageNo)), false
	}
	logger.Debugw("page extracted", "page", pageNo, "name", page.Name, "prompt_version", ExtractionPromptVersion)
	return extracted, true
}
