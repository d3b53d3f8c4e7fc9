// ABOUTME: Extraction coordinator chains extractors behind a quality gate
// ABOUTME: Falls back from cheap to expensive tiers only when the result is insufficient

package extract

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"readaloud-api/core/domain"
	"readaloud-api/core/interfaces"
)

// MinContentLength is the shortest body the quality gate accepts
const MinContentLength = 200

// Sufficient is the quality gate: a result passes when it has a title and
// at least MinContentLength characters of content
func Sufficient(e domain.Extraction) bool {
	return strings.TrimSpace(e.Title) != "" && utf8.RuneCountInString(e.Content) >= MinContentLength
}

// Tier is one named step of the extraction chain
type Tier struct {
	Name      string
	Extractor interfaces.Extractor
}

// Coordinator implements interfaces.Extractor over an ordered chain of tiers.
// Every tier but the last must pass the gate; the last tier's result is used
// as-is.
type Coordinator struct {
	tiers   []Tier
	gate    func(domain.Extraction) bool
	logger  interfaces.Logger
	metrics interfaces.PipelineMetrics
}

// NewCoordinator creates a coordinator; metrics may be nil
func NewCoordinator(logger interfaces.Logger, metrics interfaces.PipelineMetrics, tiers ...Tier) *Coordinator {
	if metrics == nil {
		metrics = interfaces.NopMetrics{}
	}
	return &Coordinator{
		tiers:   tiers,
		gate:    Sufficient,
		logger:  logger,
		metrics: metrics,
	}
}

// Extract implements interfaces.Extractor
func (c *Coordinator) Extract(ctx context.Context, markup string, sourceURL string) (domain.Extraction, error) {
	if len(c.tiers) == 0 {
		return domain.Extraction{}, errors.New("no extractors configured")
	}

	last := len(c.tiers) - 1
	for i, tier := range c.tiers {
		result, err := tier.Extractor.Extract(ctx, markup, sourceURL)
		if result.Tier == "" {
			result.Tier = tier.Name
		}

		if i == last {
			if err != nil {
				return domain.Extraction{}, err
			}
			c.metrics.ExtractionTier(tier.Name)
			return result, nil
		}

		if err != nil {
			c.logger.Warn("Extraction tier failed, falling back", map[string]interface{}{
				"url":   sourceURL,
				"tier":  tier.Name,
				"error": err.Error(),
			})
			continue
		}
		if c.gate(result) {
			c.metrics.ExtractionTier(tier.Name)
			return result, nil
		}

		c.logger.Debug("Extraction below quality gate, falling back", map[string]interface{}{
			"url":         sourceURL,
			"tier":        tier.Name,
			"content_len": utf8.RuneCountInString(result.Content),
		})
	}

	// unreachable: the last tier always returns
	return domain.Extraction{}, errors.New("extraction chain exhausted")
}

// TierNames lists the configured tiers in the order they are tried
func (c *Coordinator) TierNames() []string {
	names := make([]string, 0, len(c.tiers))
	for _, t := range c.tiers {
		names = append(names, t.Name)
	}
	return names
}
