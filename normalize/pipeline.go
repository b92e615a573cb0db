// Package normalize turns raw email body text into stable Markdown through an
// ordered chain of best-effort transforms. Every stage is independently
// fallible; a failing stage is skipped and the text from before it is carried
// forward, so normalization as a whole never fails the caller.
package normalize

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Stage is one named text transform.
type Stage struct {
	Name string
	Fn   func(string) (string, error)
}

// Pipeline runs the stages in their fixed order. The order is load-bearing:
// hashtag escaping has to run after quote collapsing and before the HTML
// conversion, the reflow pass assumes the header markers were already
// unescaped, and the final whitespace pass cleans up after everything else.
type Pipeline struct {
	stages []Stage
	logger *slog.Logger
}

func NewPipeline(logger *slog.Logger) *Pipeline {
	return &Pipeline{stages: Stages(), logger: logger}
}

// Normalize converts rawText to Markdown. It is total: stage errors and
// panics skip the stage, and the result is always valid UTF-8.
func (p *Pipeline) Normalize(rawText string) string {
	text := strings.ReplaceAll(rawText, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}

	for _, stage := range p.stages {
		out, err := runStage(stage, text)
		if err != nil {
			if p.logger != nil {
				p.logger.Debug("normalize stage skipped", "stage", stage.Name, "err", err)
			}
			continue
		}
		text = out
	}
	return text
}

func runStage(stage Stage, in string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage %s: %v", stage.Name, r)
		}
	}()
	return stage.Fn(in)
}

// Stages returns the transform chain in execution order.
func Stages() []Stage {
	return []Stage{
		{Name: "quote-collapse", Fn: collapseQuoteMarkers},
		{Name: "style-strip", Fn: stripStyleRemnants},
		{Name: "banner-strip", Fn: stripExternalBanner},
		{Name: "signature-strip", Fn: stripClientSignatures},
		{Name: "reply-truncate", Fn: truncateQuotedReply},
		{Name: "hashtag-escape", Fn: escapeHashtags},
		{Name: "escape-cleanup", Fn: cleanEscapeArtifacts},
		{Name: "wrote-spacing", Fn: spaceWroteMarkers},
		{Name: "header-unescape", Fn: unescapeHeaderMarkers},
		{Name: "html-convert", Fn: convertHTML},
		{Name: "reflow", Fn: reflowParagraphs},
		{Name: "table-remnants", Fn: dropTableRemnants},
		{Name: "banner-normalize", Fn: normalizeStructuralBanners},
		{Name: "divider-truncate", Fn: truncateDividerBlocks},
		{Name: "rule-shorten", Fn: shortenLongRules},
		{Name: "softwrap-rejoin", Fn: rejoinSoftWrappedLines},
		{Name: "paragraph-spacing", Fn: spaceParagraphs},
		{Name: "quote-continuity", Fn: continueQuotePrefixes},
		{Name: "legal-strip", Fn: stripLegalBoilerplate},
		{Name: "trailing-quote-strip", Fn: stripTrailingQuoteMarkers},
		{Name: "divider-respace", Fn: respaceDividers},
		{Name: "promo-filter", Fn: dropPromotionalLines},
		{Name: "whitespace-final", Fn: normalizeWhitespace},
	}
}
