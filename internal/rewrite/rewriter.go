package rewrite

import (
	"context"
	"log/slog"
	"strings"

	"curator/internal/config"
	"curator/internal/logging"
	"curator/internal/services"
	"curator/internal/textutil"
)

// TruncationNotice is appended when a transcript exceeds the input budget.
const TruncationNotice = "\n\n[内容已截断，以上为前半部分]"

// Request describes one item to rewrite.
type Request struct {
	Title      string
	Channel    string
	URL        string
	Transcript string
}

// Completer is the chat backend used by Rewriter.
type Completer interface {
	Configured() bool
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Rewriter produces the edited article for a transcript.
type Rewriter struct {
	client        Completer
	enabled       bool
	maxInputRunes int
	logger        *slog.Logger
}

// New builds a rewriter from configuration.
func New(cfg config.Rewrite, client Completer, logger *slog.Logger) *Rewriter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Rewriter{
		client:        client,
		enabled:       cfg.Enabled,
		maxInputRunes: cfg.MaxInputRunes,
		logger:        logging.NewComponentLogger(logger, "rewrite"),
	}
}

// Enabled reports whether rewriting is switched on and has credentials.
func (r *Rewriter) Enabled() bool {
	return r != nil && r.enabled && r.client != nil && r.client.Configured()
}

// Rewrite returns the markdown article for req.
func (r *Rewriter) Rewrite(ctx context.Context, req Request) (string, error) {
	if !r.Enabled() {
		return "", ErrNotConfigured
	}
	transcript := strings.TrimSpace(req.Transcript)
	if transcript == "" {
		return "", services.Wrap(services.ErrValidation, "rewrite", "prepare", "empty transcript", nil)
	}
	if r.maxInputRunes > 0 {
		if truncated := textutil.TruncateRunes(transcript, r.maxInputRunes); truncated != transcript {
			r.logger.Info("transcript truncated for rewrite",
				logging.Int("limit_runes", r.maxInputRunes),
				logging.String(logging.FieldDecisionType, "rewrite_truncation"),
			)
			transcript = truncated + TruncationNotice
		}
	}
	content, err := r.client.Complete(ctx, SystemPrompt, BuildUserPrompt(req, transcript))
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "rewrite", "complete", "", err)
	}
	article := stripCodeFence(content)
	if article == "" {
		return "", services.Wrap(services.ErrExternalTool, "rewrite", "complete", "empty article", nil)
	}
	return article, nil
}

// stripCodeFence removes a ```markdown ... ``` wrapper some models add.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = ""
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
