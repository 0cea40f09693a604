// Package inference wraps the external image-captioning model behind a small interface.
package inference

import (
	"context"
	"log/slog"
	"time"

	"strider/internal/observability"
)

// DefaultModel is the captioning model used when none is configured.
const DefaultModel = "nlpconnect/vit-gpt2-image-captioning"

// CaptionGenerator turns image bytes into a caption.
type CaptionGenerator interface {
	GenerateCaption(ctx context.Context, image []byte) (string, error)
}

// Instrumented records latency and a client span around every call to next.
type Instrumented struct {
	next   CaptionGenerator
	name   string
	logger *slog.Logger
}

// Instrument wraps gen. name labels spans and log lines, e.g. "huggingface".
func Instrument(gen CaptionGenerator, name string, logger *slog.Logger) *Instrumented {
	if logger == nil {
		logger = slog.Default()
	}
	return &Instrumented{next: gen, name: name, logger: logger}
}

func (g *Instrumented) GenerateCaption(ctx context.Context, image []byte) (string, error) {
	start := time.Now()
	ctx, done := observability.TrackInference(ctx, g.name, len(image))

	caption, err := g.next.GenerateCaption(ctx, image)
	if err != nil {
		kind := Kind(err)
		done(kind, err)
		g.logger.WarnContext(ctx, "caption inference failed",
			slog.String("provider", g.name),
			slog.String("kind", kind),
			slog.Duration("latency", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return "", err
	}
	done("ok", nil)
	return caption, nil
}
