package bootstrap

import (
	"context"
	"testing"

	"strider/internal/config"
	"strider/internal/inference"
	"strider/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCaptioner_Stub(t *testing.T) {
	gen := NewCaptioner(&config.Config{CaptionProvider: "stub", CaptionTimeoutSeconds: 1})
	require.IsType(t, &inference.Instrumented{}, gen)

	caption, err := gen.GenerateCaption(context.Background(), testutil.PNG(t))
	require.NoError(t, err)
	assert.Equal(t, "a photo", caption)
}

func TestNewCaptioner_HuggingFace(t *testing.T) {
	gen := NewCaptioner(&config.Config{
		CaptionProvider:       "huggingface",
		CaptionEndpoint:       "http://127.0.0.1:1",
		CaptionModel:          inference.DefaultModel,
		CaptionTimeoutSeconds: 1,
	})
	require.IsType(t, &inference.Instrumented{}, gen)

	_, err := gen.GenerateCaption(context.Background(), testutil.PNG(t))
	require.Error(t, err)
	assert.True(t, inference.IsTransient(err))
}
