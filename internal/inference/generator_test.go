package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumented_PassesThrough(t *testing.T) {
	stub := &StubGenerator{Caption: "a photo"}
	gen := Instrument(stub, "stub", nil)

	caption, err := gen.GenerateCaption(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "a photo", caption)
	assert.Equal(t, int64(1), stub.Calls())

	stub.Err = NewFatalError(errors.New("boom"))
	_, err = gen.GenerateCaption(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Equal(t, int64(2), stub.Calls())
}

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"transient", NewTransientError(errors.New("model loading")), "transient"},
		{"fatal", NewFatalError(errors.New("bad token")), "fatal"},
		{"wrapped fatal", fmt.Errorf("huggingface: %w", NewFatalError(errors.New("bad image"))), "fatal"},
		{"unclassified", errors.New("surprise"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestInstrumented_LogsFailureKind(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	gen := Instrument(&StubGenerator{Err: NewTransientError(errors.New("503 loading"))}, "stub", logger)

	_, err := gen.GenerateCaption(context.Background(), []byte("img"))
	require.Error(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "caption inference failed", line["msg"])
	assert.Equal(t, "transient", line["kind"])
	assert.Equal(t, "stub", line["provider"])
}

func TestStubGenerator_RespectsDeadline(t *testing.T) {
	stub := &StubGenerator{Caption: "late", Delay: time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := stub.GenerateCaption(ctx, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
