package inference

import (
	"encoding/base64"
	"strings"
	"testing"

	"strider/internal/models"
	"strider/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeImagePayload(t *testing.T) {
	png := testutil.PNG(t)
	b64 := base64.StdEncoding.EncodeToString(png)

	tests := []struct {
		name    string
		payload string
	}{
		{"data url", "data:image/png;base64," + b64},
		{"bare base64", b64},
		{"unpadded", strings.TrimRight(b64, "=")},
		{"mislabelled data url", "data:image/jpeg;base64," + b64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, format, err := DecodeImagePayload(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, "png", format)
			assert.Equal(t, png, data)
		})
	}
}

func TestDecodeImagePayload_Rejects(t *testing.T) {
	for name, payload := range map[string]string{
		"empty":        "",
		"prefix only":  "data:image/png;base64,",
		"not base64":   "data:image/png;base64,@@@",
		"not an image": base64.StdEncoding.EncodeToString([]byte("hello world")),
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := DecodeImagePayload(payload)
			require.Error(t, err)
			assert.True(t, models.HasCode(err, models.CodeBadRequest))
		})
	}
}
