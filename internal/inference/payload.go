package inference

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"regexp"
	"strings"

	"strider/internal/models"

	// Registered decoders for the formats a post photo may use.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

var dataURLPrefix = regexp.MustCompile(`^data:image/[a-z0-9.+-]+;base64,`)

// DecodeImagePayload turns a stored photo payload into raw image bytes. The payload is
// base64, optionally wrapped as a data URL. It returns the detected format and fails with
// BadRequest when the payload is not a decodable image.
func DecodeImagePayload(photo string) ([]byte, string, error) {
	raw := dataURLPrefix.ReplaceAllString(strings.TrimSpace(photo), "")
	if raw == "" {
		return nil, "", models.NewBadRequestError("Post has no image to caption")
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		// some clients drop the padding
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(raw, "="))
		if err != nil {
			return nil, "", models.NewBadRequestError(fmt.Sprintf("Image payload is not valid base64: %v", err))
		}
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", models.NewBadRequestError(fmt.Sprintf("Image payload is not a supported image: %v", err))
	}
	return data, format, nil
}
