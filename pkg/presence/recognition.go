package presence

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// recognitionService implements the RecognitionService interface. The client
// side of the check-in flow is deliberately thin: a captured frame is
// base64-encoded and shipped to the backend, which owns all matching and
// decision logic.
type recognitionService struct {
	client *Client
}

// Recognize submits a captured frame for identification.
func (r *recognitionService) Recognize(ctx context.Context, imageData, mode string) (*RecognitionResult, error) {
	if imageData == "" {
		return nil, errors.New("no image data")
	}
	if mode == "" {
		mode = ModeArrival
	}

	body := map[string]string{
		"image": ensureDataURI(imageData),
		"mode":  mode,
	}

	var result RecognitionResult
	if err := r.client.post(ctx, "/reconnaissance/face/", body, &result); err != nil {
		return nil, err
	}

	if result.Mode == "" {
		result.Mode = mode
	}
	return &result, nil
}

// ensureDataURI prefixes bare base64 image data with the JPEG data-URI
// header the backend expects.
func ensureDataURI(imageData string) string {
	if strings.HasPrefix(imageData, "data:image") {
		return imageData
	}
	return "data:image/jpeg;base64," + imageData
}

// splitDataURI splits "data:<mime>;base64,<payload>" into its MIME type and
// payload.
func splitDataURI(uri string) (mimeType, payload string, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", "", errors.New("invalid base64 image format")
	}
	mimeType, payload, ok = strings.Cut(rest, ";base64,")
	if !ok || mimeType == "" || payload == "" {
		return "", "", errors.New("invalid base64 image format")
	}
	return mimeType, payload, nil
}
