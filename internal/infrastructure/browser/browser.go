// Package browser holds helpers shared by the browser session adapters.
package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/url"

	"schoolbus-uitest/internal/domain/entity"

	"github.com/disintegration/imaging"
)

const (
	maxScreenshotWidth = 1024
	screenshotQuality  = 75
)

// ValidateURL accepts only absolute http(s) URLs.
func ValidateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty url", entity.ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", entity.ErrInvalidURL, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q: scheme must be http or https", entity.ErrInvalidURL, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %q: missing host", entity.ErrInvalidURL, raw)
	}
	return nil
}

// LookupError classifies a failed element lookup. Cancellation of the
// caller's context is reported as is; anything else means the element never
// showed up.
func LookupError(ctx context.Context, loc entity.Locator, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("find %s: %w", loc, ctxErr)
	}
	if errors.Is(err, entity.ErrElementNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", entity.ErrElementNotFound, loc, err)
}

// EncodeScreenshot downsizes a captured PNG or JPEG and re-encodes it as JPEG.
func EncodeScreenshot(raw []byte) (*entity.Screenshot, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > maxScreenshotWidth {
		img = imaging.Resize(img, maxScreenshotWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: screenshotQuality}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}
