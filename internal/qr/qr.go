// Package qr renders lookup tokens into scannable images for the
// printed place cards.  The token stays opaque: what is encoded is the
// portal URL carrying it, and nothing here depends on what the token
// means.
package qr

import (
	"bytes"
	"fmt"

	"github.com/yeqown/go-qrcode"
)

// ContentType is the MIME type of the images Encode produces.
const ContentType = "image/jpeg"

// Encode renders the guest portal URL for a lookup token into an
// image and returns the raw bytes.
func Encode(portalBaseURL, token string) ([]byte, error) {
	content := fmt.Sprintf("%s/%s", portalBaseURL, token)
	qrc, err := qrcode.New(content)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := qrc.SaveTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
