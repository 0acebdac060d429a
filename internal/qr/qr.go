package qr

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const DefaultSize = 256

// DataURL renders content as a PNG QR code inlined in a data: URL.
func DataURL(content string, size int) (string, error) {
	if content == "" {
		return "", fmt.Errorf("qr: empty content")
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return "", fmt.Errorf("qr: encode: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
