package util

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

const qrSize = 512

// TagScanURL is the payload printed on a tag: the public scan page for tagID.
func TagScanURL(baseURL, tagID string) string {
	return fmt.Sprintf("%s/scan/%s", strings.TrimRight(baseURL, "/"), tagID)
}

// RenderTagQR encodes the scan URL of a tag as a PNG.
func RenderTagQR(baseURL, tagID string) ([]byte, error) {
	png, err := qrcode.Encode(TagScanURL(baseURL, tagID), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}
