package util

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagScanURL(t *testing.T) {
	assert.Equal(t, "https://reviews.example.com/scan/abc", TagScanURL("https://reviews.example.com/", "abc"))
	assert.Equal(t, "http://localhost:3000/scan/abc", TagScanURL("http://localhost:3000", "abc"))
}

func TestRenderTagQR_ProducesPNG(t *testing.T) {
	png, err := RenderTagQR("https://reviews.example.com", "0b7c2f6e-3f57-4a53-9d1c-0e6f0c9a7f11")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))
}
