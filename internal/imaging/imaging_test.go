package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func TestNormalizeResizes(t *testing.T) {
	out, err := Normalize(encodePNG(t, 100, 60))
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if cfg.Width != TargetWidth || cfg.Height != TargetHeight {
		t.Errorf("got %dx%d, want %dx%d", cfg.Width, cfg.Height, TargetWidth, TargetHeight)
	}
}

func TestNormalizeKeepsTargetSize(t *testing.T) {
	out, err := Normalize(encodePNG(t, TargetWidth, TargetHeight))
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if cfg.Width != TargetWidth || cfg.Height != TargetHeight {
		t.Errorf("got %dx%d, want %dx%d", cfg.Width, cfg.Height, TargetWidth, TargetHeight)
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	if _, err := Normalize([]byte("not an image")); err == nil {
		t.Fatal("expected error for non-image data")
	}
}

func TestDecodeBase64DataURL(t *testing.T) {
	raw := encodePNG(t, 4, 4)
	encoded := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)
	got, err := DecodeBase64(encoded)
	if err != nil {
		t.Fatalf("DecodeBase64 returned error: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("decoded bytes do not match original")
	}
}

func TestDecodeBase64FixesPadding(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("hello world"))
	trimmed := bytes.TrimRight([]byte(encoded), "=")
	got, err := DecodeBase64(string(trimmed))
	if err != nil {
		t.Fatalf("DecodeBase64 returned error: %v", err)
	}
	if string(got) != "hello world" {
		t.Errorf("got %q", got)
	}
}
