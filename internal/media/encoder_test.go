package media

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFromReaderRoundTrip(t *testing.T) {
	original := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 1, 2, 3, 4}
	payload, err := FromReader(bytes.NewReader(original), "photo.png")
	if err != nil {
		t.Fatalf("FromReader returned error: %v", err)
	}
	if payload == nil {
		t.Fatal("FromReader returned nil payload for non-empty input")
	}
	decoded, err := payload.Decode()
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Fatalf("Decode = %v, want %v", decoded, original)
	}
}

func TestFromReaderEmptyInput(t *testing.T) {
	payload, err := FromReader(bytes.NewReader(nil), "empty.jpg")
	if err != nil {
		t.Fatalf("FromReader returned error: %v", err)
	}
	if payload != nil {
		t.Fatalf("payload = %+v, want nil for empty input", payload)
	}
}

func TestFromFileMissing(t *testing.T) {
	if _, err := FromFile(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFromFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.bin")
	original := []byte("not an image, but still encodable")
	if err := os.WriteFile(path, original, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	payload, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile returned error: %v", err)
	}
	decoded, err := payload.Decode()
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Fatalf("round trip mismatch: got %q want %q", decoded, original)
	}
}

func TestDetectMIME(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		filename string
		want     string
	}{
		{"png magic", []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0}, "x.bin", "image/png"},
		{"jpeg magic", []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0, 'J', 'F', 'I', 'F'}, "x.bin", "image/jpeg"},
		{"extension fallback", bytes.Repeat([]byte{0x00}, 16), "payload.json", "application/json"},
		{"unknown stays octet-stream", bytes.Repeat([]byte{0x00}, 16), "blob.xyz123", "application/octet-stream"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := detectMIME(tc.raw, tc.filename); got != tc.want {
				t.Fatalf("detectMIME = %q, want %q", got, tc.want)
			}
		})
	}
}
