package media

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Payload is a file encoded for inline transport to the generation API:
// base64 data plus the MIME type the backend needs alongside it.
type Payload struct {
	MIME string `json:"mime_type"`
	Data string `json:"data"`
}

// FromFile reads and encodes the file at path. A missing or unreadable file
// is an encoding error; there is no partial result.
func FromFile(path string) (*Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("media: open %s: %w", path, err)
	}
	defer f.Close()
	return FromReader(f, filepath.Base(path))
}

// FromReader consumes r fully and returns the encoded payload. The filename
// is used only as a MIME hint when content sniffing is inconclusive. A nil
// payload with nil error is returned for empty input, mirroring "no file
// selected".
func FromReader(r io.Reader, filename string) (*Payload, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("media: read %s: %w", filename, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return &Payload{
		MIME: detectMIME(raw, filename),
		Data: base64.StdEncoding.EncodeToString(raw),
	}, nil
}

// Decode returns the original bytes of the payload.
func (p *Payload) Decode() ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return nil, fmt.Errorf("media: decode payload: %w", err)
	}
	return raw, nil
}

func detectMIME(raw []byte, filename string) string {
	sniffed := http.DetectContentType(raw)
	if sniffed != "application/octet-stream" {
		return sniffed
	}
	if ext := filepath.Ext(filename); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			// Strip optional parameters such as "; charset=utf-8".
			if idx := strings.Index(byExt, ";"); idx > 0 {
				byExt = byExt[:idx]
			}
			return strings.TrimSpace(byExt)
		}
	}
	return sniffed
}
