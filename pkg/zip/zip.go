package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// Entry is one file to place in the archive.
type Entry struct {
	Filename string
	Data     []byte
}

// Archive bundles the entries into a zip archive, preserving order.
func Archive(entries []Entry) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, entry := range entries {
		w, err := zw.Create(entry.Filename)
		if err != nil {
			return nil, fmt.Errorf("zip: create %s: %w", entry.Filename, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", entry.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close archive: %w", err)
	}
	return buf.Bytes(), nil
}
