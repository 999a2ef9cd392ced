package storage

import (
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DetectMIME sniffs the content type of r and rewinds it.
func DetectMIME(r io.ReadSeeker) (string, error) {
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("detect mime: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}
	return mt.String(), nil
}

// MIMEAllowed reports whether detected matches one of the allowed entries.
// Entries may use a trailing wildcard such as "image/*". An empty list allows everything.
func MIMEAllowed(detected string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(detected, ";", 2)[0]))
	for _, entry := range allowed {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if strings.HasSuffix(entry, "/*") {
			if strings.HasPrefix(base, strings.TrimSuffix(entry, "*")) {
				return true
			}
			continue
		}
		if mt := mimetype.Lookup(base); mt != nil && mt.Is(entry) {
			return true
		}
		if base == entry {
			return true
		}
	}
	return false
}
