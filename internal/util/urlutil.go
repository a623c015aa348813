package util

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"asciimation/internal/model"
)

// DetectSource classifies raw as a magnet link, an existing local file or a
// web URL. A web URL without a scheme gets https://.
func DetectSource(raw string) (model.Source, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.Source{}, fmt.Errorf("empty source")
	}

	if strings.HasPrefix(strings.ToLower(raw), "magnet:") {
		u, err := url.Parse(raw)
		if err != nil || !strings.HasPrefix(u.Query().Get("xt"), "urn:btih:") {
			return model.Source{}, fmt.Errorf("invalid magnet link %q", raw)
		}
		return model.Source{Kind: model.SourceMagnet, Raw: raw}, nil
	}

	if fi, err := os.Stat(raw); err == nil && fi.Mode().IsRegular() {
		abs, aerr := filepath.Abs(raw)
		if aerr != nil {
			abs = raw
		}
		return model.Source{Kind: model.SourceFile, Raw: abs}, nil
	}

	u, err := url.Parse(raw)
	guessed := false
	if err == nil && (u.Scheme == "" || u.Host == "") {
		if u2, e2 := url.Parse("https://" + raw); e2 == nil {
			u, guessed = u2, true
		}
	}
	if err != nil || u.Host == "" {
		return model.Source{}, fmt.Errorf("invalid URL %q", raw)
	}
	// Without a scheme, only a dotted host reads as a URL.
	if guessed && !strings.Contains(u.Host, ".") {
		return model.Source{}, fmt.Errorf("invalid URL %q", raw)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return model.Source{}, fmt.Errorf("unsupported URL scheme %q in %q", u.Scheme, raw)
	}
	return model.Source{Kind: model.SourceWeb, Raw: u.String()}, nil
}
