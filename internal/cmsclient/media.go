package cmsclient

import (
	"net/url"
	"strings"
)

// Media is the subset of an uploaded file object the site uses.
type Media struct {
	ID              int64  `json:"id,omitempty"`
	URL             string `json:"url"`
	AlternativeText string `json:"alternativeText,omitempty"`
	Mime            string `json:"mime,omitempty"`
}

// MediaURL resolves a media reference against base. ref may be a URL string,
// a map or Record with a url member (v4 {data: {attributes: {url}}} included),
// or a *Media. Absolute URLs are returned unchanged.
func MediaURL(base string, ref any) (string, bool) {
	raw := mediaRef(ref)
	if raw == "" {
		return "", false
	}
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		return raw, true
	}
	return strings.TrimSuffix(base, "/") + raw, true
}

func mediaRef(ref any) string {
	switch v := ref.(type) {
	case string:
		return strings.TrimSpace(v)
	case *Media:
		if v == nil {
			return ""
		}
		return v.URL
	case Media:
		return v.URL
	case Record:
		return mediaRef(map[string]any(v))
	case map[string]any:
		if s, ok := v["url"].(string); ok {
			return s
		}
		if data, ok := v["data"]; ok {
			return mediaRef(data)
		}
		if attrs, ok := v["attributes"]; ok {
			return mediaRef(attrs)
		}
	case []any:
		if len(v) > 0 {
			return mediaRef(v[0])
		}
	}
	return ""
}
