package engine

import (
	"github.com/rambosorn/khadimy/internal/content"
	"github.com/rambosorn/khadimy/internal/metadata"
)

// Response formats.
const (
	FormatV4 = "v4" // {id, attributes: {...}}
	FormatV5 = "v5" // flat entries
)

// renderEntry shapes a record for the configured response format.
func (h *Handler) renderEntry(ct *metadata.ContentType, rec content.Record) any {
	if rec == nil {
		return nil
	}
	if h.format != FormatV4 {
		return map[string]any(rec)
	}

	attrs := make(map[string]any, len(rec))
	for k, v := range rec {
		if k == "id" {
			continue
		}
		attrs[k] = v
	}

	for _, f := range ct.PopulatableFields() {
		v, ok := attrs[f.Name]
		if !ok {
			continue
		}
		switch f.Type {
		case metadata.TypeRelation:
			target := h.registry.Get(f.Target)
			nested, _ := v.(content.Record)
			if nested == nil || target == nil {
				attrs[f.Name] = map[string]any{"data": nil}
				continue
			}
			attrs[f.Name] = map[string]any{"data": h.renderEntry(target, nested)}
		case metadata.TypeMedia:
			attrs[f.Name] = map[string]any{"data": renderMediaV4(v)}
		}
	}

	return map[string]any{"id": rec.ID(), "attributes": attrs}
}

func (h *Handler) renderList(ct *metadata.ContentType, records []content.Record) []any {
	out := make([]any, 0, len(records))
	for _, rec := range records {
		out = append(out, h.renderEntry(ct, rec))
	}
	return out
}

// renderMediaV4 wraps a media object (or list of them) as {id, attributes}.
func renderMediaV4(v any) any {
	switch m := v.(type) {
	case map[string]any:
		attrs := make(map[string]any, len(m))
		for k, val := range m {
			if k != "id" {
				attrs[k] = val
			}
		}
		return map[string]any{"id": m["id"], "attributes": attrs}
	case []any:
		out := make([]any, 0, len(m))
		for _, item := range m {
			out = append(out, renderMediaV4(item))
		}
		return out
	}
	return nil
}
