package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rambosorn/khadimy/internal/content"
	"github.com/rambosorn/khadimy/internal/metadata"
	"github.com/rambosorn/khadimy/internal/slug"
	"github.com/rambosorn/khadimy/internal/store"
)

var validate = validator.New()

// prepareWrite validates a create or update body and returns the attributes to
// store. old is nil on create.
func (h *Handler) prepareWrite(ctx context.Context, ct *metadata.ContentType, body map[string]any, old content.Record) (map[string]any, error) {
	isCreate := old == nil
	fields := make(map[string]any, len(body))
	rejected := make(map[string]bool)
	var errs []ErrorDetail

	for _, key := range sortedKeys(body) {
		val := body[key]
		switch key {
		case "id", "documentId", "createdAt", "updatedAt":
			continue
		case "publishedAt":
			if !ct.DraftAndPublish {
				errs = append(errs, invalidKey(key))
				continue
			}
			if val != nil {
				if s, ok := val.(string); !ok || !isTime(s) {
					errs = append(errs, *detail(key, "publishedAt must be a datetime"))
					continue
				}
			}
			fields[key] = val
			continue
		case "locale":
			if !ct.IsSingle() {
				errs = append(errs, invalidKey(key))
				continue
			}
			fields[key] = val
			continue
		}

		f := ct.GetField(key)
		if f == nil {
			errs = append(errs, invalidKey(key))
			continue
		}
		v, d := h.checkField(ctx, f, val)
		if d != nil {
			errs = append(errs, *d)
			rejected[key] = true
			continue
		}
		fields[key] = v
	}

	if isCreate && ct.Slug != nil && ct.Slug.Source != "" {
		if s, _ := fields[ct.Slug.Field].(string); s == "" {
			if src, _ := fields[ct.Slug.Source].(string); src != "" {
				fields[ct.Slug.Field] = slug.Make(src)
			}
		}
	}

	for _, f := range ct.Fields {
		// a supplied value that failed its type check is not also missing
		if !f.Required || rejected[f.Name] {
			continue
		}
		v, present := fields[f.Name]
		if (isCreate || present) && isBlank(v) {
			errs = append(errs, *detail(f.Name, fmt.Sprintf("%s is a required field", f.Name)))
		}
	}

	if len(errs) > 0 {
		return nil, ValidationError(errs)
	}

	merged := make(map[string]any, len(old)+len(fields))
	for k, v := range old {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	if ruleErrs := EvaluateRules(ct, merged, old, isCreate); len(ruleErrs) > 0 {
		return nil, ValidationError(ruleErrs)
	}

	return fields, nil
}

// checkField type-checks one attribute and returns the value to store.
func (h *Handler) checkField(ctx context.Context, f *metadata.Field, val any) (any, *ErrorDetail) {
	if val == nil {
		return nil, nil
	}
	switch f.Type {
	case metadata.TypeString, metadata.TypeText, metadata.TypeRichText:
		s, ok := val.(string)
		if !ok {
			return nil, detail(f.Name, fmt.Sprintf("%s must be a string", f.Name))
		}
		if len(f.Enum) > 0 && !slices.Contains(f.Enum, s) {
			return nil, detail(f.Name, fmt.Sprintf("%s must be one of the following values: %s", f.Name, strings.Join(f.Enum, ", ")))
		}
		return s, nil

	case metadata.TypeEmail:
		s, ok := val.(string)
		if !ok || validate.Var(s, "required,email") != nil {
			return nil, detail(f.Name, fmt.Sprintf("%s must be a valid email", f.Name))
		}
		return s, nil

	case metadata.TypeInteger:
		n, ok := val.(float64)
		if !ok || n != math.Trunc(n) {
			return nil, detail(f.Name, fmt.Sprintf("%s must be an integer", f.Name))
		}
		return int64(n), nil

	case metadata.TypeBoolean:
		b, ok := val.(bool)
		if !ok {
			return nil, detail(f.Name, fmt.Sprintf("%s must be a boolean", f.Name))
		}
		return b, nil

	case metadata.TypeDate, metadata.TypeDateTime:
		s, ok := val.(string)
		if !ok || !isTime(s) {
			return nil, detail(f.Name, fmt.Sprintf("%s must be a valid %s", f.Name, f.Type))
		}
		return s, nil

	case metadata.TypeMedia:
		return h.checkMedia(ctx, f, val)

	case metadata.TypeRelation:
		return h.checkRelation(ctx, f, val)
	}
	return val, nil
}

// checkMedia accepts an uploaded file id, a media object with a url, or a list of either.
func (h *Handler) checkMedia(ctx context.Context, f *metadata.Field, val any) (any, *ErrorDetail) {
	switch v := val.(type) {
	case float64:
		file, err := h.files.FindByID(ctx, int64(v))
		if err != nil {
			return nil, detail(f.Name, fmt.Sprintf("file %v not found", v))
		}
		return file.Media(), nil
	case map[string]any:
		if _, ok := v["url"].(string); !ok {
			return nil, detail(f.Name, fmt.Sprintf("%s must reference a file", f.Name))
		}
		return v, nil
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			m, d := h.checkMedia(ctx, f, item)
			if d != nil {
				return nil, d
			}
			out = append(out, m)
		}
		return out, nil
	}
	return nil, detail(f.Name, fmt.Sprintf("%s must reference a file", f.Name))
}

// checkRelation accepts a target id or {id} and checks the target exists.
func (h *Handler) checkRelation(ctx context.Context, f *metadata.Field, val any) (any, *ErrorDetail) {
	if m, ok := val.(map[string]any); ok {
		val = m["id"]
	}
	n, ok := val.(float64)
	if !ok || n != math.Trunc(n) {
		return nil, detail(f.Name, fmt.Sprintf("%s must be an entry id", f.Name))
	}
	target := h.registry.Get(f.Target)
	if target == nil {
		return nil, detail(f.Name, fmt.Sprintf("unknown relation target %s", f.Target))
	}
	id := int64(n)
	if _, err := h.repo(target).FindOne(ctx, content.Where{content.Eq("id", id)}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, detail(f.Name, fmt.Sprintf("%s %d not found", f.Target, id))
		}
		return nil, detail(f.Name, err.Error())
	}
	return id, nil
}

func detail(field, msg string) *ErrorDetail {
	return &ErrorDetail{Path: []string{field}, Message: msg, Name: "ValidationError"}
}

func invalidKey(key string) ErrorDetail {
	return *detail(key, fmt.Sprintf("Invalid key %s", key))
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func isTime(s string) bool {
	_, ok := store.ParseTime(s)
	return ok
}
