package engine

import (
	"context"
	"fmt"

	"github.com/rambosorn/khadimy/internal/content"
	"github.com/rambosorn/khadimy/internal/metadata"
)

// LoadPopulate resolves the requested media and relation fields on records and
// strips the ones that were not requested.
func (h *Handler) LoadPopulate(ctx context.Context, ct *metadata.ContentType, records []content.Record, pop *Populate, publishedOnly bool) error {
	if len(records) == 0 {
		return nil
	}

	for _, f := range ct.PopulatableFields() {
		if !pop.Has(f.Name) {
			for _, rec := range records {
				delete(rec, f.Name)
			}
			continue
		}
		if f.Type != metadata.TypeRelation {
			continue
		}
		if err := h.loadRelation(ctx, f, records, pop.Child(f.Name), publishedOnly); err != nil {
			return err
		}
	}
	return nil
}

// loadRelation replaces the stored target id of a to-one relation with the
// target entry.
func (h *Handler) loadRelation(ctx context.Context, f metadata.Field, records []content.Record, child *Populate, publishedOnly bool) error {
	target := h.registry.Get(f.Target)
	if target == nil {
		return fmt.Errorf("unknown relation target: %s", f.Target)
	}

	var ids []int64
	seen := make(map[int64]bool)
	for _, rec := range records {
		id, ok := rec[f.Name].(int64)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	related, err := h.repo(target).FindByIDs(ctx, ids, publishedOnly)
	if err != nil {
		return fmt.Errorf("load %s: %w", f.Name, err)
	}

	targets := make([]content.Record, 0, len(related))
	for _, rec := range related {
		targets = append(targets, rec)
	}
	if err := h.LoadPopulate(ctx, target, targets, child, publishedOnly); err != nil {
		return err
	}

	for _, rec := range records {
		id, ok := rec[f.Name].(int64)
		if !ok {
			rec[f.Name] = nil
			continue
		}
		if t, found := related[id]; found {
			rec[f.Name] = t
		} else {
			rec[f.Name] = nil
		}
	}
	return nil
}
