package engine

import "context"

// Snapshot reads a SKU's current total/reserved/available without
// scripting. The result may be stale by one in-flight script
// execution against the same SKU.
func (e *Engine) Snapshot(ctx context.Context, req SnapshotRequest) (SnapshotResponse, error) {
	if err := validateID("sku", req.SKU, e.opts.StrictIDValidation); err != nil {
		return SnapshotResponse{}, err
	}

	counters, err := e.counters.Snapshot(ctx, req.SKU)
	if err != nil {
		return SnapshotResponse{}, unavailable(err.Error())
	}

	return SnapshotResponse{
		Total:     counters.Total,
		Reserved:  counters.Reserved,
		Available: counters.Available(),
	}, nil
}
