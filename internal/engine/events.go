package engine

import "context"

// Events returns the last limit lifecycle records from the event log.
func (e *Engine) Events(ctx context.Context, req EventsRequest) ([]EventRecord, error) {
	if req.Limit < 1 {
		return nil, badRequest("limit must be at least 1")
	}

	raw, err := e.counters.Events(ctx, req.Limit)
	if err != nil {
		return nil, unavailable(err.Error())
	}

	records := make([]EventRecord, 0, len(raw))
	for _, ev := range raw {
		records = append(records, EventRecord{
			Timestamp: ev.Timestamp,
			Kind:      string(ev.Kind),
			SKU:       ev.SKU,
			CartID:    ev.CartID,
			Qty:       ev.Qty,
		})
	}
	return records, nil
}
