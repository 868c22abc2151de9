package engine

// ReserveRequest is the input to Reserve.
type ReserveRequest struct {
	SKU        string
	CartID     string
	Qty        int64
	TTLSeconds int64
}

// ReserveResponse is the output of a successful Reserve.
type ReserveResponse struct {
	HoldID         string
	ExpiresAt      int64
	AvailableAfter int64
	Idempotent     bool
}

// ExtendRequest is the input to Extend.
type ExtendRequest struct {
	CartID     string
	SKU        string
	AddSeconds int64
}

// ExtendResponse is the output of a successful Extend.
type ExtendResponse struct {
	NewExpiresAt int64
}

// CommitRequest is the input to Commit.
type CommitRequest struct {
	CartID string
	SKU    string
}

// CommitResponse is the output of a successful Commit.
type CommitResponse struct {
	ConsumedQty int64
	NewTotal    int64
}

// ReleaseRequest is the input to Release.
type ReleaseRequest struct {
	CartID string
	SKU    string
}

// ReleaseResponse is the output of a successful Release.
type ReleaseResponse struct {
	ReleasedQty int64
	Absent      bool
}

// SnapshotRequest is the input to Snapshot.
type SnapshotRequest struct {
	SKU string
}

// SnapshotResponse is the output of a successful Snapshot.
type SnapshotResponse struct {
	Total     int64
	Reserved  int64
	Available int64
}

// EventsRequest is the input to Events.
type EventsRequest struct {
	Limit int
}

// EventRecord is one entry returned by Events.
type EventRecord struct {
	Timestamp int64
	Kind      string
	SKU       string
	CartID    string
	Qty       int64
}
