package acs

// Hold is the ACS-owned record of reserved stock for one cart/SKU pair.
type Hold struct {
	CartID    string
	SKU       string
	Qty       int64
	ExpiresAt int64 // epoch ms
	CreatedAt int64 // epoch ms
}

// HoldID returns the canonical cart_id:sku identifier for a hold.
func HoldID(cartID, sku string) string {
	return cartID + ":" + sku
}

// Counters is the read-only snapshot of a SKU's total/reserved pair.
type Counters struct {
	Total    int64
	Reserved int64
}

// Available reports the stock currently free to reserve.
func (c Counters) Available() int64 {
	return c.Total - c.Reserved
}

// ReserveStatus is the outcome classification of the RESERVE script.
type ReserveStatus int

const (
	ReserveOK ReserveStatus = iota
	ReserveInsufficient
	ReserveConflict
)

// ReserveOutcome is the decoded result of the RESERVE script.
type ReserveOutcome struct {
	Status         ReserveStatus
	HoldID         string
	ExpiresAt      int64
	AvailableAfter int64
	Idempotent     bool
	ExistingQty    int64
}

// ExtendStatus is the outcome classification of the EXTEND script.
type ExtendStatus int

const (
	ExtendOK ExtendStatus = iota
	ExtendNotFound
)

// ExtendOutcome is the decoded result of the EXTEND script.
type ExtendOutcome struct {
	Status       ExtendStatus
	NewExpiresAt int64
}

// CommitLocalStatus is the outcome classification of the COMMIT_LOCAL script.
type CommitLocalStatus int

const (
	CommitLocalOK CommitLocalStatus = iota
	CommitLocalNotFound
)

// CommitLocalOutcome is the decoded result of the COMMIT_LOCAL script.
type CommitLocalOutcome struct {
	Status      CommitLocalStatus
	ConsumedQty int64
}

// ReleaseReason records why a hold was released, for the event log.
type ReleaseReason string

const (
	ReleaseReasonManual  ReleaseReason = "manual"
	ReleaseReasonExpired ReleaseReason = "expired"
)

// ReleaseOutcome is the decoded result of the RELEASE script.
type ReleaseOutcome struct {
	Absent      bool
	ReleasedQty int64
}

// ExpiringHold is one entry read back from the expiry index by the reaper.
type ExpiringHold struct {
	CartID    string
	SKU       string
	ExpiresAt int64
}

// EventKind enumerates the lifecycle records appended to the event log.
type EventKind string

const (
	EventHoldCreated   EventKind = "hold_created"
	EventHoldExtended  EventKind = "hold_extended"
	EventHoldCommitted EventKind = "hold_committed"
	EventHoldReleased  EventKind = "hold_released"
)

// Event is one entry read back from the event log.
type Event struct {
	Timestamp int64
	Kind      EventKind
	SKU       string
	CartID    string
	Qty       int64
	Reason    string
}
