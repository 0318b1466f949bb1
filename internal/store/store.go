// Package store defines persistence interfaces for the server. Chat lines are
// never stored; the only persisted data is the file-transfer audit log.
package store

import (
	"context"
	"time"
)

// TransferEventType names a handshake milestone.
type TransferEventType string

const (
	TransferInitiated TransferEventType = "initiated"
	TransferAccepted  TransferEventType = "accepted"
	TransferRejected  TransferEventType = "rejected"
	TransferCompleted TransferEventType = "completed"
)

// TransferEvent is one recorded handshake milestone.
type TransferEvent struct {
	ID        int64
	Type      TransferEventType
	Sender    string
	Recipient string
	Filename  string
	SizeLabel string
	Detail    string
	CreatedAt time.Time
}

// TransferLog records file-transfer handshake milestones. Implementations must
// be safe for concurrent use; recording failures never affect relaying.
type TransferLog interface {
	// RecordTransferEvent appends one event and returns its row ID.
	RecordTransferEvent(ctx context.Context, ev TransferEvent) (int64, error)

	// ListTransferEvents returns up to limit most recent events, newest first.
	ListTransferEvents(ctx context.Context, limit int) ([]TransferEvent, error)

	// Close releases the underlying storage.
	Close() error
}
