package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anha-cs/filechat/internal/store"
)

func TestRecordAndListTransferEvents(t *testing.T) {
	s, err := New(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()

	events := []store.TransferEvent{
		{Type: store.TransferInitiated, Sender: "alice", Recipient: "bob", Filename: "notes.txt", SizeLabel: "12 KB"},
		{Type: store.TransferAccepted, Sender: "alice", Recipient: "bob", Filename: "notes.txt"},
		{Type: store.TransferCompleted, Recipient: "bob", Detail: "[File transfer complete from alice to bob notes.txt (12 KB)]"},
	}
	for _, ev := range events {
		id, err := s.RecordTransferEvent(ctx, ev)
		require.NoError(t, err)
		assert.Positive(t, id)
	}

	got, err := s.ListTransferEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Newest first.
	assert.Equal(t, store.TransferCompleted, got[0].Type)
	assert.Equal(t, store.TransferInitiated, got[2].Type)
	assert.Equal(t, "alice", got[2].Sender)
	assert.Equal(t, "bob", got[2].Recipient)
	assert.Equal(t, "notes.txt", got[2].Filename)
	assert.Equal(t, "12 KB", got[2].SizeLabel)
	assert.False(t, got[0].CreatedAt.IsZero(), "created_at must be populated")
}

func TestListTransferEventsRespectsLimit(t *testing.T) {
	s, err := New(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.RecordTransferEvent(ctx, store.TransferEvent{Type: store.TransferInitiated, Sender: "alice", Recipient: "bob"})
		require.NoError(t, err)
	}

	got, err := s.ListTransferEvents(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
