package feed

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant-protocol/carbon-indexer/internal/adapter"
	"github.com/verdant-protocol/carbon-indexer/internal/domain"
	"github.com/verdant-protocol/carbon-indexer/internal/logger"
	"github.com/verdant-protocol/carbon-indexer/internal/reducer"
	"github.com/verdant-protocol/carbon-indexer/internal/store"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeMessage struct {
	data   []byte
	acked  bool
	naked  bool
	termed bool
}

func (m *fakeMessage) Data() []byte                              { return m.data }
func (m *fakeMessage) Metadata() (*jetstream.MsgMetadata, error) { return &jetstream.MsgMetadata{}, nil }
func (m *fakeMessage) Ack() error                                { m.acked = true; return nil }
func (m *fakeMessage) Nak() error                                { m.naked = true; return nil }
func (m *fakeMessage) Term() error                               { m.termed = true; return nil }

func newTestFeed(t *testing.T) (*Feed, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	r := reducer.New(s, reducer.Config{})
	return New(Config{StreamName: "EVENTS", Durable: "carbon-indexer"},
		nil, adapter.NewJSON(), r), s
}

func marshalEvent(t *testing.T, ev *domain.Event) []byte {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	return data
}

func projectEvent(logIndex uint) *domain.Event {
	return &domain.Event{
		Contract:    domain.ContractCarbonCreditToken,
		Kind:        domain.KindProjectRegistered,
		BlockNumber: 100,
		TxIndex:     0,
		LogIndex:    logIndex,
		TxHash:      "0x01",
		Timestamp:   1699999999,
		Payload: &domain.ProjectRegistered{
			ProjectID:    1,
			Name:         "Reforestation",
			Category:     0,
			Vintage:      2023,
			RegisteredBy: "0xaaaa",
		},
	}
}

func TestHandleMessageAcksAppliedEvent(t *testing.T) {
	f, s := newTestFeed(t)
	msg := &fakeMessage{data: marshalEvent(t, projectEvent(0))}

	require.NoError(t, f.handleMessage(context.Background(), msg))
	assert.True(t, msg.acked)
	assert.False(t, msg.naked)

	project, err := s.GetProject(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, project)
	assert.Equal(t, "Reforestation", project.Name)
}

func TestHandleMessageAcksDuplicate(t *testing.T) {
	f, _ := newTestFeed(t)
	data := marshalEvent(t, projectEvent(0))

	first := &fakeMessage{data: data}
	require.NoError(t, f.handleMessage(context.Background(), first))

	redelivery := &fakeMessage{data: data}
	require.NoError(t, f.handleMessage(context.Background(), redelivery))
	assert.True(t, redelivery.acked)
	assert.False(t, redelivery.naked)
}

func TestHandleMessageTermsGarbage(t *testing.T) {
	f, _ := newTestFeed(t)
	msg := &fakeMessage{data: []byte("not json")}

	require.NoError(t, f.handleMessage(context.Background(), msg))
	assert.True(t, msg.termed)
	assert.False(t, msg.acked)
	assert.False(t, msg.naked)
}

func TestHandleMessageTermsUnknownKind(t *testing.T) {
	f, _ := newTestFeed(t)
	msg := &fakeMessage{data: []byte(`{"contract":"CarbonCreditToken","kind":"governance_changed","tx_hash":"0x02","log_index":0,"payload":{}}`)}

	require.NoError(t, f.handleMessage(context.Background(), msg))
	// The envelope itself fails to decode for an unregistered kind.
	assert.True(t, msg.termed)
}

func retireEvent() *domain.Event {
	return &domain.Event{
		Contract:    domain.ContractCarbonCreditToken,
		Kind:        domain.KindCarbonRetired,
		BlockNumber: 101,
		LogIndex:    0,
		TxHash:      "0x03",
		Timestamp:   1699999999,
		Payload: &domain.CarbonRetired{
			TokenID: 1, User: "0xbbbb", Amount: "100",
			ProjectID: 1, Vintage: 2023, Category: 0,
		},
	}
}

func TestHandleMessageHaltsOnConsistencyViolation(t *testing.T) {
	f, s := newTestFeed(t)
	// Retiring against an empty balance contradicts indexed state. The
	// same redelivery would fail the same way, so the message is
	// terminated and the feed stops instead of advancing past it.
	msg := &fakeMessage{data: marshalEvent(t, retireEvent())}

	err := f.handleMessage(context.Background(), msg)
	require.ErrorIs(t, err, domain.ErrConsistency)
	assert.True(t, msg.termed)
	assert.False(t, msg.acked)
	assert.False(t, msg.naked)

	// Nothing after the violation was applied.
	stats, err := s.GetProtocolStats(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stats)
}

// flakyStore fails every transaction, standing in for a database outage.
type flakyStore struct {
	store.Store
}

func (s *flakyStore) Transaction(ctx context.Context, fn func(store.Store) error) error {
	return errors.New("connection refused")
}

func TestHandleMessageNaksTransientFailure(t *testing.T) {
	r := reducer.New(&flakyStore{Store: store.NewMemoryStore()}, reducer.Config{})
	f := New(Config{StreamName: "EVENTS", Durable: "carbon-indexer"},
		nil, adapter.NewJSON(), r)
	msg := &fakeMessage{data: marshalEvent(t, projectEvent(0))}

	require.NoError(t, f.handleMessage(context.Background(), msg))
	assert.True(t, msg.naked)
	assert.False(t, msg.acked)
	assert.False(t, msg.termed)
}
