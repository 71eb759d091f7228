package store_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant-protocol/carbon-indexer/internal/logger"
	"github.com/verdant-protocol/carbon-indexer/internal/store"
	"github.com/verdant-protocol/carbon-indexer/internal/store/schema"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

func TestMemoryStoreAbsentRowsAreNil(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	project, err := s.GetProject(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, project)

	balance, err := s.GetCarbonBalance(ctx, "0xa11ce", 1)
	require.NoError(t, err)
	assert.Nil(t, balance)

	stats, err := s.GetProtocolStats(ctx)
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestMemoryStoreSaveIsUpsert(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SaveUser(ctx, &schema.User{Address: "0xa11ce", TotalRetired: "0", TotalTraded: "0", TotalLiquidityProvided: "0"}))
	require.NoError(t, s.SaveUser(ctx, &schema.User{Address: "0xa11ce", TotalRetired: "5", TotalTraded: "0", TotalLiquidityProvided: "0"}))

	user, err := s.GetUser(ctx, "0xa11ce")
	require.NoError(t, err)
	assert.Equal(t, "5", user.TotalRetired)
}

func TestMemoryStoreCreateRejectsDuplicates(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateProject(ctx, &schema.Project{ID: 1, TotalMinted: "0", TotalRetired: "0"}))
	assert.Error(t, s.CreateProject(ctx, &schema.Project{ID: 1, TotalMinted: "0", TotalRetired: "0"}))
}

func TestMemoryStoreIndexedEventDedup(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	ev := &schema.IndexedEvent{TxHash: "0xabc", LogIndex: 3, Kind: "carbon_minted"}

	inserted, err := s.InsertIndexedEvent(ctx, ev)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.InsertIndexedEvent(ctx, ev)
	require.NoError(t, err)
	assert.False(t, inserted, "second insert of the same coordinates is a no-op")
}

func TestMemoryStoreTransactionRollsBack(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx store.Store) error {
		if err := tx.SaveUser(ctx, &schema.User{Address: "0xa11ce", TotalRetired: "0", TotalTraded: "0", TotalLiquidityProvided: "0"}); err != nil {
			return err
		}
		if _, err := tx.InsertIndexedEvent(ctx, &schema.IndexedEvent{TxHash: "0xabc", LogIndex: 1}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	user, err := s.GetUser(ctx, "0xa11ce")
	require.NoError(t, err)
	assert.Nil(t, user)

	inserted, err := s.InsertIndexedEvent(ctx, &schema.IndexedEvent{TxHash: "0xabc", LogIndex: 1})
	require.NoError(t, err)
	assert.True(t, inserted, "rolled-back ledger insert must not stick")
}

func TestMemoryStoreBlockCursor(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	cursor, err := s.GetBlockCursor(ctx, "mantle-sepolia")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), cursor)

	require.NoError(t, s.SetBlockCursor(ctx, "mantle-sepolia", 123456))

	cursor, err = s.GetBlockCursor(ctx, "mantle-sepolia")
	require.NoError(t, err)
	assert.Equal(t, uint64(123456), cursor)
}
