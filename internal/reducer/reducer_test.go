package reducer_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant-protocol/carbon-indexer/internal/domain"
	"github.com/verdant-protocol/carbon-indexer/internal/logger"
	"github.com/verdant-protocol/carbon-indexer/internal/reducer"
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

const (
	alice = "0xa11ce00000000000000000000000000000000001"
	bob   = "0xb0b0000000000000000000000000000000000002"
	carol = "0xca401000000000000000000000000000000000003"
	dave  = "0xdave000000000000000000000000000000000004"

	poolAddr = "0x9001000000000000000000000000000000000abc"
)

// ten18 scales a small integer into 18-decimal base units.
func ten18(n int64) string {
	return fmt.Sprintf("%d000000000000000000", n)
}

// evt wraps a payload into an event envelope with deterministic chain
// coordinates derived from seq.
func evt(seq uint64, ts uint64, payload domain.Payload) *domain.Event {
	return &domain.Event{
		Contract:    domain.ContractCarbonCreditToken,
		Kind:        payload.EventKind(),
		BlockNumber: seq,
		TxIndex:     0,
		LogIndex:    0,
		TxHash:      fmt.Sprintf("0x%064x", seq),
		Timestamp:   ts,
		Payload:     payload,
	}
}

func newTestReducer(cfg reducer.Config) (*reducer.Reducer, *store.MemoryStore) {
	s := store.NewMemoryStore()
	return reducer.New(s, cfg), s
}

func applyAll(t *testing.T, r *reducer.Reducer, events []*domain.Event) {
	t.Helper()
	for _, ev := range events {
		require.NoError(t, r.Apply(context.Background(), ev))
	}
}

func TestMintRetireLifecycle(t *testing.T) {
	r, s := newTestReducer(reducer.Config{})
	ctx := context.Background()

	applyAll(t, r, []*domain.Event{
		evt(1, 1700000000, &domain.ProjectRegistered{ProjectID: 1, Name: "Mangrove Restoration", Category: 1, Vintage: 2024, RegisteredBy: dave}),
		evt(2, 1700000100, &domain.CarbonMinted{TokenID: 1, To: alice, Amount: "100", ProjectID: 1, Vintage: 2024, Category: 1}),
		evt(3, 1700000200, &domain.CarbonRetired{TokenID: 1, User: alice, Amount: "40", ProjectID: 1, Vintage: 2024, Category: 1, RetirementNote: "offset"}),
	})

	project, err := s.GetProject(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, project)
	assert.Equal(t, "100", project.TotalMinted)
	assert.Equal(t, "40", project.TotalRetired)

	balance, err := s.GetCarbonBalance(ctx, alice, 1)
	require.NoError(t, err)
	require.NotNil(t, balance)
	assert.Equal(t, "60", balance.Balance)

	token, err := s.GetCarbonToken(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "100", token.TotalSupply, "supply counts mints independent of retirements")

	stats, err := s.GetProtocolStats(ctx)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.TotalProjects)
	assert.Equal(t, "100", stats.TotalCarbonMinted)
	assert.Equal(t, "40", stats.TotalCarbonRetired)

	user, err := s.GetUser(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "40", user.TotalRetired)
	assert.Equal(t, uint64(1700000100), user.FirstSeenAt)
	assert.Equal(t, uint64(1700000200), user.LastActiveAt)
}

func TestRetireBeyondBalanceFails(t *testing.T) {
	r, _ := newTestReducer(reducer.Config{})

	applyAll(t, r, []*domain.Event{
		evt(1, 1700000000, &domain.CarbonMinted{TokenID: 1, To: alice, Amount: "10", ProjectID: 1}),
	})

	err := r.Apply(context.Background(), evt(2, 1700000100,
		&domain.CarbonRetired{TokenID: 1, User: alice, Amount: "11", ProjectID: 1}))
	require.ErrorIs(t, err, domain.ErrConsistency)
}

func TestProjectVerification(t *testing.T) {
	r, s := newTestReducer(reducer.Config{})
	ctx := context.Background()

	applyAll(t, r, []*domain.Event{
		evt(1, 1700000000, &domain.ProjectRegistered{ProjectID: 5, Name: "Wind Farm", Category: 2, Vintage: 2023, RegisteredBy: dave}),
		evt(2, 1700000500, &domain.ProjectVerified{ProjectID: 5, QualityScore: 87}),
	})

	project, err := s.GetProject(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, project)
	assert.True(t, project.Verified)
	assert.Equal(t, 87, project.QualityScore)
	require.NotNil(t, project.VerifiedAt)
	assert.Equal(t, uint64(1700000500), *project.VerifiedAt)

	// Verifying a project the feed never announced is a lenient no-op.
	require.NoError(t, r.Apply(ctx, evt(3, 1700000600, &domain.ProjectVerified{ProjectID: 999, QualityScore: 1})))
}

func TestGuardianMintDerivesTier(t *testing.T) {
	r, s := newTestReducer(reducer.Config{TierSource: reducer.TierDerived})
	ctx := context.Background()

	applyAll(t, r, []*domain.Event{
		evt(1, 1700000000, &domain.GuardianMinted{TokenID: 7, Owner: bob, ZoneID: 1, InitialRetired: ten18(60)}),
	})

	guardian, err := s.GetGuardian(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, guardian)
	assert.Equal(t, 2, guardian.Tier, "60e18 clears the 50e18 threshold but not 200e18")

	user, err := s.GetUser(ctx, bob)
	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotNil(t, user.GuardianID)
	assert.Equal(t, uint64(7), *user.GuardianID)

	stats, err := s.GetProtocolStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalGuardians)

	daily, err := s.GetDailyStats(ctx, "2023-11-14")
	require.NoError(t, err)
	require.NotNil(t, daily)
	assert.Equal(t, 1, daily.NewGuardians)
	assert.Equal(t, 1, daily.NewUsers)
}

func TestGuardianMintTrustsEmittedTier(t *testing.T) {
	r, s := newTestReducer(reducer.Config{TierSource: reducer.TierFromEvent})

	applyAll(t, r, []*domain.Event{
		evt(1, 1700000000, &domain.GuardianMinted{TokenID: 8, Owner: bob, Tier: 3, ZoneID: 2, InitialRetired: ten18(60)}),
	})

	guardian, err := s.GetGuardian(context.Background(), 8)
	require.NoError(t, err)
	require.NotNil(t, guardian)
	assert.Equal(t, 3, guardian.Tier)
}

func TestGuardianUpgradeRecordsAudit(t *testing.T) {
	r, s := newTestReducer(reducer.Config{})
	ctx := context.Background()

	applyAll(t, r, []*domain.Event{
		evt(1, 1700000000, &domain.GuardianMinted{TokenID: 7, Owner: bob, ZoneID: 1, InitialRetired: ten18(60)}),
		evt(2, 1700000100, &domain.GuardianUpgraded{TokenID: 7, OldTier: 2, NewTier: 3, TotalRetired: ten18(210)}),
	})

	guardian, err := s.GetGuardian(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, guardian.Tier)
	assert.Equal(t, ten18(210), guardian.TotalRetired)

	// Tier regression is a hard failure, not an update.
	err = r.Apply(ctx, evt(3, 1700000200, &domain.GuardianUpgraded{TokenID: 7, OldTier: 3, NewTier: 1, TotalRetired: ten18(210)}))
	require.ErrorIs(t, err, domain.ErrConsistency)
}

func TestGuardianMetadataUpdates(t *testing.T) {
	r, s := newTestReducer(reducer.Config{})
	ctx := context.Background()

	applyAll(t, r, []*domain.Event{
		evt(1, 1700000000, &domain.GuardianMinted{TokenID: 7, Owner: bob, ZoneID: 1, InitialRetired: "0"}),
		evt(2, 1700000100, &domain.NicknameUpdated{TokenID: 7, Nickname: "Kelp"}),
		evt(3, 1700000200, &domain.RetirementRecorded{TokenID: 7, Amount: ten18(5), NewTotal: ten18(5)}),
		evt(4, 1700000300, &domain.TransferUnlocked{TokenID: 7, FeePaid: ten18(1)}),
	})

	guardian, err := s.GetGuardian(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, guardian.Nickname)
	assert.Equal(t, "Kelp", *guardian.Nickname)
	assert.Equal(t, ten18(5), guardian.TotalRetired)
	assert.True(t, guardian.Transferable)
	assert.Equal(t, uint64(1700000300), guardian.LastUpdated)
}

func TestKycTaskLifecycle(t *testing.T) {
	r, s := newTestReducer(reducer.Config{})
	ctx := context.Background()

	applyAll(t, r, []*domain.Event{
		evt(1, 1700000000, &domain.NewTaskCreated{TaskID: 3, User: carol, RequiredLevel: 1}),
		evt(2, 1700000100, &domain.TaskResponded{TaskID: 3, Operator: dave, AchievedLevel: 1}),
	})

	task, err := s.GetKycTask(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, schema.KycTaskStatusCompleted, task.Status)
	require.NotNil(t, task.RespondedBy)
	assert.Equal(t, dave, *task.RespondedBy)

	result, err := s.GetKycResult(ctx, carol)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Level)
	assert.Equal(t, uint64(1700000100), result.VerifiedAt)
	assert.Equal(t, uint64(1700000100+31536000), result.ExpiresAt)
	assert.True(t, result.IsValid)

	user, err := s.GetUser(ctx, carol)
	require.NoError(t, err)
	assert.Equal(t, 1, user.KycLevel)

	// Responding twice to the same task breaks the monotonic transition.
	err = r.Apply(ctx, evt(3, 1700000200, &domain.TaskResponded{TaskID: 3, Operator: dave, AchievedLevel: 2}))
	require.ErrorIs(t, err, domain.ErrConsistency)
}

func TestOperatorLifecycle(t *testing.T) {
	r, s := newTestReducer(reducer.Config{})
	ctx := context.Background()

	applyAll(t, r, []*domain.Event{
		evt(1, 1700000000, &domain.OperatorRegistered{Operator: dave}),
		evt(2, 1700000100, &domain.OperatorDeregistered{Operator: dave}),
		evt(3, 1700000200, &domain.OperatorRegistered{Operator: dave}),
	})

	operator, err := s.GetOperator(ctx, dave)
	require.NoError(t, err)
	require.NotNil(t, operator)
	assert.True(t, operator.Registered)
	assert.Equal(t, uint64(1700000200), operator.RegisteredAt)
	assert.Nil(t, operator.DeregisteredAt)
}

func TestZoneContributorCountedOnce(t *testing.T) {
	r, s := newTestReducer(reducer.Config{ZoneSource: reducer.ZoneFromCategory})
	ctx := context.Background()

	applyAll(t, r, []*domain.Event{
		evt(1, 1700000000, &domain.CarbonMinted{TokenID: 1, To: alice, Amount: "100", ProjectID: 1, Category: 1}),
		evt(2, 1700000100, &domain.CarbonRetired{TokenID: 1, User: alice, Amount: "10", ProjectID: 1, Category: 1}),
		evt(3, 1700000200, &domain.CarbonRetired{TokenID: 1, User: alice, Amount: "15", ProjectID: 1, Category: 1}),
	})

	contributor, err := s.GetZoneContributor(ctx, 1, alice)
	require.NoError(t, err)
	require.NotNil(t, contributor)
	assert.Equal(t, 2, contributor.RetirementCount)
	assert.Equal(t, "25", contributor.TotalRetired)

	zone, err := s.GetZoneStats(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, zone)
	assert.Equal(t, 1, zone.ContributorCount, "second retirement must not recount the contributor")
	assert.Equal(t, "Forest", zone.Name)
	assert.Equal(t, "25", zone.TotalRetired)
}

func TestOutOfRangeZoneIgnored(t *testing.T) {
	r, s := newTestReducer(reducer.Config{ZoneSource: reducer.ZoneFromCategory})
	ctx := context.Background()

	applyAll(t, r, []*domain.Event{
		evt(1, 1700000000, &domain.CarbonMinted{TokenID: 1, To: alice, Amount: "100", ProjectID: 1, Category: 9}),
		evt(2, 1700000100, &domain.CarbonRetired{TokenID: 1, User: alice, Amount: "10", ProjectID: 1, Category: 9}),
	})

	zone, err := s.GetZoneStats(ctx, 9)
	require.NoError(t, err)
	assert.Nil(t, zone, "unknown category gets no zone rollup")

	// The retirement itself still counts everywhere else.
	stats, err := s.GetProtocolStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10", stats.TotalCarbonRetired)
}

func TestZoneResolvedFromGuardian(t *testing.T) {
	r, s := newTestReducer(reducer.Config{ZoneSource: reducer.ZoneFromGuardian})
	ctx := context.Background()

	applyAll(t, r, []*domain.Event{
		evt(1, 1700000000, &domain.GuardianMinted{TokenID: 7, Owner: alice, ZoneID: 4, InitialRetired: "0"}),
		evt(2, 1700000100, &domain.CarbonMinted{TokenID: 1, To: alice, Amount: "100", ProjectID: 1, Category: 1}),
		evt(3, 1700000200, &domain.CarbonRetired{TokenID: 1, User: alice, Amount: "10", ProjectID: 1, Category: 1}),
		evt(4, 1700000300, &domain.CarbonMinted{TokenID: 1, To: bob, Amount: "100", ProjectID: 1, Category: 1}),
		evt(5, 1700000400, &domain.CarbonRetired{TokenID: 1, User: bob, Amount: "10", ProjectID: 1, Category: 1}),
	})

	// Alice's retirement lands in her guardian's zone, not the category.
	zone, err := s.GetZoneStats(ctx, 4)
	require.NoError(t, err)
	require.NotNil(t, zone)
	assert.Equal(t, "10", zone.TotalRetired)

	category, err := s.GetZoneStats(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, category, "guardianless bob gets no rollup under this source")
}

func TestOrderLifecycle(t *testing.T) {
	r, s := newTestReducer(reducer.Config{})
	ctx := context.Background()

	minVintage := 2023
	applyAll(t, r, []*domain.Event{
		evt(1, 1700000000, &domain.OrderPlaced{OrderID: 1, User: alice, Side: int(schema.OrderSideBuy), Price: "5", Quantity: "100", Category: 1, MinVintage: &minVintage}),
		evt(2, 1700000100, &domain.OrderPlaced{OrderID: 2, User: bob, Side: int(schema.OrderSideSell), Price: "5", Quantity: "100", Category: 1}),
		evt(3, 1700000200, &domain.TradeExecuted{BuyOrderID: 1, SellOrderID: 2, Buyer: alice, Seller: bob, TokenID: 1, Price: "5", Quantity: "60", BuyerFee: "1", SellerFee: "1"}),
	})

	buy, err := s.GetOrder(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "60", buy.Filled)
	assert.Equal(t, schema.OrderStatusOpen, buy.Status)

	applyAll(t, r, []*domain.Event{
		evt(4, 1700000300, &domain.TradeExecuted{BuyOrderID: 1, SellOrderID: 2, Buyer: alice, Seller: bob, TokenID: 1, Price: "5", Quantity: "40", BuyerFee: "1", SellerFee: "1"}),
	})

	buy, err = s.GetOrder(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "100", buy.Filled)
	assert.Equal(t, schema.OrderStatusFilled, buy.Status)

	sell, err := s.GetOrder(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, schema.OrderStatusFilled, sell.Status)

	stats, err := s.GetProtocolStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalTrades)
	assert.Equal(t, "100", stats.TotalVolume)

	alice2, err := s.GetUser(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "100", alice2.TotalTraded)

	// Cancelling a filled order contradicts the order lifecycle.
	err = r.Apply(ctx, evt(5, 1700000400, &domain.OrderCancelled{OrderID: 1, User: alice}))
	require.ErrorIs(t, err, domain.ErrConsistency)
}

func TestOverfillFails(t *testing.T) {
	r, _ := newTestReducer(reducer.Config{})

	applyAll(t, r, []*domain.Event{
		evt(1, 1700000000, &domain.OrderPlaced{OrderID: 1, User: alice, Side: int(schema.OrderSideBuy), Price: "5", Quantity: "50"}),
	})

	err := r.Apply(context.Background(), evt(2, 1700000100,
		&domain.TradeExecuted{BuyOrderID: 1, SellOrderID: 99, Buyer: alice, Seller: bob, TokenID: 1, Price: "5", Quantity: "60", BuyerFee: "0", SellerFee: "0"}))
	require.ErrorIs(t, err, domain.ErrConsistency)
}

func TestOrderCancellation(t *testing.T) {
	r, s := newTestReducer(reducer.Config{})
	ctx := context.Background()

	applyAll(t, r, []*domain.Event{
		evt(1, 1700000000, &domain.OrderPlaced{OrderID: 1, User: alice, Side: int(schema.OrderSideSell), Price: "5", Quantity: "50"}),
		evt(2, 1700000100, &domain.OrderCancelled{OrderID: 1, User: alice}),
	})

	order, err := s.GetOrder(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, schema.OrderStatusCancelled, order.Status)
	assert.Equal(t, uint64(1700000100), order.UpdatedAt)
}

func TestPoolLifecycle(t *testing.T) {
	r, s := newTestReducer(reducer.Config{})
	ctx := context.Background()

	applyAll(t, r, []*domain.Event{
		evt(1, 1700000000, &domain.PoolCreated{CarbonTokenID: 1, Pool: poolAddr, Tier: 2}),
		evt(2, 1700000100, &domain.LiquidityAdded{Pool: poolAddr, Provider: alice, CarbonAmount: "1000", QuoteAmount: "5000", LPTokens: "2000"}),
		evt(3, 1700000200, &domain.SwapExecuted{Pool: poolAddr, User: bob, CarbonToQuote: true, AmountIn: "100", AmountOut: "450", Fee: "5", SpotPriceBefore: "5", SpotPriceAfter: "4"}),
		evt(4, 1700000300, &domain.LiquidityRemoved{Pool: poolAddr, Provider: alice, CarbonAmount: "500", QuoteAmount: "2000", LPTokens: "1000"}),
	})

	pool, err := s.GetPool(ctx, poolAddr)
	require.NoError(t, err)
	require.NotNil(t, pool)
	assert.Equal(t, 50, pool.SwapFeeBps, "tier 2 pools charge 50 bps")
	assert.Equal(t, "600", pool.ReserveCarbon)  // 1000 + 100 - 500
	assert.Equal(t, "2550", pool.ReserveQuote)  // 5000 - 450 - 2000
	assert.Equal(t, "1000", pool.TotalSupply)   // 2000 - 1000
	assert.Equal(t, "100", pool.TotalVolume)    // carbon side of the swap
	assert.Equal(t, "4", pool.SpotPrice)

	position, err := s.GetLiquidityPosition(ctx, poolAddr, alice)
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.Equal(t, "1000", position.LPTokens)
	assert.Equal(t, "1000", position.CarbonDeposited)
	assert.Equal(t, "500", position.CarbonWithdrawn)

	provider, err := s.GetUser(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "5000", provider.TotalLiquidityProvided)

	stats, err := s.GetProtocolStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalPools)
	assert.Equal(t, 1, stats.TotalSwaps)
	assert.Equal(t, "100", stats.TotalVolume)
}

func TestLiquidityRemovalBeyondPositionFails(t *testing.T) {
	r, _ := newTestReducer(reducer.Config{})

	applyAll(t, r, []*domain.Event{
		evt(1, 1700000000, &domain.PoolCreated{CarbonTokenID: 1, Pool: poolAddr, Tier: 0}),
		evt(2, 1700000100, &domain.LiquidityAdded{Pool: poolAddr, Provider: alice, CarbonAmount: "100", QuoteAmount: "100", LPTokens: "100"}),
	})

	err := r.Apply(context.Background(), evt(3, 1700000200,
		&domain.LiquidityRemoved{Pool: poolAddr, Provider: alice, CarbonAmount: "100", QuoteAmount: "100", LPTokens: "200"}))
	require.ErrorIs(t, err, domain.ErrConsistency)
}

func TestUnregisteredPoolEventsIgnored(t *testing.T) {
	r, s := newTestReducer(reducer.Config{})
	ctx := context.Background()

	// A foreign contract can emit signature-identical pool events; only
	// pools announced by the factory count.
	foreign := "0xfeedfeedfeedfeedfeedfeedfeedfeedfeedfeed"
	applyAll(t, r, []*domain.Event{
		evt(1, 1700000000, &domain.SwapExecuted{Pool: foreign, User: bob, CarbonToQuote: true, AmountIn: "100", AmountOut: "450", Fee: "5", SpotPriceBefore: "5", SpotPriceAfter: "4"}),
		evt(2, 1700000100, &domain.LiquidityAdded{Pool: foreign, Provider: alice, CarbonAmount: "1000", QuoteAmount: "5000", LPTokens: "2000"}),
		evt(3, 1700000200, &domain.LiquidityRemoved{Pool: foreign, Provider: alice, CarbonAmount: "500", QuoteAmount: "2000", LPTokens: "1000"}),
	})

	stats, err := s.GetProtocolStats(ctx)
	require.NoError(t, err)
	assert.Nil(t, stats, "foreign pool events must not touch protocol stats")

	user, err := s.GetUser(ctx, bob)
	require.NoError(t, err)
	assert.Nil(t, user)

	position, err := s.GetLiquidityPosition(ctx, foreign, alice)
	require.NoError(t, err)
	assert.Nil(t, position)
}

func TestDuplicateDeliveryIsNoOp(t *testing.T) {
	r, s := newTestReducer(reducer.Config{})
	ctx := context.Background()

	mint := evt(1, 1700000000, &domain.CarbonMinted{TokenID: 1, To: alice, Amount: "100", ProjectID: 1})
	require.NoError(t, r.Apply(ctx, mint))

	err := r.Apply(ctx, mint)
	require.ErrorIs(t, err, domain.ErrDuplicateEvent)

	stats, err := s.GetProtocolStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "100", stats.TotalCarbonMinted, "redelivery must not double-count")

	balance, err := s.GetCarbonBalance(ctx, alice, 1)
	require.NoError(t, err)
	assert.Equal(t, "100", balance.Balance)
}

func TestFailedEventLeavesNoPartialState(t *testing.T) {
	r, s := newTestReducer(reducer.Config{})
	ctx := context.Background()

	// The retirement fails after the balance row would have been touched;
	// the transaction must roll everything back, including the dedup entry.
	bad := evt(1, 1700000000, &domain.CarbonRetired{TokenID: 1, User: alice, Amount: "10", ProjectID: 1})
	require.ErrorIs(t, r.Apply(ctx, bad), domain.ErrConsistency)

	balance, err := s.GetCarbonBalance(ctx, alice, 1)
	require.NoError(t, err)
	assert.Nil(t, balance)

	stats, err := s.GetProtocolStats(ctx)
	require.NoError(t, err)
	assert.Nil(t, stats)

	// A later corrected feed may redeliver the same coordinates.
	applyAll(t, r, []*domain.Event{
		evt(2, 1700000000, &domain.CarbonMinted{TokenID: 1, To: alice, Amount: "10", ProjectID: 1}),
		evt(1, 1700000100, &domain.CarbonRetired{TokenID: 1, User: alice, Amount: "10", ProjectID: 1}),
	})
}

type unhandledPayload struct{}

func (unhandledPayload) EventKind() domain.Kind { return domain.Kind("governance_changed") }

func TestUnknownEventKindIsFatal(t *testing.T) {
	r, _ := newTestReducer(reducer.Config{})

	err := r.Apply(context.Background(), evt(1, 1700000000, unhandledPayload{}))
	require.ErrorIs(t, err, domain.ErrUnknownEvent)
}

// replayLog is a representative event sequence touching every rollup.
func replayLog() []*domain.Event {
	return []*domain.Event{
		evt(1, 1700000000, &domain.ProjectRegistered{ProjectID: 1, Name: "Kelp", Category: 0, Vintage: 2024, RegisteredBy: dave}),
		evt(2, 1700000100, &domain.ProjectVerified{ProjectID: 1, QualityScore: 90}),
		evt(3, 1700000200, &domain.CarbonMinted{TokenID: 1, To: alice, Amount: ten18(100), ProjectID: 1, Category: 0}),
		evt(4, 1700000300, &domain.CarbonRetired{TokenID: 1, User: alice, Amount: ten18(60), ProjectID: 1, Category: 0}),
		evt(5, 1700000400, &domain.GuardianMinted{TokenID: 7, Owner: alice, ZoneID: 0, InitialRetired: ten18(60)}),
		evt(6, 1700000500, &domain.OrderPlaced{OrderID: 1, User: alice, Side: 1, Price: "5", Quantity: ten18(10)}),
		evt(7, 1700000600, &domain.OrderPlaced{OrderID: 2, User: bob, Side: 0, Price: "5", Quantity: ten18(10)}),
		evt(8, 1700000700, &domain.TradeExecuted{BuyOrderID: 2, SellOrderID: 1, Buyer: bob, Seller: alice, TokenID: 1, Price: "5", Quantity: ten18(10), BuyerFee: "1", SellerFee: "1"}),
		evt(9, 1700000800, &domain.PoolCreated{CarbonTokenID: 1, Pool: poolAddr, Tier: 1}),
		evt(10, 1700000900, &domain.LiquidityAdded{Pool: poolAddr, Provider: bob, CarbonAmount: ten18(5), QuoteAmount: ten18(25), LPTokens: ten18(10)}),
		evt(11, 1700001000, &domain.SwapExecuted{Pool: poolAddr, User: carol, CarbonToQuote: false, AmountIn: ten18(5), AmountOut: ten18(1), Fee: "1", SpotPriceBefore: "5", SpotPriceAfter: "6"}),
		evt(12, 1700001100, &domain.NewTaskCreated{TaskID: 1, User: carol, RequiredLevel: 2}),
		evt(13, 1700001200, &domain.TaskResponded{TaskID: 1, Operator: dave, AchievedLevel: 2}),
	}
}

func TestReplayIsDeterministic(t *testing.T) {
	ctx := context.Background()

	r1, s1 := newTestReducer(reducer.Config{})
	r2, s2 := newTestReducer(reducer.Config{})
	applyAll(t, r1, replayLog())
	applyAll(t, r2, replayLog())

	stats1, err := s1.GetProtocolStats(ctx)
	require.NoError(t, err)
	stats2, err := s2.GetProtocolStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, stats1, stats2)

	for _, address := range []string{alice, bob, carol, dave} {
		u1, err := s1.GetUser(ctx, address)
		require.NoError(t, err)
		u2, err := s2.GetUser(ctx, address)
		require.NoError(t, err)
		assert.Equal(t, u1, u2, address)
	}

	z1, err := s1.GetZoneStats(ctx, 0)
	require.NoError(t, err)
	z2, err := s2.GetZoneStats(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, z1, z2)

	p1, err := s1.GetPool(ctx, poolAddr)
	require.NoError(t, err)
	p2, err := s2.GetPool(ctx, poolAddr)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	d1, err := s1.GetDailyStats(ctx, "2023-11-14")
	require.NoError(t, err)
	d2, err := s2.GetDailyStats(ctx, "2023-11-14")
	require.NoError(t, err)
	require.NotNil(t, d1)
	assert.Equal(t, d1, d2)
}
