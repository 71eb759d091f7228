package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/verdant-protocol/carbon-indexer/internal/store/schema"
)

// memoryState holds every table as a plain map keyed by primary key.
// Append-only tables are maps too so Create can trip on a key collision
// the same way the unique constraint would.
type memoryState struct {
	indexedEvents      map[string]schema.IndexedEvent
	projects           map[uint64]schema.Project
	carbonTokens       map[uint64]schema.CarbonToken
	carbonBalances     map[string]schema.CarbonBalance
	retirements        map[string]schema.Retirement
	guardians          map[uint64]schema.Guardian
	tierUpgrades       map[string]schema.TierUpgrade
	orders             map[uint64]schema.Order
	trades             map[string]schema.Trade
	kycTasks           map[uint32]schema.KycTask
	kycResults         map[string]schema.KycResult
	operators          map[string]schema.Operator
	pools              map[string]schema.Pool
	liquidityPositions map[string]schema.LiquidityPosition
	liquidityEvents    map[string]schema.LiquidityEvent
	swaps              map[string]schema.Swap
	users              map[string]schema.User
	protocolStats      *schema.ProtocolStats
	zoneStats          map[int]schema.ZoneStats
	zoneContributors   map[string]schema.ZoneContributor
	dailyStats         map[string]schema.DailyStats
	kv                 map[string]string
}

func newMemoryState() *memoryState {
	return &memoryState{
		indexedEvents:      make(map[string]schema.IndexedEvent),
		projects:           make(map[uint64]schema.Project),
		carbonTokens:       make(map[uint64]schema.CarbonToken),
		carbonBalances:     make(map[string]schema.CarbonBalance),
		retirements:        make(map[string]schema.Retirement),
		guardians:          make(map[uint64]schema.Guardian),
		tierUpgrades:       make(map[string]schema.TierUpgrade),
		orders:             make(map[uint64]schema.Order),
		trades:             make(map[string]schema.Trade),
		kycTasks:           make(map[uint32]schema.KycTask),
		kycResults:         make(map[string]schema.KycResult),
		operators:          make(map[string]schema.Operator),
		pools:              make(map[string]schema.Pool),
		liquidityPositions: make(map[string]schema.LiquidityPosition),
		liquidityEvents:    make(map[string]schema.LiquidityEvent),
		swaps:              make(map[string]schema.Swap),
		users:              make(map[string]schema.User),
		zoneStats:          make(map[int]schema.ZoneStats),
		zoneContributors:   make(map[string]schema.ZoneContributor),
		dailyStats:         make(map[string]schema.DailyStats),
		kv:                 make(map[string]string),
	}
}

func (m *memoryState) clone() *memoryState {
	c := newMemoryState()
	for k, v := range m.indexedEvents {
		c.indexedEvents[k] = v
	}
	for k, v := range m.projects {
		c.projects[k] = v
	}
	for k, v := range m.carbonTokens {
		c.carbonTokens[k] = v
	}
	for k, v := range m.carbonBalances {
		c.carbonBalances[k] = v
	}
	for k, v := range m.retirements {
		c.retirements[k] = v
	}
	for k, v := range m.guardians {
		c.guardians[k] = v
	}
	for k, v := range m.tierUpgrades {
		c.tierUpgrades[k] = v
	}
	for k, v := range m.orders {
		c.orders[k] = v
	}
	for k, v := range m.trades {
		c.trades[k] = v
	}
	for k, v := range m.kycTasks {
		c.kycTasks[k] = v
	}
	for k, v := range m.kycResults {
		c.kycResults[k] = v
	}
	for k, v := range m.operators {
		c.operators[k] = v
	}
	for k, v := range m.pools {
		c.pools[k] = v
	}
	for k, v := range m.liquidityPositions {
		c.liquidityPositions[k] = v
	}
	for k, v := range m.liquidityEvents {
		c.liquidityEvents[k] = v
	}
	for k, v := range m.swaps {
		c.swaps[k] = v
	}
	for k, v := range m.users {
		c.users[k] = v
	}
	if m.protocolStats != nil {
		st := *m.protocolStats
		c.protocolStats = &st
	}
	for k, v := range m.zoneStats {
		c.zoneStats[k] = v
	}
	for k, v := range m.zoneContributors {
		c.zoneContributors[k] = v
	}
	for k, v := range m.dailyStats {
		c.dailyStats[k] = v
	}
	for k, v := range m.kv {
		c.kv[k] = v
	}
	return c
}

// MemoryStore is an in-memory Store with the same lookup, upsert and
// transaction semantics as the PostgreSQL implementation. It backs tests
// and replay audits where a database would only slow things down.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

// Transaction snapshots the state, runs fn, and rolls back to the snapshot
// when fn fails. Transactions serialize on the store mutex.
func (m *MemoryStore) Transaction(ctx context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(&memoryTx{state: m.state}); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (m *MemoryStore) InsertIndexedEvent(ctx context.Context, ev *schema.IndexedEvent) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memoryTx{state: m.state}).InsertIndexedEvent(ctx, ev)
}

// All single-shot calls outside a transaction go through a short-lived tx
// view over the shared state.
func (m *MemoryStore) tx() *memoryTx { return &memoryTx{state: m.state} }

func (m *MemoryStore) GetProject(ctx context.Context, id uint64) (*schema.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetProject(ctx, id)
}

func (m *MemoryStore) CreateProject(ctx context.Context, p *schema.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().CreateProject(ctx, p)
}

func (m *MemoryStore) SaveProject(ctx context.Context, p *schema.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().SaveProject(ctx, p)
}

func (m *MemoryStore) GetCarbonToken(ctx context.Context, id uint64) (*schema.CarbonToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetCarbonToken(ctx, id)
}

func (m *MemoryStore) SaveCarbonToken(ctx context.Context, t *schema.CarbonToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().SaveCarbonToken(ctx, t)
}

func (m *MemoryStore) GetCarbonBalance(ctx context.Context, owner string, tokenID uint64) (*schema.CarbonBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetCarbonBalance(ctx, owner, tokenID)
}

func (m *MemoryStore) SaveCarbonBalance(ctx context.Context, b *schema.CarbonBalance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().SaveCarbonBalance(ctx, b)
}

func (m *MemoryStore) CreateRetirement(ctx context.Context, r *schema.Retirement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().CreateRetirement(ctx, r)
}

func (m *MemoryStore) GetGuardian(ctx context.Context, id uint64) (*schema.Guardian, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetGuardian(ctx, id)
}

func (m *MemoryStore) CreateGuardian(ctx context.Context, g *schema.Guardian) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().CreateGuardian(ctx, g)
}

func (m *MemoryStore) SaveGuardian(ctx context.Context, g *schema.Guardian) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().SaveGuardian(ctx, g)
}

func (m *MemoryStore) CreateTierUpgrade(ctx context.Context, u *schema.TierUpgrade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().CreateTierUpgrade(ctx, u)
}

func (m *MemoryStore) GetOrder(ctx context.Context, id uint64) (*schema.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetOrder(ctx, id)
}

func (m *MemoryStore) CreateOrder(ctx context.Context, o *schema.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().CreateOrder(ctx, o)
}

func (m *MemoryStore) SaveOrder(ctx context.Context, o *schema.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().SaveOrder(ctx, o)
}

func (m *MemoryStore) CreateTrade(ctx context.Context, t *schema.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().CreateTrade(ctx, t)
}

func (m *MemoryStore) GetKycTask(ctx context.Context, id uint32) (*schema.KycTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetKycTask(ctx, id)
}

func (m *MemoryStore) CreateKycTask(ctx context.Context, t *schema.KycTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().CreateKycTask(ctx, t)
}

func (m *MemoryStore) SaveKycTask(ctx context.Context, t *schema.KycTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().SaveKycTask(ctx, t)
}

func (m *MemoryStore) GetKycResult(ctx context.Context, user string) (*schema.KycResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetKycResult(ctx, user)
}

func (m *MemoryStore) SaveKycResult(ctx context.Context, r *schema.KycResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().SaveKycResult(ctx, r)
}

func (m *MemoryStore) GetOperator(ctx context.Context, address string) (*schema.Operator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetOperator(ctx, address)
}

func (m *MemoryStore) SaveOperator(ctx context.Context, o *schema.Operator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().SaveOperator(ctx, o)
}

func (m *MemoryStore) GetPool(ctx context.Context, address string) (*schema.Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetPool(ctx, address)
}

func (m *MemoryStore) CreatePool(ctx context.Context, p *schema.Pool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().CreatePool(ctx, p)
}

func (m *MemoryStore) SavePool(ctx context.Context, p *schema.Pool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().SavePool(ctx, p)
}

func (m *MemoryStore) GetLiquidityPosition(ctx context.Context, pool, provider string) (*schema.LiquidityPosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetLiquidityPosition(ctx, pool, provider)
}

func (m *MemoryStore) SaveLiquidityPosition(ctx context.Context, p *schema.LiquidityPosition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().SaveLiquidityPosition(ctx, p)
}

func (m *MemoryStore) CreateLiquidityEvent(ctx context.Context, e *schema.LiquidityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().CreateLiquidityEvent(ctx, e)
}

func (m *MemoryStore) CreateSwap(ctx context.Context, sw *schema.Swap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().CreateSwap(ctx, sw)
}

func (m *MemoryStore) GetUser(ctx context.Context, address string) (*schema.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetUser(ctx, address)
}

func (m *MemoryStore) SaveUser(ctx context.Context, u *schema.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().SaveUser(ctx, u)
}

func (m *MemoryStore) GetProtocolStats(ctx context.Context) (*schema.ProtocolStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetProtocolStats(ctx)
}

func (m *MemoryStore) SaveProtocolStats(ctx context.Context, st *schema.ProtocolStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().SaveProtocolStats(ctx, st)
}

func (m *MemoryStore) GetZoneStats(ctx context.Context, zoneID int) (*schema.ZoneStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetZoneStats(ctx, zoneID)
}

func (m *MemoryStore) SaveZoneStats(ctx context.Context, z *schema.ZoneStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().SaveZoneStats(ctx, z)
}

func (m *MemoryStore) GetZoneContributor(ctx context.Context, zoneID int, user string) (*schema.ZoneContributor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetZoneContributor(ctx, zoneID, user)
}

func (m *MemoryStore) SaveZoneContributor(ctx context.Context, c *schema.ZoneContributor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().SaveZoneContributor(ctx, c)
}

func (m *MemoryStore) GetDailyStats(ctx context.Context, day string) (*schema.DailyStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetDailyStats(ctx, day)
}

func (m *MemoryStore) SaveDailyStats(ctx context.Context, d *schema.DailyStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().SaveDailyStats(ctx, d)
}

func (m *MemoryStore) GetBlockCursor(ctx context.Context, chain string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetBlockCursor(ctx, chain)
}

func (m *MemoryStore) SetBlockCursor(ctx context.Context, chain string, blockNumber uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().SetBlockCursor(ctx, chain, blockNumber)
}

// memoryTx is the mutex-free view handed to a transaction callback.
type memoryTx struct {
	state *memoryState
}

func balanceKey(owner string, tokenID uint64) string {
	return fmt.Sprintf("%s|%d", owner, tokenID)
}

func positionKey(pool, provider string) string {
	return fmt.Sprintf("%s|%s", pool, provider)
}

func contributorKey(zoneID int, user string) string {
	return fmt.Sprintf("%d|%s", zoneID, user)
}

func indexedEventKey(txHash string, logIndex uint) string {
	return fmt.Sprintf("%s-%d", txHash, logIndex)
}

func (t *memoryTx) Transaction(ctx context.Context, fn func(Store) error) error {
	// Nested transactions join the enclosing one.
	return fn(t)
}

func (t *memoryTx) InsertIndexedEvent(ctx context.Context, ev *schema.IndexedEvent) (bool, error) {
	key := indexedEventKey(ev.TxHash, ev.LogIndex)
	if _, ok := t.state.indexedEvents[key]; ok {
		return false, nil
	}
	t.state.indexedEvents[key] = *ev
	return true, nil
}

func (t *memoryTx) GetProject(ctx context.Context, id uint64) (*schema.Project, error) {
	if p, ok := t.state.projects[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (t *memoryTx) CreateProject(ctx context.Context, p *schema.Project) error {
	if _, ok := t.state.projects[p.ID]; ok {
		return fmt.Errorf("failed to create project: duplicate id %d", p.ID)
	}
	t.state.projects[p.ID] = *p
	return nil
}

func (t *memoryTx) SaveProject(ctx context.Context, p *schema.Project) error {
	t.state.projects[p.ID] = *p
	return nil
}

func (t *memoryTx) GetCarbonToken(ctx context.Context, id uint64) (*schema.CarbonToken, error) {
	if tok, ok := t.state.carbonTokens[id]; ok {
		return &tok, nil
	}
	return nil, nil
}

func (t *memoryTx) SaveCarbonToken(ctx context.Context, tok *schema.CarbonToken) error {
	t.state.carbonTokens[tok.ID] = *tok
	return nil
}

func (t *memoryTx) GetCarbonBalance(ctx context.Context, owner string, tokenID uint64) (*schema.CarbonBalance, error) {
	if b, ok := t.state.carbonBalances[balanceKey(owner, tokenID)]; ok {
		return &b, nil
	}
	return nil, nil
}

func (t *memoryTx) SaveCarbonBalance(ctx context.Context, b *schema.CarbonBalance) error {
	t.state.carbonBalances[balanceKey(b.Owner, b.TokenID)] = *b
	return nil
}

func (t *memoryTx) CreateRetirement(ctx context.Context, r *schema.Retirement) error {
	if _, ok := t.state.retirements[r.ID]; ok {
		return fmt.Errorf("failed to create retirement: duplicate id %s", r.ID)
	}
	t.state.retirements[r.ID] = *r
	return nil
}

func (t *memoryTx) GetGuardian(ctx context.Context, id uint64) (*schema.Guardian, error) {
	if g, ok := t.state.guardians[id]; ok {
		return &g, nil
	}
	return nil, nil
}

func (t *memoryTx) CreateGuardian(ctx context.Context, g *schema.Guardian) error {
	if _, ok := t.state.guardians[g.ID]; ok {
		return fmt.Errorf("failed to create guardian: duplicate id %d", g.ID)
	}
	t.state.guardians[g.ID] = *g
	return nil
}

func (t *memoryTx) SaveGuardian(ctx context.Context, g *schema.Guardian) error {
	t.state.guardians[g.ID] = *g
	return nil
}

func (t *memoryTx) CreateTierUpgrade(ctx context.Context, u *schema.TierUpgrade) error {
	if _, ok := t.state.tierUpgrades[u.ID]; ok {
		return fmt.Errorf("failed to create tier upgrade: duplicate id %s", u.ID)
	}
	t.state.tierUpgrades[u.ID] = *u
	return nil
}

func (t *memoryTx) GetOrder(ctx context.Context, id uint64) (*schema.Order, error) {
	if o, ok := t.state.orders[id]; ok {
		return &o, nil
	}
	return nil, nil
}

func (t *memoryTx) CreateOrder(ctx context.Context, o *schema.Order) error {
	if _, ok := t.state.orders[o.ID]; ok {
		return fmt.Errorf("failed to create order: duplicate id %d", o.ID)
	}
	t.state.orders[o.ID] = *o
	return nil
}

func (t *memoryTx) SaveOrder(ctx context.Context, o *schema.Order) error {
	t.state.orders[o.ID] = *o
	return nil
}

func (t *memoryTx) CreateTrade(ctx context.Context, tr *schema.Trade) error {
	if _, ok := t.state.trades[tr.ID]; ok {
		return fmt.Errorf("failed to create trade: duplicate id %s", tr.ID)
	}
	t.state.trades[tr.ID] = *tr
	return nil
}

func (t *memoryTx) GetKycTask(ctx context.Context, id uint32) (*schema.KycTask, error) {
	if task, ok := t.state.kycTasks[id]; ok {
		return &task, nil
	}
	return nil, nil
}

func (t *memoryTx) CreateKycTask(ctx context.Context, task *schema.KycTask) error {
	if _, ok := t.state.kycTasks[task.ID]; ok {
		return fmt.Errorf("failed to create kyc task: duplicate id %d", task.ID)
	}
	t.state.kycTasks[task.ID] = *task
	return nil
}

func (t *memoryTx) SaveKycTask(ctx context.Context, task *schema.KycTask) error {
	t.state.kycTasks[task.ID] = *task
	return nil
}

func (t *memoryTx) GetKycResult(ctx context.Context, user string) (*schema.KycResult, error) {
	if r, ok := t.state.kycResults[user]; ok {
		return &r, nil
	}
	return nil, nil
}

func (t *memoryTx) SaveKycResult(ctx context.Context, r *schema.KycResult) error {
	t.state.kycResults[r.User] = *r
	return nil
}

func (t *memoryTx) GetOperator(ctx context.Context, address string) (*schema.Operator, error) {
	if o, ok := t.state.operators[address]; ok {
		return &o, nil
	}
	return nil, nil
}

func (t *memoryTx) SaveOperator(ctx context.Context, o *schema.Operator) error {
	t.state.operators[o.Address] = *o
	return nil
}

func (t *memoryTx) GetPool(ctx context.Context, address string) (*schema.Pool, error) {
	if p, ok := t.state.pools[address]; ok {
		return &p, nil
	}
	return nil, nil
}

func (t *memoryTx) CreatePool(ctx context.Context, p *schema.Pool) error {
	if _, ok := t.state.pools[p.Address]; ok {
		return fmt.Errorf("failed to create pool: duplicate address %s", p.Address)
	}
	t.state.pools[p.Address] = *p
	return nil
}

func (t *memoryTx) SavePool(ctx context.Context, p *schema.Pool) error {
	t.state.pools[p.Address] = *p
	return nil
}

func (t *memoryTx) GetLiquidityPosition(ctx context.Context, pool, provider string) (*schema.LiquidityPosition, error) {
	if p, ok := t.state.liquidityPositions[positionKey(pool, provider)]; ok {
		return &p, nil
	}
	return nil, nil
}

func (t *memoryTx) SaveLiquidityPosition(ctx context.Context, p *schema.LiquidityPosition) error {
	t.state.liquidityPositions[positionKey(p.Pool, p.Provider)] = *p
	return nil
}

func (t *memoryTx) CreateLiquidityEvent(ctx context.Context, e *schema.LiquidityEvent) error {
	if _, ok := t.state.liquidityEvents[e.ID]; ok {
		return fmt.Errorf("failed to create liquidity event: duplicate id %s", e.ID)
	}
	t.state.liquidityEvents[e.ID] = *e
	return nil
}

func (t *memoryTx) CreateSwap(ctx context.Context, sw *schema.Swap) error {
	if _, ok := t.state.swaps[sw.ID]; ok {
		return fmt.Errorf("failed to create swap: duplicate id %s", sw.ID)
	}
	t.state.swaps[sw.ID] = *sw
	return nil
}

func (t *memoryTx) GetUser(ctx context.Context, address string) (*schema.User, error) {
	if u, ok := t.state.users[address]; ok {
		return &u, nil
	}
	return nil, nil
}

func (t *memoryTx) SaveUser(ctx context.Context, u *schema.User) error {
	t.state.users[u.Address] = *u
	return nil
}

func (t *memoryTx) GetProtocolStats(ctx context.Context) (*schema.ProtocolStats, error) {
	if t.state.protocolStats == nil {
		return nil, nil
	}
	st := *t.state.protocolStats
	return &st, nil
}

func (t *memoryTx) SaveProtocolStats(ctx context.Context, st *schema.ProtocolStats) error {
	cp := *st
	t.state.protocolStats = &cp
	return nil
}

func (t *memoryTx) GetZoneStats(ctx context.Context, zoneID int) (*schema.ZoneStats, error) {
	if z, ok := t.state.zoneStats[zoneID]; ok {
		return &z, nil
	}
	return nil, nil
}

func (t *memoryTx) SaveZoneStats(ctx context.Context, z *schema.ZoneStats) error {
	t.state.zoneStats[z.ID] = *z
	return nil
}

func (t *memoryTx) GetZoneContributor(ctx context.Context, zoneID int, user string) (*schema.ZoneContributor, error) {
	if c, ok := t.state.zoneContributors[contributorKey(zoneID, user)]; ok {
		return &c, nil
	}
	return nil, nil
}

func (t *memoryTx) SaveZoneContributor(ctx context.Context, c *schema.ZoneContributor) error {
	t.state.zoneContributors[contributorKey(c.ZoneID, c.User)] = *c
	return nil
}

func (t *memoryTx) GetDailyStats(ctx context.Context, day string) (*schema.DailyStats, error) {
	if d, ok := t.state.dailyStats[day]; ok {
		return &d, nil
	}
	return nil, nil
}

func (t *memoryTx) SaveDailyStats(ctx context.Context, d *schema.DailyStats) error {
	t.state.dailyStats[d.ID] = *d
	return nil
}

func (t *memoryTx) GetBlockCursor(ctx context.Context, chain string) (uint64, error) {
	v, ok := t.state.kv[fmt.Sprintf("block_cursor:%s", chain)]
	if !ok {
		return 0, nil
	}
	var n uint64
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return 0, fmt.Errorf("failed to parse block cursor: %w", err)
	}
	return n, nil
}

func (t *memoryTx) SetBlockCursor(ctx context.Context, chain string, blockNumber uint64) error {
	t.state.kv[fmt.Sprintf("block_cursor:%s", chain)] = fmt.Sprintf("%d", blockNumber)
	return nil
}
