package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Contract identifies one of the protocol contracts the indexer listens to.
type Contract string

const (
	ContractCarbonCreditToken Contract = "CarbonCreditToken"
	ContractGuardianNFT       Contract = "GuardianNFT"
	ContractCarbonOrderBook   Contract = "CarbonOrderBook"
	ContractKYCServiceManager Contract = "KYCServiceManager"
	ContractCarbonPoolFactory Contract = "CarbonPoolFactory"
	// ContractCarbonPool covers every pool deployed by the factory; the
	// concrete pool address travels in the payload.
	ContractCarbonPool Contract = "CarbonPool"
)

// Kind is the closed enumeration of event types the reducer understands.
// Adding a new on-chain event means adding a Kind, a payload struct, a
// decoder entry and a reducer case; anything not listed here is a
// configuration error, never silently dropped.
type Kind string

const (
	KindProjectRegistered    Kind = "project_registered"
	KindProjectVerified      Kind = "project_verified"
	KindCarbonMinted         Kind = "carbon_minted"
	KindCarbonRetired        Kind = "carbon_retired"
	KindGuardianMinted       Kind = "guardian_minted"
	KindGuardianUpgraded     Kind = "guardian_upgraded"
	KindNicknameUpdated      Kind = "nickname_updated"
	KindRetirementRecorded   Kind = "retirement_recorded"
	KindTransferUnlocked     Kind = "transfer_unlocked"
	KindOrderPlaced          Kind = "order_placed"
	KindOrderCancelled       Kind = "order_cancelled"
	KindTradeExecuted        Kind = "trade_executed"
	KindNewTaskCreated       Kind = "new_task_created"
	KindTaskResponded        Kind = "task_responded"
	KindOperatorRegistered   Kind = "operator_registered"
	KindOperatorDeregistered Kind = "operator_deregistered"
	KindPoolCreated          Kind = "pool_created"
	KindLiquidityAdded       Kind = "liquidity_added"
	KindLiquidityRemoved     Kind = "liquidity_removed"
	KindSwapExecuted         Kind = "swap_executed"
)

// Payload is the decoded, ABI-typed argument set of one event.
type Payload interface {
	EventKind() Kind
}

// Event is the envelope delivered by the feed: one decoded log with its chain
// coordinates. Events arrive strictly ordered by (BlockNumber, TxIndex,
// LogIndex) and (TxHash, LogIndex) uniquely identifies a log.
type Event struct {
	Contract    Contract `json:"contract"`
	Kind        Kind     `json:"kind"`
	BlockNumber uint64   `json:"block_number"`
	TxIndex     uint     `json:"tx_index"`
	LogIndex    uint     `json:"log_index"`
	TxHash      string   `json:"tx_hash"`
	// Timestamp is the block timestamp in Unix seconds. All time-derived
	// state (daily buckets, expiry) is a pure function of this value.
	Timestamp uint64  `json:"timestamp"`
	Payload   Payload `json:"payload"`
}

// ID returns the canonical append-only identifier for this event.
func (e *Event) ID() string {
	return fmt.Sprintf("%s-%d", e.TxHash, e.LogIndex)
}

// Day returns the UTC calendar-day bucket key (YYYY-MM-DD) for the event.
func (e *Event) Day() string {
	return DayKey(e.Timestamp)
}

// DayKey truncates a Unix-seconds timestamp to its UTC calendar date.
func DayKey(ts uint64) string {
	return time.Unix(int64(ts), 0).UTC().Format("2006-01-02") //nolint:gosec
}

type eventEnvelope struct {
	Contract    Contract        `json:"contract"`
	Kind        Kind            `json:"kind"`
	BlockNumber uint64          `json:"block_number"`
	TxIndex     uint            `json:"tx_index"`
	LogIndex    uint            `json:"log_index"`
	TxHash      string          `json:"tx_hash"`
	Timestamp   uint64          `json:"timestamp"`
	Payload     json.RawMessage `json:"payload"`
}

// UnmarshalJSON decodes the envelope and dispatches the payload to the
// concrete struct registered for the envelope's kind.
func (e *Event) UnmarshalJSON(data []byte) error {
	var env eventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	payload, err := NewPayload(env.Kind)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(env.Payload, payload); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", env.Kind, err)
	}

	e.Contract = env.Contract
	e.Kind = env.Kind
	e.BlockNumber = env.BlockNumber
	e.TxIndex = env.TxIndex
	e.LogIndex = env.LogIndex
	e.TxHash = env.TxHash
	e.Timestamp = env.Timestamp
	e.Payload = payload
	return nil
}

// NewPayload returns a zero payload value for the given kind.
func NewPayload(kind Kind) (Payload, error) {
	switch kind {
	case KindProjectRegistered:
		return &ProjectRegistered{}, nil
	case KindProjectVerified:
		return &ProjectVerified{}, nil
	case KindCarbonMinted:
		return &CarbonMinted{}, nil
	case KindCarbonRetired:
		return &CarbonRetired{}, nil
	case KindGuardianMinted:
		return &GuardianMinted{}, nil
	case KindGuardianUpgraded:
		return &GuardianUpgraded{}, nil
	case KindNicknameUpdated:
		return &NicknameUpdated{}, nil
	case KindRetirementRecorded:
		return &RetirementRecorded{}, nil
	case KindTransferUnlocked:
		return &TransferUnlocked{}, nil
	case KindOrderPlaced:
		return &OrderPlaced{}, nil
	case KindOrderCancelled:
		return &OrderCancelled{}, nil
	case KindTradeExecuted:
		return &TradeExecuted{}, nil
	case KindNewTaskCreated:
		return &NewTaskCreated{}, nil
	case KindTaskResponded:
		return &TaskResponded{}, nil
	case KindOperatorRegistered:
		return &OperatorRegistered{}, nil
	case KindOperatorDeregistered:
		return &OperatorDeregistered{}, nil
	case KindPoolCreated:
		return &PoolCreated{}, nil
	case KindLiquidityAdded:
		return &LiquidityAdded{}, nil
	case KindLiquidityRemoved:
		return &LiquidityRemoved{}, nil
	case KindSwapExecuted:
		return &SwapExecuted{}, nil
	default:
		return nil, fmt.Errorf("%w: kind %q", ErrUnknownEvent, kind)
	}
}

// ============ CarbonCreditToken ============

// ProjectRegistered announces a new carbon project on the registry.
type ProjectRegistered struct {
	ProjectID    uint64 `json:"project_id"`
	Name         string `json:"name"`
	Category     int    `json:"category"`
	Vintage      int    `json:"vintage"`
	RegisteredBy string `json:"registered_by"`
}

func (ProjectRegistered) EventKind() Kind { return KindProjectRegistered }

// ProjectVerified marks a project as verified with its quality score.
type ProjectVerified struct {
	ProjectID    uint64 `json:"project_id"`
	QualityScore int    `json:"quality_score"`
}

func (ProjectVerified) EventKind() Kind { return KindProjectVerified }

// CarbonMinted credits newly issued carbon tokens to a recipient.
type CarbonMinted struct {
	TokenID   uint64 `json:"token_id"`
	To        string `json:"to"`
	Amount    string `json:"amount"`
	ProjectID uint64 `json:"project_id"`
	Vintage   int    `json:"vintage"`
	Category  int    `json:"category"`
}

func (CarbonMinted) EventKind() Kind { return KindCarbonMinted }

// CarbonRetired permanently retires carbon tokens held by a user.
type CarbonRetired struct {
	TokenID        uint64 `json:"token_id"`
	User           string `json:"user"`
	Amount         string `json:"amount"`
	ProjectID      uint64 `json:"project_id"`
	Vintage        int    `json:"vintage"`
	Category       int    `json:"category"`
	RetirementNote string `json:"retirement_note"`
}

func (CarbonRetired) EventKind() Kind { return KindCarbonRetired }

// ============ GuardianNFT ============

// GuardianMinted creates a guardian NFT for an owner. Tier carries the
// contract-emitted tier; InitialRetired allows deriving it locally instead
// (see reducer.TierSource).
type GuardianMinted struct {
	TokenID        uint64 `json:"token_id"`
	Owner          string `json:"owner"`
	Tier           int    `json:"tier"`
	ZoneID         int    `json:"zone_id"`
	InitialRetired string `json:"initial_retired"`
}

func (GuardianMinted) EventKind() Kind { return KindGuardianMinted }

// GuardianUpgraded promotes a guardian to a higher tier.
type GuardianUpgraded struct {
	TokenID      uint64 `json:"token_id"`
	OldTier      int    `json:"old_tier"`
	NewTier      int    `json:"new_tier"`
	TotalRetired string `json:"total_retired"`
}

func (GuardianUpgraded) EventKind() Kind { return KindGuardianUpgraded }

// NicknameUpdated sets a guardian's display nickname.
type NicknameUpdated struct {
	TokenID  uint64 `json:"token_id"`
	Nickname string `json:"nickname"`
}

func (NicknameUpdated) EventKind() Kind { return KindNicknameUpdated }

// RetirementRecorded credits a retirement against a guardian's running total.
type RetirementRecorded struct {
	TokenID  uint64 `json:"token_id"`
	Amount   string `json:"amount"`
	NewTotal string `json:"new_total"`
}

func (RetirementRecorded) EventKind() Kind { return KindRetirementRecorded }

// TransferUnlocked marks a guardian NFT as transferable after paying a fee.
type TransferUnlocked struct {
	TokenID uint64 `json:"token_id"`
	FeePaid string `json:"fee_paid"`
}

func (TransferUnlocked) EventKind() Kind { return KindTransferUnlocked }

// ============ CarbonOrderBook ============

// OrderPlaced opens a new order with its optional matching filters.
type OrderPlaced struct {
	OrderID         uint64  `json:"order_id"`
	User            string  `json:"user"`
	Side            int     `json:"side"`
	Price           string  `json:"price"`
	Quantity        string  `json:"quantity"`
	OrderType       int     `json:"order_type"`
	Category        int     `json:"category"`
	ProjectID       *uint64 `json:"project_id,omitempty"`
	MinVintage      *int    `json:"min_vintage,omitempty"`
	MaxVintage      *int    `json:"max_vintage,omitempty"`
	MinQualityScore *int    `json:"min_quality_score,omitempty"`
	RetireOnFill    bool    `json:"retire_on_fill"`
}

func (OrderPlaced) EventKind() Kind { return KindOrderPlaced }

// OrderCancelled closes an open order without further fills.
type OrderCancelled struct {
	OrderID uint64 `json:"order_id"`
	User    string `json:"user"`
}

func (OrderCancelled) EventKind() Kind { return KindOrderCancelled }

// TradeExecuted records a fill between a buy and a sell order.
type TradeExecuted struct {
	BuyOrderID  uint64 `json:"buy_order_id"`
	SellOrderID uint64 `json:"sell_order_id"`
	Buyer       string `json:"buyer"`
	Seller      string `json:"seller"`
	TokenID     uint64 `json:"token_id"`
	Price       string `json:"price"`
	Quantity    string `json:"quantity"`
	BuyerFee    string `json:"buyer_fee"`
	SellerFee   string `json:"seller_fee"`
}

func (TradeExecuted) EventKind() Kind { return KindTradeExecuted }

// ============ KYCServiceManager ============

// NewTaskCreated opens a KYC verification task for a user.
type NewTaskCreated struct {
	TaskID        uint32 `json:"task_id"`
	User          string `json:"user"`
	RequiredLevel int    `json:"required_level"`
}

func (NewTaskCreated) EventKind() Kind { return KindNewTaskCreated }

// TaskResponded completes a KYC task with the level the operator attested.
type TaskResponded struct {
	TaskID        uint32 `json:"task_id"`
	Operator      string `json:"operator"`
	AchievedLevel int    `json:"achieved_level"`
}

func (TaskResponded) EventKind() Kind { return KindTaskResponded }

// OperatorRegistered registers an AVS operator.
type OperatorRegistered struct {
	Operator string `json:"operator"`
}

func (OperatorRegistered) EventKind() Kind { return KindOperatorRegistered }

// OperatorDeregistered removes an AVS operator.
type OperatorDeregistered struct {
	Operator string `json:"operator"`
}

func (OperatorDeregistered) EventKind() Kind { return KindOperatorDeregistered }

// ============ CarbonPoolFactory / CarbonPool ============

// PoolCreated announces a new AMM pool deployed by the factory.
type PoolCreated struct {
	CarbonTokenID uint64 `json:"carbon_token_id"`
	Pool          string `json:"pool"`
	Tier          int    `json:"tier"`
}

func (PoolCreated) EventKind() Kind { return KindPoolCreated }

// LiquidityAdded records a liquidity deposit into a pool.
type LiquidityAdded struct {
	Pool         string `json:"pool"`
	Provider     string `json:"provider"`
	CarbonAmount string `json:"carbon_amount"`
	QuoteAmount  string `json:"quote_amount"`
	LPTokens     string `json:"lp_tokens"`
}

func (LiquidityAdded) EventKind() Kind { return KindLiquidityAdded }

// LiquidityRemoved records a liquidity withdrawal from a pool.
type LiquidityRemoved struct {
	Pool         string `json:"pool"`
	Provider     string `json:"provider"`
	CarbonAmount string `json:"carbon_amount"`
	QuoteAmount  string `json:"quote_amount"`
	LPTokens     string `json:"lp_tokens"`
}

func (LiquidityRemoved) EventKind() Kind { return KindLiquidityRemoved }

// SwapExecuted records a swap against a pool.
type SwapExecuted struct {
	Pool            string `json:"pool"`
	User            string `json:"user"`
	CarbonToQuote   bool   `json:"carbon_to_quote"`
	AmountIn        string `json:"amount_in"`
	AmountOut       string `json:"amount_out"`
	Fee             string `json:"fee"`
	DiscountBps     int    `json:"discount_bps"`
	SpotPriceBefore string `json:"spot_price_before"`
	SpotPriceAfter  string `json:"spot_price_after"`
}

func (SwapExecuted) EventKind() Kind { return KindSwapExecuted }
