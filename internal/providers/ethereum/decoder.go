package ethereum

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/verdant-protocol/carbon-indexer/internal/domain"
)

// Contracts holds the deployed addresses of the protocol contracts. Pool
// contracts are deployed by the factory and are not listed here; pool events
// are attributed by the emitting address instead.
type Contracts struct {
	CarbonCreditToken common.Address
	GuardianNFT       common.Address
	CarbonOrderBook   common.Address
	KYCServiceManager common.Address
	CarbonPoolFactory common.Address
}

// ParseContracts builds a Contracts set from hex address strings.
func ParseContracts(carbonToken, guardianNFT, orderBook, kycManager, poolFactory string) (Contracts, error) {
	var c Contracts
	for _, a := range []struct {
		name string
		raw  string
		dst  *common.Address
	}{
		{"carbon_token", carbonToken, &c.CarbonCreditToken},
		{"guardian_nft", guardianNFT, &c.GuardianNFT},
		{"order_book", orderBook, &c.CarbonOrderBook},
		{"kyc_manager", kycManager, &c.KYCServiceManager},
		{"pool_factory", poolFactory, &c.CarbonPoolFactory},
	} {
		if !common.IsHexAddress(a.raw) {
			return Contracts{}, fmt.Errorf("invalid %s contract address %q", a.name, a.raw)
		}
		*a.dst = common.HexToAddress(a.raw)
	}
	return c, nil
}

// Addresses returns the static contract addresses for log filtering. Pool
// addresses are intentionally absent; pool events are matched by topic alone.
func (c Contracts) Addresses() []common.Address {
	return []common.Address{
		c.CarbonCreditToken,
		c.GuardianNFT,
		c.CarbonOrderBook,
		c.KYCServiceManager,
		c.CarbonPoolFactory,
	}
}

// Decoder turns raw logs into typed protocol events.
type Decoder struct {
	contracts Contracts
}

func NewDecoder(contracts Contracts) *Decoder {
	return &Decoder{contracts: contracts}
}

// Decode translates one log into a domain event. It returns (nil, nil) for
// logs the indexer does not understand: unknown topics, or known topics
// emitted by an unexpected address. blockTime is the containing block's
// timestamp in Unix seconds.
func (d *Decoder) Decode(log types.Log, blockTime uint64) (*domain.Event, error) {
	if len(log.Topics) == 0 {
		return nil, nil
	}

	var (
		contract domain.Contract
		payload  domain.Payload
		err      error
	)

	topic0 := log.Topics[0]
	switch topic0 {
	case topicProjectRegistered, topicProjectVerified, topicCarbonMinted, topicCarbonRetired:
		if log.Address != d.contracts.CarbonCreditToken {
			return nil, nil
		}
		contract = domain.ContractCarbonCreditToken
		payload, err = d.decodeCarbonToken(topic0, log)
	case topicGuardianMinted, topicGuardianUpgraded, topicNicknameUpdated, topicRetirementRecorded, topicTransferUnlocked:
		if log.Address != d.contracts.GuardianNFT {
			return nil, nil
		}
		contract = domain.ContractGuardianNFT
		payload, err = d.decodeGuardian(topic0, log)
	case topicOrderPlaced, topicOrderCancelled, topicTradeExecuted:
		if log.Address != d.contracts.CarbonOrderBook {
			return nil, nil
		}
		contract = domain.ContractCarbonOrderBook
		payload, err = d.decodeOrderBook(topic0, log)
	case topicNewTaskCreated, topicTaskResponded, topicOperatorRegistered, topicOperatorDeregistered:
		if log.Address != d.contracts.KYCServiceManager {
			return nil, nil
		}
		contract = domain.ContractKYCServiceManager
		payload, err = d.decodeKYC(topic0, log)
	case topicPoolCreated:
		if log.Address != d.contracts.CarbonPoolFactory {
			return nil, nil
		}
		contract = domain.ContractCarbonPoolFactory
		payload, err = d.decodePoolCreated(log)
	case topicLiquidityAdded, topicLiquidityRemoved, topicSwapExecuted:
		// Pools are factory-deployed, the emitting address is the pool.
		contract = domain.ContractCarbonPool
		payload, err = d.decodePool(topic0, log)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode log %s[%d]: %w", log.TxHash.Hex(), log.Index, err)
	}
	if payload == nil {
		return nil, nil
	}

	return &domain.Event{
		Contract:    contract,
		Kind:        payload.EventKind(),
		BlockNumber: log.BlockNumber,
		TxIndex:     log.TxIndex,
		LogIndex:    log.Index,
		TxHash:      log.TxHash.Hex(),
		Timestamp:   blockTime,
		Payload:     payload,
	}, nil
}

func (d *Decoder) decodeCarbonToken(topic0 common.Hash, log types.Log) (domain.Payload, error) {
	switch topic0 {
	case topicProjectRegistered:
		vals, err := unpack(carbonCreditTokenABI, "ProjectRegistered", log.Data)
		if err != nil {
			return nil, err
		}
		return &domain.ProjectRegistered{
			ProjectID:    topicUint64(log, 1),
			Name:         vals[0].(string),
			Category:     int(vals[1].(uint8)),
			Vintage:      int(vals[2].(uint16)),
			RegisteredBy: topicAddress(log, 2),
		}, nil
	case topicProjectVerified:
		vals, err := unpack(carbonCreditTokenABI, "ProjectVerified", log.Data)
		if err != nil {
			return nil, err
		}
		return &domain.ProjectVerified{
			ProjectID:    topicUint64(log, 1),
			QualityScore: int(vals[0].(uint8)),
		}, nil
	case topicCarbonMinted:
		vals, err := unpack(carbonCreditTokenABI, "CarbonMinted", log.Data)
		if err != nil {
			return nil, err
		}
		return &domain.CarbonMinted{
			TokenID:   topicUint64(log, 1),
			To:        topicAddress(log, 2),
			Amount:    amount(vals[0]),
			ProjectID: vals[1].(*big.Int).Uint64(),
			Vintage:   int(vals[2].(uint16)),
			Category:  int(vals[3].(uint8)),
		}, nil
	case topicCarbonRetired:
		vals, err := unpack(carbonCreditTokenABI, "CarbonRetired", log.Data)
		if err != nil {
			return nil, err
		}
		return &domain.CarbonRetired{
			TokenID:        topicUint64(log, 1),
			User:           topicAddress(log, 2),
			Amount:         amount(vals[0]),
			ProjectID:      vals[1].(*big.Int).Uint64(),
			Vintage:        int(vals[2].(uint16)),
			Category:       int(vals[3].(uint8)),
			RetirementNote: vals[4].(string),
		}, nil
	}
	return nil, nil
}

func (d *Decoder) decodeGuardian(topic0 common.Hash, log types.Log) (domain.Payload, error) {
	switch topic0 {
	case topicGuardianMinted:
		vals, err := unpack(guardianNFTABI, "GuardianMinted", log.Data)
		if err != nil {
			return nil, err
		}
		return &domain.GuardianMinted{
			TokenID:        topicUint64(log, 1),
			Owner:          topicAddress(log, 2),
			Tier:           int(vals[0].(uint8)),
			ZoneID:         int(vals[1].(uint8)),
			InitialRetired: amount(vals[2]),
		}, nil
	case topicGuardianUpgraded:
		vals, err := unpack(guardianNFTABI, "GuardianUpgraded", log.Data)
		if err != nil {
			return nil, err
		}
		return &domain.GuardianUpgraded{
			TokenID:      topicUint64(log, 1),
			OldTier:      int(vals[0].(uint8)),
			NewTier:      int(vals[1].(uint8)),
			TotalRetired: amount(vals[2]),
		}, nil
	case topicNicknameUpdated:
		vals, err := unpack(guardianNFTABI, "NicknameUpdated", log.Data)
		if err != nil {
			return nil, err
		}
		return &domain.NicknameUpdated{
			TokenID:  topicUint64(log, 1),
			Nickname: vals[0].(string),
		}, nil
	case topicRetirementRecorded:
		vals, err := unpack(guardianNFTABI, "RetirementRecorded", log.Data)
		if err != nil {
			return nil, err
		}
		return &domain.RetirementRecorded{
			TokenID:  topicUint64(log, 1),
			Amount:   amount(vals[0]),
			NewTotal: amount(vals[1]),
		}, nil
	case topicTransferUnlocked:
		vals, err := unpack(guardianNFTABI, "TransferUnlocked", log.Data)
		if err != nil {
			return nil, err
		}
		return &domain.TransferUnlocked{
			TokenID: topicUint64(log, 1),
			FeePaid: amount(vals[0]),
		}, nil
	}
	return nil, nil
}

func (d *Decoder) decodeOrderBook(topic0 common.Hash, log types.Log) (domain.Payload, error) {
	switch topic0 {
	case topicOrderPlaced:
		vals, err := unpack(carbonOrderBookABI, "OrderPlaced", log.Data)
		if err != nil {
			return nil, err
		}
		p := &domain.OrderPlaced{
			OrderID:      topicUint64(log, 1),
			User:         topicAddress(log, 2),
			Side:         int(vals[0].(uint8)),
			Price:        amount(vals[1]),
			Quantity:     amount(vals[2]),
			OrderType:    int(vals[3].(uint8)),
			Category:     int(vals[4].(uint8)),
			RetireOnFill: vals[9].(bool),
		}
		// Zero filter values mean "no constraint".
		if id := vals[5].(*big.Int); id.Sign() != 0 {
			v := id.Uint64()
			p.ProjectID = &v
		}
		if v := int(vals[6].(uint16)); v != 0 {
			p.MinVintage = &v
		}
		if v := int(vals[7].(uint16)); v != 0 {
			p.MaxVintage = &v
		}
		if v := int(vals[8].(uint8)); v != 0 {
			p.MinQualityScore = &v
		}
		return p, nil
	case topicOrderCancelled:
		return &domain.OrderCancelled{
			OrderID: topicUint64(log, 1),
			User:    topicAddress(log, 2),
		}, nil
	case topicTradeExecuted:
		vals, err := unpack(carbonOrderBookABI, "TradeExecuted", log.Data)
		if err != nil {
			return nil, err
		}
		return &domain.TradeExecuted{
			BuyOrderID:  topicUint64(log, 1),
			SellOrderID: topicUint64(log, 2),
			Buyer:       addr(vals[0]),
			Seller:      addr(vals[1]),
			TokenID:     vals[2].(*big.Int).Uint64(),
			Price:       amount(vals[3]),
			Quantity:    amount(vals[4]),
			BuyerFee:    amount(vals[5]),
			SellerFee:   amount(vals[6]),
		}, nil
	}
	return nil, nil
}

func (d *Decoder) decodeKYC(topic0 common.Hash, log types.Log) (domain.Payload, error) {
	switch topic0 {
	case topicNewTaskCreated:
		vals, err := unpack(kycServiceManagerABI, "NewTaskCreated", log.Data)
		if err != nil {
			return nil, err
		}
		return &domain.NewTaskCreated{
			TaskID:        uint32(topicUint64(log, 1)), //nolint:gosec
			User:          addr(vals[0]),
			RequiredLevel: int(vals[1].(uint8)),
		}, nil
	case topicTaskResponded:
		vals, err := unpack(kycServiceManagerABI, "TaskResponded", log.Data)
		if err != nil {
			return nil, err
		}
		return &domain.TaskResponded{
			TaskID:        uint32(topicUint64(log, 1)), //nolint:gosec
			Operator:      addr(vals[0]),
			AchievedLevel: int(vals[1].(uint8)),
		}, nil
	case topicOperatorRegistered:
		return &domain.OperatorRegistered{Operator: topicAddress(log, 1)}, nil
	case topicOperatorDeregistered:
		return &domain.OperatorDeregistered{Operator: topicAddress(log, 1)}, nil
	}
	return nil, nil
}

func (d *Decoder) decodePoolCreated(log types.Log) (domain.Payload, error) {
	vals, err := unpack(carbonPoolFactoryABI, "PoolCreated", log.Data)
	if err != nil {
		return nil, err
	}
	return &domain.PoolCreated{
		CarbonTokenID: topicUint64(log, 1),
		Pool:          topicAddress(log, 2),
		Tier:          int(vals[0].(uint8)),
	}, nil
}

func (d *Decoder) decodePool(topic0 common.Hash, log types.Log) (domain.Payload, error) {
	pool := strings.ToLower(log.Address.Hex())
	switch topic0 {
	case topicLiquidityAdded:
		vals, err := unpack(carbonPoolABI, "LiquidityAdded", log.Data)
		if err != nil {
			return nil, err
		}
		return &domain.LiquidityAdded{
			Pool:         pool,
			Provider:     topicAddress(log, 1),
			CarbonAmount: amount(vals[0]),
			QuoteAmount:  amount(vals[1]),
			LPTokens:     amount(vals[2]),
		}, nil
	case topicLiquidityRemoved:
		vals, err := unpack(carbonPoolABI, "LiquidityRemoved", log.Data)
		if err != nil {
			return nil, err
		}
		return &domain.LiquidityRemoved{
			Pool:         pool,
			Provider:     topicAddress(log, 1),
			CarbonAmount: amount(vals[0]),
			QuoteAmount:  amount(vals[1]),
			LPTokens:     amount(vals[2]),
		}, nil
	case topicSwapExecuted:
		vals, err := unpack(carbonPoolABI, "SwapExecuted", log.Data)
		if err != nil {
			return nil, err
		}
		return &domain.SwapExecuted{
			Pool:            pool,
			User:            topicAddress(log, 1),
			CarbonToQuote:   vals[0].(bool),
			AmountIn:        amount(vals[1]),
			AmountOut:       amount(vals[2]),
			Fee:             amount(vals[3]),
			DiscountBps:     int(vals[4].(uint16)),
			SpotPriceBefore: amount(vals[5]),
			SpotPriceAfter:  amount(vals[6]),
		}, nil
	}
	return nil, nil
}

func unpack(contractABI abi.ABI, name string, data []byte) ([]interface{}, error) {
	vals, err := contractABI.Unpack(name, data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s data: %w", name, err)
	}
	return vals, nil
}

// topicUint64 reads an indexed uint256/uint32 topic as uint64.
func topicUint64(log types.Log, i int) uint64 {
	if i >= len(log.Topics) {
		return 0
	}
	return new(big.Int).SetBytes(log.Topics[i].Bytes()).Uint64()
}

// topicAddress reads an indexed address topic as a lowercase hex string.
func topicAddress(log types.Log, i int) string {
	if i >= len(log.Topics) {
		return ""
	}
	return strings.ToLower(common.BytesToAddress(log.Topics[i].Bytes()).Hex())
}

func addr(v interface{}) string {
	return strings.ToLower(v.(common.Address).Hex())
}

// amount renders a uint256 value as a decimal string.
func amount(v interface{}) string {
	return v.(*big.Int).String()
}
