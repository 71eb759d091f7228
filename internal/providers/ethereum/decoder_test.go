package ethereum

import (
	"math/big"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant-protocol/carbon-indexer/internal/domain"
	"github.com/verdant-protocol/carbon-indexer/internal/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

var testContracts = Contracts{
	CarbonCreditToken: common.HexToAddress("0x1000000000000000000000000000000000000001"),
	GuardianNFT:       common.HexToAddress("0x1000000000000000000000000000000000000002"),
	CarbonOrderBook:   common.HexToAddress("0x1000000000000000000000000000000000000003"),
	KYCServiceManager: common.HexToAddress("0x1000000000000000000000000000000000000004"),
	CarbonPoolFactory: common.HexToAddress("0x1000000000000000000000000000000000000005"),
}

func packData(t *testing.T, contractABI abi.ABI, event string, vals ...interface{}) []byte {
	t.Helper()
	data, err := contractABI.Events[event].Inputs.NonIndexed().Pack(vals...)
	require.NoError(t, err)
	return data
}

func uintTopic(v uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(v))
}

func addrTopic(a common.Address) common.Hash {
	return common.BytesToHash(a.Bytes())
}

func newLog(address common.Address, topics []common.Hash, data []byte) types.Log {
	return types.Log{
		Address:     address,
		Topics:      topics,
		Data:        data,
		BlockNumber: 1200,
		TxIndex:     3,
		TxHash:      common.HexToHash("0xabc123"),
		Index:       7,
	}
}

func TestDecodeCarbonMinted(t *testing.T) {
	d := NewDecoder(testContracts)
	to := common.HexToAddress("0x2000000000000000000000000000000000000001")

	data := packData(t, carbonCreditTokenABI, "CarbonMinted",
		big.NewInt(250_000), big.NewInt(42), uint16(2022), uint8(1))
	lg := newLog(testContracts.CarbonCreditToken,
		[]common.Hash{topicCarbonMinted, uintTopic(5), addrTopic(to)}, data)

	ev, err := d.Decode(lg, 1699999999)
	require.NoError(t, err)
	require.NotNil(t, ev)

	assert.Equal(t, domain.ContractCarbonCreditToken, ev.Contract)
	assert.Equal(t, domain.KindCarbonMinted, ev.Kind)
	assert.Equal(t, uint64(1200), ev.BlockNumber)
	assert.Equal(t, uint(3), ev.TxIndex)
	assert.Equal(t, uint(7), ev.LogIndex)
	assert.Equal(t, uint64(1699999999), ev.Timestamp)

	p, ok := ev.Payload.(*domain.CarbonMinted)
	require.True(t, ok)
	assert.Equal(t, uint64(5), p.TokenID)
	assert.Equal(t, "0x2000000000000000000000000000000000000001", p.To)
	assert.Equal(t, "250000", p.Amount)
	assert.Equal(t, uint64(42), p.ProjectID)
	assert.Equal(t, 2022, p.Vintage)
	assert.Equal(t, 1, p.Category)
}

func TestDecodeProjectRegistered(t *testing.T) {
	d := NewDecoder(testContracts)
	registrant := common.HexToAddress("0x2000000000000000000000000000000000000002")

	data := packData(t, carbonCreditTokenABI, "ProjectRegistered",
		"Mangrove Restoration", uint8(3), uint16(2024))
	lg := newLog(testContracts.CarbonCreditToken,
		[]common.Hash{topicProjectRegistered, uintTopic(42), addrTopic(registrant)}, data)

	ev, err := d.Decode(lg, 1700000000)
	require.NoError(t, err)
	require.NotNil(t, ev)

	p, ok := ev.Payload.(*domain.ProjectRegistered)
	require.True(t, ok)
	assert.Equal(t, uint64(42), p.ProjectID)
	assert.Equal(t, "Mangrove Restoration", p.Name)
	assert.Equal(t, 3, p.Category)
	assert.Equal(t, 2024, p.Vintage)
	assert.Equal(t, "0x2000000000000000000000000000000000000002", p.RegisteredBy)
}

func TestDecodeOrderPlacedZeroFiltersAreNil(t *testing.T) {
	d := NewDecoder(testContracts)
	user := common.HexToAddress("0x2000000000000000000000000000000000000003")

	data := packData(t, carbonOrderBookABI, "OrderPlaced",
		uint8(0), big.NewInt(15), big.NewInt(100),
		uint8(1), uint8(2),
		big.NewInt(0), uint16(0), uint16(0), uint8(0),
		true)
	lg := newLog(testContracts.CarbonOrderBook,
		[]common.Hash{topicOrderPlaced, uintTopic(9), addrTopic(user)}, data)

	ev, err := d.Decode(lg, 1700000000)
	require.NoError(t, err)
	require.NotNil(t, ev)

	p, ok := ev.Payload.(*domain.OrderPlaced)
	require.True(t, ok)
	assert.Equal(t, uint64(9), p.OrderID)
	assert.Equal(t, "15", p.Price)
	assert.Equal(t, "100", p.Quantity)
	assert.Nil(t, p.ProjectID)
	assert.Nil(t, p.MinVintage)
	assert.Nil(t, p.MaxVintage)
	assert.Nil(t, p.MinQualityScore)
	assert.True(t, p.RetireOnFill)
}

func TestDecodeOrderPlacedCarriesFilters(t *testing.T) {
	d := NewDecoder(testContracts)
	user := common.HexToAddress("0x2000000000000000000000000000000000000003")

	data := packData(t, carbonOrderBookABI, "OrderPlaced",
		uint8(1), big.NewInt(20), big.NewInt(50),
		uint8(0), uint8(1),
		big.NewInt(42), uint16(2020), uint16(2024), uint8(70),
		false)
	lg := newLog(testContracts.CarbonOrderBook,
		[]common.Hash{topicOrderPlaced, uintTopic(10), addrTopic(user)}, data)

	ev, err := d.Decode(lg, 1700000000)
	require.NoError(t, err)
	require.NotNil(t, ev)

	p := ev.Payload.(*domain.OrderPlaced)
	require.NotNil(t, p.ProjectID)
	assert.Equal(t, uint64(42), *p.ProjectID)
	require.NotNil(t, p.MinVintage)
	assert.Equal(t, 2020, *p.MinVintage)
	require.NotNil(t, p.MaxVintage)
	assert.Equal(t, 2024, *p.MaxVintage)
	require.NotNil(t, p.MinQualityScore)
	assert.Equal(t, 70, *p.MinQualityScore)
}

func TestDecodeSwapFromAnyPoolAddress(t *testing.T) {
	d := NewDecoder(testContracts)
	pool := common.HexToAddress("0x3000000000000000000000000000000000000099")
	user := common.HexToAddress("0x2000000000000000000000000000000000000004")

	data := packData(t, carbonPoolABI, "SwapExecuted",
		false, big.NewInt(400), big.NewInt(100),
		big.NewInt(2), uint16(40),
		big.NewInt(4), big.NewInt(4))
	lg := newLog(pool, []common.Hash{topicSwapExecuted, addrTopic(user)}, data)

	ev, err := d.Decode(lg, 1700000000)
	require.NoError(t, err)
	require.NotNil(t, ev)

	assert.Equal(t, domain.ContractCarbonPool, ev.Contract)
	p := ev.Payload.(*domain.SwapExecuted)
	assert.Equal(t, "0x3000000000000000000000000000000000000099", p.Pool)
	assert.False(t, p.CarbonToQuote)
	assert.Equal(t, "400", p.AmountIn)
	assert.Equal(t, "100", p.AmountOut)
	assert.Equal(t, 40, p.DiscountBps)
	assert.Equal(t, "4", p.SpotPriceAfter)
}

func TestDecodeGuardianMinted(t *testing.T) {
	d := NewDecoder(testContracts)
	owner := common.HexToAddress("0x2000000000000000000000000000000000000005")

	initial, ok := new(big.Int).SetString("60000000000000000000", 10)
	require.True(t, ok)

	data := packData(t, guardianNFTABI, "GuardianMinted",
		uint8(0), uint8(3), initial)
	lg := newLog(testContracts.GuardianNFT,
		[]common.Hash{topicGuardianMinted, uintTopic(1), addrTopic(owner)}, data)

	ev, err := d.Decode(lg, 1700000000)
	require.NoError(t, err)
	require.NotNil(t, ev)

	p := ev.Payload.(*domain.GuardianMinted)
	assert.Equal(t, uint64(1), p.TokenID)
	assert.Equal(t, 0, p.Tier)
	assert.Equal(t, 3, p.ZoneID)
	assert.Equal(t, "60000000000000000000", p.InitialRetired)
}

func TestDecodeKYCRoundTrip(t *testing.T) {
	d := NewDecoder(testContracts)
	user := common.HexToAddress("0x2000000000000000000000000000000000000006")

	data := packData(t, kycServiceManagerABI, "NewTaskCreated", user, uint8(2))
	lg := newLog(testContracts.KYCServiceManager,
		[]common.Hash{topicNewTaskCreated, uintTopic(17)}, data)

	ev, err := d.Decode(lg, 1700000000)
	require.NoError(t, err)
	require.NotNil(t, ev)

	p := ev.Payload.(*domain.NewTaskCreated)
	assert.Equal(t, uint32(17), p.TaskID)
	assert.Equal(t, "0x2000000000000000000000000000000000000006", p.User)
	assert.Equal(t, 2, p.RequiredLevel)
}

func TestDecodeRejectsWrongEmitter(t *testing.T) {
	d := NewDecoder(testContracts)
	impostor := common.HexToAddress("0x4000000000000000000000000000000000000bad")
	to := common.HexToAddress("0x2000000000000000000000000000000000000001")

	data := packData(t, carbonCreditTokenABI, "CarbonMinted",
		big.NewInt(1), big.NewInt(1), uint16(2020), uint8(0))
	lg := newLog(impostor, []common.Hash{topicCarbonMinted, uintTopic(1), addrTopic(to)}, data)

	ev, err := d.Decode(lg, 1700000000)
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestDecodeSkipsUnknownTopic(t *testing.T) {
	d := NewDecoder(testContracts)
	lg := newLog(testContracts.CarbonCreditToken,
		[]common.Hash{common.HexToHash("0xdeadbeef")}, nil)

	ev, err := d.Decode(lg, 1700000000)
	require.NoError(t, err)
	assert.Nil(t, ev)
}
