package ethereum

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Compiled-in event ABIs for the protocol contracts. Only events are listed;
// the indexer never calls contract functions.

const carbonCreditTokenABIJSON = `[
	{"type":"event","name":"ProjectRegistered","inputs":[
		{"name":"projectId","type":"uint256","indexed":true},
		{"name":"name","type":"string","indexed":false},
		{"name":"category","type":"uint8","indexed":false},
		{"name":"vintage","type":"uint16","indexed":false},
		{"name":"registeredBy","type":"address","indexed":true}]},
	{"type":"event","name":"ProjectVerified","inputs":[
		{"name":"projectId","type":"uint256","indexed":true},
		{"name":"qualityScore","type":"uint8","indexed":false}]},
	{"type":"event","name":"CarbonMinted","inputs":[
		{"name":"tokenId","type":"uint256","indexed":true},
		{"name":"to","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"projectId","type":"uint256","indexed":false},
		{"name":"vintage","type":"uint16","indexed":false},
		{"name":"category","type":"uint8","indexed":false}]},
	{"type":"event","name":"CarbonRetired","inputs":[
		{"name":"tokenId","type":"uint256","indexed":true},
		{"name":"user","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"projectId","type":"uint256","indexed":false},
		{"name":"vintage","type":"uint16","indexed":false},
		{"name":"category","type":"uint8","indexed":false},
		{"name":"retirementNote","type":"string","indexed":false}]}
]`

const guardianNFTABIJSON = `[
	{"type":"event","name":"GuardianMinted","inputs":[
		{"name":"tokenId","type":"uint256","indexed":true},
		{"name":"owner","type":"address","indexed":true},
		{"name":"tier","type":"uint8","indexed":false},
		{"name":"zoneId","type":"uint8","indexed":false},
		{"name":"initialRetired","type":"uint256","indexed":false}]},
	{"type":"event","name":"GuardianUpgraded","inputs":[
		{"name":"tokenId","type":"uint256","indexed":true},
		{"name":"oldTier","type":"uint8","indexed":false},
		{"name":"newTier","type":"uint8","indexed":false},
		{"name":"totalRetired","type":"uint256","indexed":false}]},
	{"type":"event","name":"NicknameUpdated","inputs":[
		{"name":"tokenId","type":"uint256","indexed":true},
		{"name":"nickname","type":"string","indexed":false}]},
	{"type":"event","name":"RetirementRecorded","inputs":[
		{"name":"tokenId","type":"uint256","indexed":true},
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"newTotal","type":"uint256","indexed":false}]},
	{"type":"event","name":"TransferUnlocked","inputs":[
		{"name":"tokenId","type":"uint256","indexed":true},
		{"name":"feePaid","type":"uint256","indexed":false}]}
]`

const carbonOrderBookABIJSON = `[
	{"type":"event","name":"OrderPlaced","inputs":[
		{"name":"orderId","type":"uint256","indexed":true},
		{"name":"user","type":"address","indexed":true},
		{"name":"side","type":"uint8","indexed":false},
		{"name":"price","type":"uint256","indexed":false},
		{"name":"quantity","type":"uint256","indexed":false},
		{"name":"orderType","type":"uint8","indexed":false},
		{"name":"category","type":"uint8","indexed":false},
		{"name":"projectId","type":"uint256","indexed":false},
		{"name":"minVintage","type":"uint16","indexed":false},
		{"name":"maxVintage","type":"uint16","indexed":false},
		{"name":"minQualityScore","type":"uint8","indexed":false},
		{"name":"retireOnFill","type":"bool","indexed":false}]},
	{"type":"event","name":"OrderCancelled","inputs":[
		{"name":"orderId","type":"uint256","indexed":true},
		{"name":"user","type":"address","indexed":true}]},
	{"type":"event","name":"TradeExecuted","inputs":[
		{"name":"buyOrderId","type":"uint256","indexed":true},
		{"name":"sellOrderId","type":"uint256","indexed":true},
		{"name":"buyer","type":"address","indexed":false},
		{"name":"seller","type":"address","indexed":false},
		{"name":"tokenId","type":"uint256","indexed":false},
		{"name":"price","type":"uint256","indexed":false},
		{"name":"quantity","type":"uint256","indexed":false},
		{"name":"buyerFee","type":"uint256","indexed":false},
		{"name":"sellerFee","type":"uint256","indexed":false}]}
]`

const kycServiceManagerABIJSON = `[
	{"type":"event","name":"NewTaskCreated","inputs":[
		{"name":"taskIndex","type":"uint32","indexed":true},
		{"name":"user","type":"address","indexed":false},
		{"name":"requiredLevel","type":"uint8","indexed":false}]},
	{"type":"event","name":"TaskResponded","inputs":[
		{"name":"taskIndex","type":"uint32","indexed":true},
		{"name":"operator","type":"address","indexed":false},
		{"name":"achievedLevel","type":"uint8","indexed":false}]},
	{"type":"event","name":"OperatorRegistered","inputs":[
		{"name":"operator","type":"address","indexed":true}]},
	{"type":"event","name":"OperatorDeregistered","inputs":[
		{"name":"operator","type":"address","indexed":true}]}
]`

const carbonPoolFactoryABIJSON = `[
	{"type":"event","name":"PoolCreated","inputs":[
		{"name":"carbonTokenId","type":"uint256","indexed":true},
		{"name":"pool","type":"address","indexed":true},
		{"name":"tier","type":"uint8","indexed":false}]}
]`

const carbonPoolABIJSON = `[
	{"type":"event","name":"LiquidityAdded","inputs":[
		{"name":"provider","type":"address","indexed":true},
		{"name":"carbonAmount","type":"uint256","indexed":false},
		{"name":"quoteAmount","type":"uint256","indexed":false},
		{"name":"lpTokens","type":"uint256","indexed":false}]},
	{"type":"event","name":"LiquidityRemoved","inputs":[
		{"name":"provider","type":"address","indexed":true},
		{"name":"carbonAmount","type":"uint256","indexed":false},
		{"name":"quoteAmount","type":"uint256","indexed":false},
		{"name":"lpTokens","type":"uint256","indexed":false}]},
	{"type":"event","name":"SwapExecuted","inputs":[
		{"name":"user","type":"address","indexed":true},
		{"name":"carbonToQuote","type":"bool","indexed":false},
		{"name":"amountIn","type":"uint256","indexed":false},
		{"name":"amountOut","type":"uint256","indexed":false},
		{"name":"fee","type":"uint256","indexed":false},
		{"name":"discountBps","type":"uint16","indexed":false},
		{"name":"spotPriceBefore","type":"uint256","indexed":false},
		{"name":"spotPriceAfter","type":"uint256","indexed":false}]}
]`

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

var (
	carbonCreditTokenABI = mustABI(carbonCreditTokenABIJSON)
	guardianNFTABI       = mustABI(guardianNFTABIJSON)
	carbonOrderBookABI   = mustABI(carbonOrderBookABIJSON)
	kycServiceManagerABI = mustABI(kycServiceManagerABIJSON)
	carbonPoolFactoryABI = mustABI(carbonPoolFactoryABIJSON)
	carbonPoolABI        = mustABI(carbonPoolABIJSON)
)

// Event signatures (topic0) for the log filter
var (
	topicProjectRegistered    = carbonCreditTokenABI.Events["ProjectRegistered"].ID
	topicProjectVerified      = carbonCreditTokenABI.Events["ProjectVerified"].ID
	topicCarbonMinted         = carbonCreditTokenABI.Events["CarbonMinted"].ID
	topicCarbonRetired        = carbonCreditTokenABI.Events["CarbonRetired"].ID
	topicGuardianMinted       = guardianNFTABI.Events["GuardianMinted"].ID
	topicGuardianUpgraded     = guardianNFTABI.Events["GuardianUpgraded"].ID
	topicNicknameUpdated      = guardianNFTABI.Events["NicknameUpdated"].ID
	topicRetirementRecorded   = guardianNFTABI.Events["RetirementRecorded"].ID
	topicTransferUnlocked     = guardianNFTABI.Events["TransferUnlocked"].ID
	topicOrderPlaced          = carbonOrderBookABI.Events["OrderPlaced"].ID
	topicOrderCancelled       = carbonOrderBookABI.Events["OrderCancelled"].ID
	topicTradeExecuted        = carbonOrderBookABI.Events["TradeExecuted"].ID
	topicNewTaskCreated       = kycServiceManagerABI.Events["NewTaskCreated"].ID
	topicTaskResponded        = kycServiceManagerABI.Events["TaskResponded"].ID
	topicOperatorRegistered   = kycServiceManagerABI.Events["OperatorRegistered"].ID
	topicOperatorDeregistered = kycServiceManagerABI.Events["OperatorDeregistered"].ID
	topicPoolCreated          = carbonPoolFactoryABI.Events["PoolCreated"].ID
	topicLiquidityAdded       = carbonPoolABI.Events["LiquidityAdded"].ID
	topicLiquidityRemoved     = carbonPoolABI.Events["LiquidityRemoved"].ID
	topicSwapExecuted         = carbonPoolABI.Events["SwapExecuted"].ID
)

// allEventTopics lists every topic0 the subscription filters on.
func allEventTopics() []common.Hash {
	return []common.Hash{
		topicProjectRegistered,
		topicProjectVerified,
		topicCarbonMinted,
		topicCarbonRetired,
		topicGuardianMinted,
		topicGuardianUpgraded,
		topicNicknameUpdated,
		topicRetirementRecorded,
		topicTransferUnlocked,
		topicOrderPlaced,
		topicOrderCancelled,
		topicTradeExecuted,
		topicNewTaskCreated,
		topicTaskResponded,
		topicOperatorRegistered,
		topicOperatorDeregistered,
		topicPoolCreated,
		topicLiquidityAdded,
		topicLiquidityRemoved,
		topicSwapExecuted,
	}
}
