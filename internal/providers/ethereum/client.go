package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/verdant-protocol/carbon-indexer/internal/adapter"
	"github.com/verdant-protocol/carbon-indexer/internal/logger"
)

const (
	// defaultFilterStep bounds one eth_getLogs range. The step is halved
	// when a provider rejects the range for returning too many results.
	defaultFilterStep uint64 = 100_000
	minFilterStep     uint64 = 1_000
)

// filterQuery builds the log filter for the protocol contracts over the
// given inclusive block range. A nil range means "live".
func filterQuery(contracts Contracts, from, to *big.Int) goethereum.FilterQuery {
	return goethereum.FilterQuery{
		FromBlock: from,
		ToBlock:   to,
		Addresses: nil, // pool events come from factory-deployed addresses
		Topics:    [][]common.Hash{allEventTopics()},
	}
}

// filterLogsPaginated fetches logs for [fromBlock, toBlock] in bounded steps
// so providers with range limits do not reject the query. Results are
// returned in canonical (block, txIndex, logIndex) order.
func filterLogsPaginated(ctx context.Context, client adapter.EthClient, contracts Contracts, fromBlock, toBlock uint64) ([]types.Log, error) {
	var all []types.Log

	step := defaultFilterStep
	for start := fromBlock; start <= toBlock; {
		end := start + step - 1
		if end > toBlock {
			end = toBlock
		}

		logs, err := client.FilterLogs(ctx, filterQuery(contracts,
			new(big.Int).SetUint64(start), new(big.Int).SetUint64(end)))
		if err != nil {
			if isTooManyResults(err) && step > minFilterStep {
				step /= 2
				if step < minFilterStep {
					step = minFilterStep
				}
				logger.WarnCtx(ctx, "Log range too large, halving step",
					zap.Uint64("from", start),
					zap.Uint64("to", end),
					zap.Uint64("new_step", step))
				continue
			}
			return nil, fmt.Errorf("failed to filter logs [%d, %d]: %w", start, end, err)
		}

		all = append(all, logs...)
		start = end + 1
	}

	sortLogs(all)
	return all, nil
}

// sortLogs orders logs by (block number, tx index, log index).
func sortLogs(logs []types.Log) {
	sort.Slice(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		if logs[i].TxIndex != logs[j].TxIndex {
			return logs[i].TxIndex < logs[j].TxIndex
		}
		return logs[i].Index < logs[j].Index
	})
}

// isTooManyResults recognizes the range-limit errors common RPC providers
// return for oversized eth_getLogs queries.
func isTooManyResults(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "too many results") ||
		strings.Contains(msg, "query returned more than") ||
		strings.Contains(msg, "block range") ||
		strings.Contains(msg, "response size exceeded")
}
