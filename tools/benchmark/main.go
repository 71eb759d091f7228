// Command benchmark measures reducer replay throughput against the in-memory
// store. It generates a deterministic synthetic event log and reports how
// fast the reducer can rebuild state from it.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/verdant-protocol/carbon-indexer/internal/domain"
	"github.com/verdant-protocol/carbon-indexer/internal/logger"
	"github.com/verdant-protocol/carbon-indexer/internal/reducer"
	"github.com/verdant-protocol/carbon-indexer/internal/store"
)

var (
	eventCount = flag.Int("events", 100_000, "Number of events to replay")
	seed       = flag.Int64("seed", 42, "RNG seed for the synthetic log")
	users      = flag.Int("users", 500, "Number of distinct users in the log")
)

func main() {
	flag.Parse()

	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	events := generateLog(*seed, *eventCount, *users)

	r := reducer.New(store.NewMemoryStore(), reducer.Config{})

	start := time.Now()
	for _, ev := range events {
		if err := r.Apply(ctx, ev); err != nil {
			fmt.Fprintf(os.Stderr, "apply failed at %s: %v\n", ev.ID(), err)
			os.Exit(1)
		}
	}
	elapsed := time.Since(start)

	fmt.Printf("replayed %d events in %s (%.0f events/s)\n",
		len(events), elapsed.Round(time.Millisecond),
		float64(len(events))/elapsed.Seconds())
}

// generateLog builds a consistent event sequence: every retirement is backed
// by an earlier mint so the reducer never rejects it.
func generateLog(seed int64, n, userCount int) []*domain.Event {
	rng := rand.New(rand.NewSource(seed))
	events := make([]*domain.Event, 0, n)

	userAddr := func(i int) string { return fmt.Sprintf("0x%040x", i+1) }

	ts := uint64(1700000000)
	block := uint64(1000)
	seq := 0

	push := func(contract domain.Contract, payload domain.Payload) {
		events = append(events, &domain.Event{
			Contract:    contract,
			Kind:        payload.EventKind(),
			BlockNumber: block,
			TxIndex:     0,
			LogIndex:    uint(seq % 64), //nolint:gosec
			TxHash:      fmt.Sprintf("0x%064x", seq/64+1),
			Timestamp:   ts,
			Payload:     payload,
		})
		seq++
		if seq%64 == 0 {
			block++
			ts += 2
		}
	}

	// Seed one project and one big mint per user so later retirements
	// always have balance to burn.
	push(domain.ContractCarbonCreditToken, &domain.ProjectRegistered{
		ProjectID: 1, Name: "Synthetic Forest", Category: 1, Vintage: 2023,
		RegisteredBy: userAddr(0),
	})
	for i := 0; i < userCount; i++ {
		push(domain.ContractCarbonCreditToken, &domain.CarbonMinted{
			TokenID: 1, To: userAddr(i), Amount: "1000000000",
			ProjectID: 1, Vintage: 2023, Category: 1,
		})
	}

	for len(events) < n {
		u := userAddr(rng.Intn(userCount))
		switch rng.Intn(3) {
		case 0:
			push(domain.ContractCarbonCreditToken, &domain.CarbonMinted{
				TokenID: 1, To: u, Amount: "1000",
				ProjectID: 1, Vintage: 2023, Category: 1,
			})
		case 1:
			push(domain.ContractCarbonCreditToken, &domain.CarbonRetired{
				TokenID: 1, User: u, Amount: "10",
				ProjectID: 1, Vintage: 2023, Category: 1,
				RetirementNote: "benchmark",
			})
		default:
			push(domain.ContractGuardianNFT, &domain.RetirementRecorded{
				TokenID: 1, Amount: "10", NewTotal: fmt.Sprintf("%d", seq*10),
			})
		}
	}

	return events[:n]
}
