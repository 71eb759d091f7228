package reducer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/verdant-protocol/carbon-indexer/internal/domain"
	"github.com/verdant-protocol/carbon-indexer/internal/logger"
	"github.com/verdant-protocol/carbon-indexer/internal/store"
	"github.com/verdant-protocol/carbon-indexer/internal/store/schema"
)

// swapFeeBpsForTier maps a pool tier onto its swap fee in basis points.
func swapFeeBpsForTier(tier int) int {
	switch tier {
	case 2:
		return 50
	case 1:
		return 30
	default:
		return 20
	}
}

func (r *Reducer) applyPoolCreated(ctx context.Context, tx store.Store, ev *domain.Event, p *domain.PoolCreated) error {
	pool := &schema.Pool{
		Address:       p.Pool,
		CarbonTokenID: p.CarbonTokenID,
		Tier:          p.Tier,
		ReserveCarbon: domain.AmountZero,
		ReserveQuote:  domain.AmountZero,
		TotalSupply:   domain.AmountZero,
		SwapFeeBps:    swapFeeBpsForTier(p.Tier),
		SpotPrice:     domain.AmountZero,
		TotalVolume:   domain.AmountZero,
		CreatedAt:     ev.Timestamp,
		LastUpdated:   ev.Timestamp,
	}
	if err := tx.CreatePool(ctx, pool); err != nil {
		return err
	}

	return r.bumpProtocolStats(ctx, tx, ev, func(s *schema.ProtocolStats) error {
		s.TotalPools++
		return nil
	})
}

func (r *Reducer) applyLiquidityAdded(ctx context.Context, tx store.Store, ev *domain.Event, p *domain.LiquidityAdded) error {
	// Pool events arrive from arbitrary addresses; only pools the factory
	// announced are trusted. Anything else is a foreign contract reusing
	// the event signature.
	pool, err := tx.GetPool(ctx, p.Pool)
	if err != nil {
		return err
	}
	if pool == nil {
		logger.WarnCtx(ctx, "liquidity add from unregistered pool, skipping",
			zap.String("pool", p.Pool), zap.String("tx", ev.TxHash))
		return nil
	}

	if err := tx.CreateLiquidityEvent(ctx, &schema.LiquidityEvent{
		ID:           ev.ID(),
		Pool:         p.Pool,
		Provider:     p.Provider,
		EventType:    schema.LiquidityEventAdd,
		CarbonAmount: p.CarbonAmount,
		QuoteAmount:  p.QuoteAmount,
		LPTokens:     p.LPTokens,
		Timestamp:    ev.Timestamp,
		TxHash:       ev.TxHash,
	}); err != nil {
		return err
	}

	if pool.ReserveCarbon, err = domain.AddAmounts(pool.ReserveCarbon, p.CarbonAmount); err != nil {
		return err
	}
	if pool.ReserveQuote, err = domain.AddAmounts(pool.ReserveQuote, p.QuoteAmount); err != nil {
		return err
	}
	if pool.TotalSupply, err = domain.AddAmounts(pool.TotalSupply, p.LPTokens); err != nil {
		return err
	}
	pool.LastUpdated = ev.Timestamp
	if err := tx.SavePool(ctx, pool); err != nil {
		return err
	}

	position, err := tx.GetLiquidityPosition(ctx, p.Pool, p.Provider)
	if err != nil {
		return err
	}
	if position == nil {
		position = &schema.LiquidityPosition{
			Pool:            p.Pool,
			Provider:        p.Provider,
			LPTokens:        domain.AmountZero,
			CarbonDeposited: domain.AmountZero,
			QuoteDeposited:  domain.AmountZero,
			CarbonWithdrawn: domain.AmountZero,
			QuoteWithdrawn:  domain.AmountZero,
		}
	}
	if position.LPTokens, err = domain.AddAmounts(position.LPTokens, p.LPTokens); err != nil {
		return err
	}
	if position.CarbonDeposited, err = domain.AddAmounts(position.CarbonDeposited, p.CarbonAmount); err != nil {
		return err
	}
	if position.QuoteDeposited, err = domain.AddAmounts(position.QuoteDeposited, p.QuoteAmount); err != nil {
		return err
	}
	if err := tx.SaveLiquidityPosition(ctx, position); err != nil {
		return err
	}

	user, err := r.userFor(ctx, tx, ev, p.Provider)
	if err != nil {
		return err
	}
	provided, err := domain.AddAmounts(user.TotalLiquidityProvided, p.QuoteAmount)
	if err != nil {
		return err
	}
	user.TotalLiquidityProvided = provided
	return tx.SaveUser(ctx, user)
}

func (r *Reducer) applyLiquidityRemoved(ctx context.Context, tx store.Store, ev *domain.Event, p *domain.LiquidityRemoved) error {
	pool, err := tx.GetPool(ctx, p.Pool)
	if err != nil {
		return err
	}
	if pool == nil {
		logger.WarnCtx(ctx, "liquidity removal from unregistered pool, skipping",
			zap.String("pool", p.Pool), zap.String("tx", ev.TxHash))
		return nil
	}

	if err := tx.CreateLiquidityEvent(ctx, &schema.LiquidityEvent{
		ID:           ev.ID(),
		Pool:         p.Pool,
		Provider:     p.Provider,
		EventType:    schema.LiquidityEventRemove,
		CarbonAmount: p.CarbonAmount,
		QuoteAmount:  p.QuoteAmount,
		LPTokens:     p.LPTokens,
		Timestamp:    ev.Timestamp,
		TxHash:       ev.TxHash,
	}); err != nil {
		return err
	}

	if pool.ReserveCarbon, err = domain.SubAmounts(pool.ReserveCarbon, p.CarbonAmount); err != nil {
		return fmt.Errorf("pool %s carbon reserve: %w", p.Pool, err)
	}
	if pool.ReserveQuote, err = domain.SubAmounts(pool.ReserveQuote, p.QuoteAmount); err != nil {
		return fmt.Errorf("pool %s quote reserve: %w", p.Pool, err)
	}
	if pool.TotalSupply, err = domain.SubAmounts(pool.TotalSupply, p.LPTokens); err != nil {
		return fmt.Errorf("pool %s lp supply: %w", p.Pool, err)
	}
	pool.LastUpdated = ev.Timestamp
	if err := tx.SavePool(ctx, pool); err != nil {
		return err
	}

	position, err := tx.GetLiquidityPosition(ctx, p.Pool, p.Provider)
	if err != nil {
		return err
	}
	if position == nil {
		position = &schema.LiquidityPosition{
			Pool:            p.Pool,
			Provider:        p.Provider,
			LPTokens:        domain.AmountZero,
			CarbonDeposited: domain.AmountZero,
			QuoteDeposited:  domain.AmountZero,
			CarbonWithdrawn: domain.AmountZero,
			QuoteWithdrawn:  domain.AmountZero,
		}
	}
	if position.LPTokens, err = domain.SubAmounts(position.LPTokens, p.LPTokens); err != nil {
		return fmt.Errorf("position %s/%s lp tokens: %w", p.Pool, p.Provider, err)
	}
	if position.CarbonWithdrawn, err = domain.AddAmounts(position.CarbonWithdrawn, p.CarbonAmount); err != nil {
		return err
	}
	if position.QuoteWithdrawn, err = domain.AddAmounts(position.QuoteWithdrawn, p.QuoteAmount); err != nil {
		return err
	}
	if err := tx.SaveLiquidityPosition(ctx, position); err != nil {
		return err
	}

	return r.touchUser(ctx, tx, ev, p.Provider)
}

func (r *Reducer) applySwapExecuted(ctx context.Context, tx store.Store, ev *domain.Event, p *domain.SwapExecuted) error {
	pool, err := tx.GetPool(ctx, p.Pool)
	if err != nil {
		return err
	}
	if pool == nil {
		logger.WarnCtx(ctx, "swap from unregistered pool, skipping",
			zap.String("pool", p.Pool), zap.String("tx", ev.TxHash))
		return nil
	}

	if err := tx.CreateSwap(ctx, &schema.Swap{
		ID:              ev.ID(),
		Pool:            p.Pool,
		User:            p.User,
		CarbonToQuote:   p.CarbonToQuote,
		AmountIn:        p.AmountIn,
		AmountOut:       p.AmountOut,
		Fee:             p.Fee,
		DiscountBps:     p.DiscountBps,
		SpotPriceBefore: p.SpotPriceBefore,
		SpotPriceAfter:  p.SpotPriceAfter,
		Timestamp:       ev.Timestamp,
		TxHash:          ev.TxHash,
	}); err != nil {
		return err
	}

	// Volume is counted on the carbon side of the swap.
	carbonSide := p.AmountOut
	if p.CarbonToQuote {
		carbonSide = p.AmountIn
	}

	if p.CarbonToQuote {
		if pool.ReserveCarbon, err = domain.AddAmounts(pool.ReserveCarbon, p.AmountIn); err != nil {
			return err
		}
		if pool.ReserveQuote, err = domain.SubAmounts(pool.ReserveQuote, p.AmountOut); err != nil {
			return fmt.Errorf("pool %s quote reserve: %w", p.Pool, err)
		}
	} else {
		if pool.ReserveQuote, err = domain.AddAmounts(pool.ReserveQuote, p.AmountIn); err != nil {
			return err
		}
		if pool.ReserveCarbon, err = domain.SubAmounts(pool.ReserveCarbon, p.AmountOut); err != nil {
			return fmt.Errorf("pool %s carbon reserve: %w", p.Pool, err)
		}
	}
	if pool.TotalVolume, err = domain.AddAmounts(pool.TotalVolume, carbonSide); err != nil {
		return err
	}
	pool.SpotPrice = p.SpotPriceAfter
	pool.LastUpdated = ev.Timestamp
	if err := tx.SavePool(ctx, pool); err != nil {
		return err
	}

	if err := r.touchUser(ctx, tx, ev, p.User); err != nil {
		return err
	}

	if err := r.bumpProtocolStats(ctx, tx, ev, func(s *schema.ProtocolStats) error {
		s.TotalSwaps++
		volume, err := domain.AddAmounts(s.TotalVolume, carbonSide)
		if err != nil {
			return err
		}
		s.TotalVolume = volume
		return nil
	}); err != nil {
		return err
	}

	return r.bumpDaily(ctx, tx, ev, func(d *schema.DailyStats) error {
		d.Swaps++
		volume, err := domain.AddAmounts(d.Volume, carbonSide)
		if err != nil {
			return err
		}
		d.Volume = volume
		return nil
	})
}
