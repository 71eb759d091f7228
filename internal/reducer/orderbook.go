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

func (r *Reducer) applyOrderPlaced(ctx context.Context, tx store.Store, ev *domain.Event, p *domain.OrderPlaced) error {
	order := &schema.Order{
		ID:              p.OrderID,
		User:            p.User,
		Side:            schema.OrderSide(p.Side),
		Price:           p.Price,
		Quantity:        p.Quantity,
		Filled:          domain.AmountZero,
		Status:          schema.OrderStatusOpen,
		OrderType:       p.OrderType,
		Category:        p.Category,
		ProjectID:       p.ProjectID,
		MinVintage:      p.MinVintage,
		MaxVintage:      p.MaxVintage,
		MinQualityScore: p.MinQualityScore,
		RetireOnFill:    p.RetireOnFill,
		CreatedAt:       ev.Timestamp,
		UpdatedAt:       ev.Timestamp,
	}
	if err := tx.CreateOrder(ctx, order); err != nil {
		return err
	}

	return r.touchUser(ctx, tx, ev, p.User)
}

func (r *Reducer) applyOrderCancelled(ctx context.Context, tx store.Store, ev *domain.Event, p *domain.OrderCancelled) error {
	order, err := tx.GetOrder(ctx, p.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		logger.WarnCtx(ctx, "cancel for unknown order skipped",
			zap.Uint64("orderID", p.OrderID), zap.String("tx", ev.TxHash))
		return nil
	}

	if order.Status == schema.OrderStatusFilled {
		return fmt.Errorf("%w: cancel of filled order %d", domain.ErrConsistency, p.OrderID)
	}

	order.Status = schema.OrderStatusCancelled
	order.UpdatedAt = ev.Timestamp
	if err := tx.SaveOrder(ctx, order); err != nil {
		return err
	}

	return r.touchUser(ctx, tx, ev, p.User)
}

// fillOrder advances one side of a trade. Orders the feed never announced
// are skipped; overfilling an announced order is a consistency failure.
func (r *Reducer) fillOrder(ctx context.Context, tx store.Store, ev *domain.Event, orderID uint64, quantity string) error {
	order, err := tx.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}

	filled, err := domain.AddAmounts(order.Filled, quantity)
	if err != nil {
		return err
	}
	cmp, err := domain.CmpAmounts(filled, order.Quantity)
	if err != nil {
		return err
	}
	if cmp > 0 {
		return fmt.Errorf("%w: order %d filled %s exceeds quantity %s",
			domain.ErrConsistency, orderID, filled, order.Quantity)
	}

	order.Filled = filled
	if cmp == 0 {
		order.Status = schema.OrderStatusFilled
	}
	order.UpdatedAt = ev.Timestamp
	return tx.SaveOrder(ctx, order)
}

func (r *Reducer) applyTradeExecuted(ctx context.Context, tx store.Store, ev *domain.Event, p *domain.TradeExecuted) error {
	if err := tx.CreateTrade(ctx, &schema.Trade{
		ID:          ev.ID(),
		BuyOrderID:  p.BuyOrderID,
		SellOrderID: p.SellOrderID,
		Buyer:       p.Buyer,
		Seller:      p.Seller,
		TokenID:     p.TokenID,
		Price:       p.Price,
		Quantity:    p.Quantity,
		BuyerFee:    p.BuyerFee,
		SellerFee:   p.SellerFee,
		Timestamp:   ev.Timestamp,
		TxHash:      ev.TxHash,
	}); err != nil {
		return err
	}

	if err := r.fillOrder(ctx, tx, ev, p.BuyOrderID, p.Quantity); err != nil {
		return err
	}
	if err := r.fillOrder(ctx, tx, ev, p.SellOrderID, p.Quantity); err != nil {
		return err
	}

	// Balances stay untouched here: the token contract emits its own
	// transfer effects for the settled credits.
	for _, address := range []string{p.Buyer, p.Seller} {
		user, err := r.userFor(ctx, tx, ev, address)
		if err != nil {
			return err
		}
		traded, err := domain.AddAmounts(user.TotalTraded, p.Quantity)
		if err != nil {
			return err
		}
		user.TotalTraded = traded
		if err := tx.SaveUser(ctx, user); err != nil {
			return err
		}
	}

	if err := r.bumpProtocolStats(ctx, tx, ev, func(s *schema.ProtocolStats) error {
		s.TotalTrades++
		volume, err := domain.AddAmounts(s.TotalVolume, p.Quantity)
		if err != nil {
			return err
		}
		s.TotalVolume = volume
		return nil
	}); err != nil {
		return err
	}

	return r.bumpDaily(ctx, tx, ev, func(d *schema.DailyStats) error {
		d.Trades++
		volume, err := domain.AddAmounts(d.Volume, p.Quantity)
		if err != nil {
			return err
		}
		d.Volume = volume
		return nil
	})
}
