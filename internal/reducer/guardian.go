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

func (r *Reducer) applyGuardianMinted(ctx context.Context, tx store.Store, ev *domain.Event, p *domain.GuardianMinted) error {
	tier := p.Tier
	if r.cfg.TierSource == TierDerived {
		tier = domain.DeriveTier(p.InitialRetired)
	}

	guardian := &schema.Guardian{
		ID:           p.TokenID,
		Owner:        p.Owner,
		Tier:         tier,
		ZoneID:       p.ZoneID,
		TotalRetired: p.InitialRetired,
		MintedAt:     ev.Timestamp,
		LastUpdated:  ev.Timestamp,
	}
	if err := tx.CreateGuardian(ctx, guardian); err != nil {
		return err
	}

	user, err := r.userFor(ctx, tx, ev, p.Owner)
	if err != nil {
		return err
	}
	guardianID := p.TokenID
	user.GuardianID = &guardianID
	if err := tx.SaveUser(ctx, user); err != nil {
		return err
	}

	if err := r.bumpProtocolStats(ctx, tx, ev, func(s *schema.ProtocolStats) error {
		s.TotalGuardians++
		return nil
	}); err != nil {
		return err
	}

	return r.bumpDaily(ctx, tx, ev, func(d *schema.DailyStats) error {
		d.NewGuardians++
		return nil
	})
}

func (r *Reducer) applyGuardianUpgraded(ctx context.Context, tx store.Store, ev *domain.Event, p *domain.GuardianUpgraded) error {
	guardian, err := tx.GetGuardian(ctx, p.TokenID)
	if err != nil {
		return err
	}
	if guardian == nil {
		logger.WarnCtx(ctx, "upgrade for unknown guardian skipped",
			zap.Uint64("tokenID", p.TokenID), zap.String("tx", ev.TxHash))
		return nil
	}

	if p.NewTier < guardian.Tier {
		return fmt.Errorf("%w: guardian %d tier would regress from %d to %d",
			domain.ErrConsistency, p.TokenID, guardian.Tier, p.NewTier)
	}

	guardian.Tier = p.NewTier
	guardian.TotalRetired = p.TotalRetired
	guardian.LastUpdated = ev.Timestamp
	if err := tx.SaveGuardian(ctx, guardian); err != nil {
		return err
	}

	if err := tx.CreateTierUpgrade(ctx, &schema.TierUpgrade{
		ID:           ev.ID(),
		GuardianID:   p.TokenID,
		PreviousTier: p.OldTier,
		NewTier:      p.NewTier,
		TotalRetired: p.TotalRetired,
		Timestamp:    ev.Timestamp,
	}); err != nil {
		return err
	}

	return r.touchUser(ctx, tx, ev, guardian.Owner)
}

func (r *Reducer) applyNicknameUpdated(ctx context.Context, tx store.Store, ev *domain.Event, p *domain.NicknameUpdated) error {
	guardian, err := tx.GetGuardian(ctx, p.TokenID)
	if err != nil {
		return err
	}
	if guardian == nil {
		return nil
	}

	nickname := p.Nickname
	guardian.Nickname = &nickname
	guardian.LastUpdated = ev.Timestamp
	return tx.SaveGuardian(ctx, guardian)
}

func (r *Reducer) applyRetirementRecorded(ctx context.Context, tx store.Store, ev *domain.Event, p *domain.RetirementRecorded) error {
	guardian, err := tx.GetGuardian(ctx, p.TokenID)
	if err != nil {
		return err
	}
	if guardian == nil {
		return nil
	}

	// The contract emits the new cumulative total; it may only move forward.
	if cmp, err := domain.CmpAmounts(p.NewTotal, guardian.TotalRetired); err != nil {
		return err
	} else if cmp < 0 {
		return fmt.Errorf("%w: guardian %d retired total would shrink from %s to %s",
			domain.ErrConsistency, p.TokenID, guardian.TotalRetired, p.NewTotal)
	}

	guardian.TotalRetired = p.NewTotal
	guardian.LastUpdated = ev.Timestamp
	if err := tx.SaveGuardian(ctx, guardian); err != nil {
		return err
	}

	return r.touchUser(ctx, tx, ev, guardian.Owner)
}

func (r *Reducer) applyTransferUnlocked(ctx context.Context, tx store.Store, ev *domain.Event, p *domain.TransferUnlocked) error {
	guardian, err := tx.GetGuardian(ctx, p.TokenID)
	if err != nil {
		return err
	}
	if guardian == nil {
		return nil
	}

	guardian.Transferable = true
	guardian.LastUpdated = ev.Timestamp
	if err := tx.SaveGuardian(ctx, guardian); err != nil {
		return err
	}

	return r.touchUser(ctx, tx, ev, guardian.Owner)
}
