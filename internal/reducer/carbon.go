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

func (r *Reducer) applyProjectRegistered(ctx context.Context, tx store.Store, ev *domain.Event, p *domain.ProjectRegistered) error {
	project := &schema.Project{
		ID:           p.ProjectID,
		Name:         p.Name,
		Category:     p.Category,
		Vintage:      p.Vintage,
		Active:       true,
		TotalMinted:  domain.AmountZero,
		TotalRetired: domain.AmountZero,
		RegisteredBy: p.RegisteredBy,
		RegisteredAt: ev.Timestamp,
	}
	if err := tx.CreateProject(ctx, project); err != nil {
		return err
	}

	if err := r.touchUser(ctx, tx, ev, p.RegisteredBy); err != nil {
		return err
	}

	return r.bumpProtocolStats(ctx, tx, ev, func(s *schema.ProtocolStats) error {
		s.TotalProjects++
		return nil
	})
}

func (r *Reducer) applyProjectVerified(ctx context.Context, tx store.Store, ev *domain.Event, p *domain.ProjectVerified) error {
	project, err := tx.GetProject(ctx, p.ProjectID)
	if err != nil {
		return err
	}
	if project == nil {
		logger.WarnCtx(ctx, "verification for unknown project skipped",
			zap.Uint64("projectID", p.ProjectID), zap.String("tx", ev.TxHash))
		return nil
	}

	project.Verified = true
	project.QualityScore = p.QualityScore
	verifiedAt := ev.Timestamp
	project.VerifiedAt = &verifiedAt
	return tx.SaveProject(ctx, project)
}

func (r *Reducer) applyCarbonMinted(ctx context.Context, tx store.Store, ev *domain.Event, p *domain.CarbonMinted) error {
	token, err := tx.GetCarbonToken(ctx, p.TokenID)
	if err != nil {
		return err
	}
	if token == nil {
		token = &schema.CarbonToken{
			ID:          p.TokenID,
			ProjectID:   p.ProjectID,
			Vintage:     p.Vintage,
			Category:    p.Category,
			TotalSupply: domain.AmountZero,
		}
	}
	supply, err := domain.AddAmounts(token.TotalSupply, p.Amount)
	if err != nil {
		return err
	}
	token.TotalSupply = supply
	if err := tx.SaveCarbonToken(ctx, token); err != nil {
		return err
	}

	balance, err := tx.GetCarbonBalance(ctx, p.To, p.TokenID)
	if err != nil {
		return err
	}
	if balance == nil {
		balance = &schema.CarbonBalance{Owner: p.To, TokenID: p.TokenID, Balance: domain.AmountZero}
	}
	held, err := domain.AddAmounts(balance.Balance, p.Amount)
	if err != nil {
		return err
	}
	balance.Balance = held
	if err := tx.SaveCarbonBalance(ctx, balance); err != nil {
		return err
	}

	project, err := tx.GetProject(ctx, p.ProjectID)
	if err != nil {
		return err
	}
	if project != nil {
		minted, err := domain.AddAmounts(project.TotalMinted, p.Amount)
		if err != nil {
			return err
		}
		project.TotalMinted = minted
		if err := tx.SaveProject(ctx, project); err != nil {
			return err
		}
	}

	if err := r.touchUser(ctx, tx, ev, p.To); err != nil {
		return err
	}

	if err := r.bumpProtocolStats(ctx, tx, ev, func(s *schema.ProtocolStats) error {
		total, err := domain.AddAmounts(s.TotalCarbonMinted, p.Amount)
		if err != nil {
			return err
		}
		s.TotalCarbonMinted = total
		return nil
	}); err != nil {
		return err
	}

	return r.bumpDaily(ctx, tx, ev, func(d *schema.DailyStats) error {
		minted, err := domain.AddAmounts(d.CarbonMinted, p.Amount)
		if err != nil {
			return err
		}
		d.CarbonMinted = minted
		return nil
	})
}

func (r *Reducer) applyCarbonRetired(ctx context.Context, tx store.Store, ev *domain.Event, p *domain.CarbonRetired) error {
	balance, err := tx.GetCarbonBalance(ctx, p.User, p.TokenID)
	if err != nil {
		return err
	}
	if balance == nil {
		balance = &schema.CarbonBalance{Owner: p.User, TokenID: p.TokenID, Balance: domain.AmountZero}
	}
	held, err := domain.SubAmounts(balance.Balance, p.Amount)
	if err != nil {
		return fmt.Errorf("retirement exceeds balance of %s on token %d: %w", p.User, p.TokenID, err)
	}
	balance.Balance = held
	if err := tx.SaveCarbonBalance(ctx, balance); err != nil {
		return err
	}

	project, err := tx.GetProject(ctx, p.ProjectID)
	if err != nil {
		return err
	}
	if project != nil {
		retired, err := domain.AddAmounts(project.TotalRetired, p.Amount)
		if err != nil {
			return err
		}
		if cmp, err := domain.CmpAmounts(retired, project.TotalMinted); err != nil {
			return err
		} else if cmp > 0 {
			return fmt.Errorf("%w: project %d retired %s exceeds minted %s",
				domain.ErrConsistency, p.ProjectID, retired, project.TotalMinted)
		}
		project.TotalRetired = retired
		if err := tx.SaveProject(ctx, project); err != nil {
			return err
		}
	}

	if err := tx.CreateRetirement(ctx, &schema.Retirement{
		ID:        ev.ID(),
		User:      p.User,
		TokenID:   p.TokenID,
		Amount:    p.Amount,
		Reason:    p.RetirementNote,
		Timestamp: ev.Timestamp,
		TxHash:    ev.TxHash,
	}); err != nil {
		return err
	}

	user, err := r.userFor(ctx, tx, ev, p.User)
	if err != nil {
		return err
	}
	retired, err := domain.AddAmounts(user.TotalRetired, p.Amount)
	if err != nil {
		return err
	}
	user.TotalRetired = retired
	if err := tx.SaveUser(ctx, user); err != nil {
		return err
	}

	zone, ok, err := r.resolveZone(ctx, tx, p.User, p.Category)
	if err != nil {
		return err
	}
	if ok {
		if err := r.rollupZoneRetirement(ctx, tx, ev, zone, p.User, p.Amount); err != nil {
			return err
		}
	}

	if err := r.bumpProtocolStats(ctx, tx, ev, func(s *schema.ProtocolStats) error {
		total, err := domain.AddAmounts(s.TotalCarbonRetired, p.Amount)
		if err != nil {
			return err
		}
		s.TotalCarbonRetired = total
		return nil
	}); err != nil {
		return err
	}

	return r.bumpDaily(ctx, tx, ev, func(d *schema.DailyStats) error {
		retired, err := domain.AddAmounts(d.CarbonRetired, p.Amount)
		if err != nil {
			return err
		}
		d.CarbonRetired = retired
		return nil
	})
}
