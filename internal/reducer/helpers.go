package reducer

import (
	"context"
	"time"

	"github.com/verdant-protocol/carbon-indexer/internal/domain"
	"github.com/verdant-protocol/carbon-indexer/internal/store"
	"github.com/verdant-protocol/carbon-indexer/internal/store/schema"
)

// userFor returns the user row for address, creating it on first touch (which
// also counts toward the day's newUsers bucket) and advancing lastActiveAt.
// Callers mutate the returned row as needed and must SaveUser it themselves.
func (r *Reducer) userFor(ctx context.Context, tx store.Store, ev *domain.Event, address string) (*schema.User, error) {
	user, err := tx.GetUser(ctx, address)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &schema.User{
			Address:                address,
			TotalRetired:           domain.AmountZero,
			TotalTraded:            domain.AmountZero,
			TotalLiquidityProvided: domain.AmountZero,
			FirstSeenAt:            ev.Timestamp,
			LastActiveAt:           ev.Timestamp,
		}
		if err := r.bumpDaily(ctx, tx, ev, func(d *schema.DailyStats) error {
			d.NewUsers++
			return nil
		}); err != nil {
			return nil, err
		}
		return user, nil
	}
	if ev.Timestamp > user.LastActiveAt {
		user.LastActiveAt = ev.Timestamp
	}
	return user, nil
}

// touchUser is userFor for handlers that need no further user mutation.
func (r *Reducer) touchUser(ctx context.Context, tx store.Store, ev *domain.Event, address string) error {
	user, err := r.userFor(ctx, tx, ev, address)
	if err != nil {
		return err
	}
	return tx.SaveUser(ctx, user)
}

// bumpProtocolStats applies mutate to the singleton stats row, creating it on
// first use, and stamps lastUpdated with the event timestamp.
func (r *Reducer) bumpProtocolStats(ctx context.Context, tx store.Store, ev *domain.Event, mutate func(*schema.ProtocolStats) error) error {
	stats, err := tx.GetProtocolStats(ctx)
	if err != nil {
		return err
	}
	if stats == nil {
		stats = &schema.ProtocolStats{
			ID:                 schema.ProtocolStatsID,
			TotalCarbonMinted:  domain.AmountZero,
			TotalCarbonRetired: domain.AmountZero,
			TotalVolume:        domain.AmountZero,
		}
	}
	if err := mutate(stats); err != nil {
		return err
	}
	stats.LastUpdated = ev.Timestamp
	return tx.SaveProtocolStats(ctx, stats)
}

// bumpDaily applies mutate to the event's UTC day bucket, creating the bucket
// lazily on the first event of that day.
func (r *Reducer) bumpDaily(ctx context.Context, tx store.Store, ev *domain.Event, mutate func(*schema.DailyStats) error) error {
	day := ev.Day()
	stats, err := tx.GetDailyStats(ctx, day)
	if err != nil {
		return err
	}
	if stats == nil {
		t := time.Unix(int64(ev.Timestamp), 0).UTC() //nolint:gosec
		midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		stats = &schema.DailyStats{
			ID:            day,
			Date:          uint64(midnight.Unix()), //nolint:gosec
			CarbonMinted:  domain.AmountZero,
			CarbonRetired: domain.AmountZero,
			Volume:        domain.AmountZero,
		}
	}
	if err := mutate(stats); err != nil {
		return err
	}
	return tx.SaveDailyStats(ctx, stats)
}

// resolveZone picks the retirement's zone per the configured source. The
// second return is false when no zone applies (out-of-range category, or the
// user has no guardian under ZoneFromGuardian); that is not an error.
func (r *Reducer) resolveZone(ctx context.Context, tx store.Store, user string, category int) (domain.ZoneID, bool, error) {
	switch r.cfg.ZoneSource {
	case ZoneFromGuardian:
		u, err := tx.GetUser(ctx, user)
		if err != nil {
			return 0, false, err
		}
		if u == nil || u.GuardianID == nil {
			return 0, false, nil
		}
		g, err := tx.GetGuardian(ctx, *u.GuardianID)
		if err != nil {
			return 0, false, err
		}
		if g == nil {
			return 0, false, nil
		}
		zone := domain.ZoneID(g.ZoneID)
		return zone, zone.Valid(), nil
	default:
		zone := domain.ZoneID(category)
		return zone, zone.Valid(), nil
	}
}

// rollupZoneRetirement updates the per-zone totals and the (zone, user)
// contributor row for one retirement. The contributor count only moves when
// the pair is seen for the first time.
func (r *Reducer) rollupZoneRetirement(ctx context.Context, tx store.Store, ev *domain.Event, zone domain.ZoneID, user, amount string) error {
	stats, err := tx.GetZoneStats(ctx, int(zone))
	if err != nil {
		return err
	}
	if stats == nil {
		stats = &schema.ZoneStats{
			ID:           int(zone),
			Name:         zone.Name(),
			TotalRetired: domain.AmountZero,
		}
	}

	total, err := domain.AddAmounts(stats.TotalRetired, amount)
	if err != nil {
		return err
	}
	stats.TotalRetired = total
	stats.LastRetirementAt = ev.Timestamp

	contributor, err := tx.GetZoneContributor(ctx, int(zone), user)
	if err != nil {
		return err
	}
	if contributor == nil {
		contributor = &schema.ZoneContributor{
			ZoneID:       int(zone),
			User:         user,
			TotalRetired: domain.AmountZero,
		}
		stats.ContributorCount++
	}

	contributed, err := domain.AddAmounts(contributor.TotalRetired, amount)
	if err != nil {
		return err
	}
	contributor.TotalRetired = contributed
	contributor.RetirementCount++
	contributor.LastRetirementAt = ev.Timestamp

	if err := tx.SaveZoneContributor(ctx, contributor); err != nil {
		return err
	}
	return tx.SaveZoneStats(ctx, stats)
}
