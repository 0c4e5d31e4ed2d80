// Package tier tracks a session's narrative quality tier and the upgrade
// point economy that unlocks the next one.
//
// Tiers only move forward, one rung per redeemed upgrade credit. An award
// that crosses a threshold grants exactly one credit, even when the points
// would cover more than one rung; the excess carries over.
package tier

import (
	"errors"
	"fmt"

	"github.com/tatianab/chaotic-adventures/internal/models"
	"github.com/tatianab/chaotic-adventures/internal/rules"
)

// MaxAward bounds a single award.
const MaxAward = 10

var (
	ErrNoUpgradeCredit = errors.New("no upgrades available")
	ErrMaxTier         = errors.New("already at highest tier")
	ErrInvalidPoints   = errors.New("award out of range")
)

// Controller reads and writes the tier fields of one session.
type Controller struct {
	catalog *rules.Catalog
	session *models.Session
}

func NewController(catalog *rules.Catalog, session *models.Session) *Controller {
	return &Controller{catalog: catalog, session: session}
}

// Award is the outcome of AwardPoints.
type Award struct {
	Points        int    // points awarded
	Total         int    // accumulated points after the award
	Threshold     int    // threshold of the tier at award time, zero at the final tier
	CreditGranted bool
	NextTier      string // tier the credit unlocks
}

// Upgrade is the outcome of Redeem.
type Upgrade struct {
	OldTier string
	NewTier string
	Params  models.GenerationParams
}

// Info describes the current tier state.
type Info struct {
	Tier              string
	Description       string
	Points            int
	UpgradesAvailable int
	Threshold         int
	NextTier          string
	Params            models.GenerationParams
	Tiers             []string
}

// Reset puts the session back on the first tier with no points or credits.
func (c *Controller) Reset() {
	c.session.Tier = c.catalog.FirstTier()
	c.session.UpgradePoints = 0
	c.session.UpgradesAvailable = 0
}

// AwardPoints adds n points. Meeting the current tier's threshold grants one
// upgrade credit, subtracts the threshold and logs an upgrade-available event.
func (c *Controller) AwardPoints(n int) (Award, error) {
	if n < 1 || n > MaxAward {
		return Award{}, fmt.Errorf("%w: %d", ErrInvalidPoints, n)
	}

	s := c.session
	total := s.UpgradePoints + n
	award := Award{Points: n, Total: total, Threshold: c.Threshold()}

	next, hasNext := c.catalog.NextTier(s.Tier)
	if hasNext && award.Threshold > 0 && total >= award.Threshold {
		award.Total = total - award.Threshold
		award.CreditGranted = true
		award.NextTier = next.Name
		s.UpgradesAvailable++
		s.AppendEvent(models.StoryEvent{
			Kind:     models.EventUpgradeAvailable,
			Tier:     s.Tier,
			NextTier: next.Name,
		})
	}
	s.UpgradePoints = award.Total
	return award, nil
}

// Redeem spends one credit to move to the next tier.
func (c *Controller) Redeem() (Upgrade, error) {
	s := c.session
	if s.UpgradesAvailable <= 0 {
		return Upgrade{}, ErrNoUpgradeCredit
	}
	next, ok := c.catalog.NextTier(s.Tier)
	if !ok {
		return Upgrade{}, ErrMaxTier
	}

	old := s.Tier
	s.Tier = next.Name
	s.UpgradesAvailable--
	s.AppendEvent(models.StoryEvent{
		Kind:    models.EventTierUpgraded,
		OldTier: old,
		NewTier: next.Name,
	})
	return Upgrade{OldTier: old, NewTier: next.Name, Params: c.Params()}, nil
}

// Params returns the generation parameters of the current tier.
func (c *Controller) Params() models.GenerationParams {
	return c.catalog.Params(c.session.Tier)
}

// Threshold returns the points needed to leave the current tier, or zero at
// the final tier.
func (c *Controller) Threshold() int {
	if _, ok := c.catalog.NextTier(c.session.Tier); !ok {
		return 0
	}
	t, _ := c.catalog.Tier(c.session.Tier)
	return t.Threshold
}

// NextTier names the tier after the current one, or "".
func (c *Controller) NextTier() string {
	next, _ := c.catalog.NextTier(c.session.Tier)
	return next.Name
}

func (c *Controller) Info() Info {
	t, _ := c.catalog.Tier(c.session.Tier)
	names := make([]string, len(c.catalog.Tiers))
	for i, tt := range c.catalog.Tiers {
		names[i] = tt.Name
	}
	return Info{
		Tier:              c.session.Tier,
		Description:       t.Description,
		Points:            c.session.UpgradePoints,
		UpgradesAvailable: c.session.UpgradesAvailable,
		Threshold:         c.Threshold(),
		NextTier:          c.NextTier(),
		Params:            c.Params(),
		Tiers:             names,
	}
}
