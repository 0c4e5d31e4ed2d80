package tier

import (
	"errors"
	"testing"

	"github.com/tatianab/chaotic-adventures/internal/models"
	"github.com/tatianab/chaotic-adventures/internal/rules"
)

func newController(t *testing.T) (*Controller, *models.Session) {
	t.Helper()
	c, err := rules.Default()
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	s := &models.Session{}
	ctl := NewController(c, s)
	ctl.Reset()
	return ctl, s
}

func TestAwardReachingThresholdGrantsCredit(t *testing.T) {
	ctl, s := newController(t)

	award, err := ctl.AwardPoints(5)
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if !award.CreditGranted || award.NextTier != "enhanced" {
		t.Errorf("expected credit toward enhanced, got %+v", award)
	}
	if s.UpgradePoints != 0 || s.UpgradesAvailable != 1 {
		t.Errorf("expected 0 points and 1 credit, got %d/%d", s.UpgradePoints, s.UpgradesAvailable)
	}
	last := s.StoryEvents[len(s.StoryEvents)-1]
	if last.Kind != models.EventUpgradeAvailable || last.Tier != "basic" || last.NextTier != "enhanced" {
		t.Errorf("unexpected event %+v", last)
	}

	up, err := ctl.Redeem()
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if s.Tier != "enhanced" || up.OldTier != "basic" || up.NewTier != "enhanced" {
		t.Errorf("unexpected upgrade %+v (tier %s)", up, s.Tier)
	}
	if up.Params.MaxTokens != 1000 || ctl.Params().Tier != "enhanced" {
		t.Errorf("expected enhanced params, got %+v", up.Params)
	}
	if s.UpgradesAvailable != 0 {
		t.Errorf("expected credit spent, got %d", s.UpgradesAvailable)
	}
}

func TestAwardBelowThreshold(t *testing.T) {
	ctl, s := newController(t)
	s.UpgradePoints = 2

	award, err := ctl.AwardPoints(2)
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if award.CreditGranted || s.UpgradePoints != 4 || s.UpgradesAvailable != 0 {
		t.Errorf("unexpected award %+v, points %d", award, s.UpgradePoints)
	}
	if len(s.StoryEvents) != 0 {
		t.Errorf("expected no events, got %+v", s.StoryEvents)
	}
}

func TestAwardCarriesExcess(t *testing.T) {
	ctl, s := newController(t)
	s.UpgradePoints = 4

	if _, err := ctl.AwardPoints(2); err != nil {
		t.Fatalf("award: %v", err)
	}
	if s.UpgradePoints != 1 || s.UpgradesAvailable != 1 {
		t.Errorf("expected carry-over of 1 point and 1 credit, got %d/%d", s.UpgradePoints, s.UpgradesAvailable)
	}
}

func TestAwardGrantsSingleCreditPerCall(t *testing.T) {
	ctl, s := newController(t)
	s.UpgradePoints = 4

	// 4 + 10 crosses the basic threshold (5) and would cover more, but only
	// one credit is granted.
	if _, err := ctl.AwardPoints(10); err != nil {
		t.Fatalf("award: %v", err)
	}
	if s.UpgradesAvailable != 1 || s.UpgradePoints != 9 {
		t.Errorf("expected 1 credit and 9 points, got %d/%d", s.UpgradesAvailable, s.UpgradePoints)
	}
}

func TestAwardRejectsOutOfRange(t *testing.T) {
	ctl, s := newController(t)
	for _, n := range []int{0, -1, MaxAward + 1} {
		if _, err := ctl.AwardPoints(n); !errors.Is(err, ErrInvalidPoints) {
			t.Errorf("n=%d: expected ErrInvalidPoints, got %v", n, err)
		}
	}
	if s.UpgradePoints != 0 {
		t.Errorf("expected no points, got %d", s.UpgradePoints)
	}
}

func TestRedeemWithoutCredit(t *testing.T) {
	ctl, s := newController(t)
	if _, err := ctl.Redeem(); !errors.Is(err, ErrNoUpgradeCredit) {
		t.Fatalf("expected ErrNoUpgradeCredit, got %v", err)
	}
	if s.Tier != "basic" {
		t.Errorf("tier changed to %s", s.Tier)
	}
}

func TestRedeemIsSequentialAndStopsAtMaster(t *testing.T) {
	ctl, s := newController(t)
	s.UpgradesAvailable = 5

	want := []string{"enhanced", "advanced", "master"}
	for _, name := range want {
		before := s.Tier
		up, err := ctl.Redeem()
		if err != nil {
			t.Fatalf("redeem to %s: %v", name, err)
		}
		if up.OldTier != before || up.NewTier != name {
			t.Fatalf("expected %s -> %s, got %+v", before, name, up)
		}
	}

	if _, err := ctl.Redeem(); !errors.Is(err, ErrMaxTier) {
		t.Fatalf("expected ErrMaxTier, got %v", err)
	}
	if s.Tier != "master" || s.UpgradesAvailable != 2 {
		t.Errorf("unexpected final state tier=%s credits=%d", s.Tier, s.UpgradesAvailable)
	}
}

func TestFinalTierAccumulatesWithoutCredit(t *testing.T) {
	ctl, s := newController(t)
	s.Tier = "master"

	award, err := ctl.AwardPoints(10)
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if award.CreditGranted || award.Threshold != 0 || s.UpgradePoints != 10 {
		t.Errorf("unexpected award at final tier %+v", award)
	}
}

func TestInfo(t *testing.T) {
	ctl, _ := newController(t)
	info := ctl.Info()
	if info.Tier != "basic" || info.Threshold != 5 || info.NextTier != "enhanced" || len(info.Tiers) != 4 {
		t.Errorf("unexpected info %+v", info)
	}
}
