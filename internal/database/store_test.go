package database

import (
	"errors"
	"regexp"
	"testing"
	"time"
)

func newTestService(t *testing.T) *DBService {
	t.Helper()
	svc, err := NewDBService(":memory:")
	if err != nil {
		t.Fatalf("NewDBService failed: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

// TestNewDBService verifies that the database initializes correctly
// with the embedded migrations using an in-memory SQLite instance.
func TestNewDBService(t *testing.T) {
	svc, err := NewDBService(":memory:")
	if err != nil {
		t.Fatalf("NewDBService(:memory:) failed: %v", err)
	}
	defer svc.Close()
}

// TestSeededProfile verifies the first-run seed data.
func TestSeededProfile(t *testing.T) {
	svc := newTestService(t)

	p, err := svc.GetProfile()
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if p.Name != "Walker" {
		t.Errorf("expected name=Walker, got %s", p.Name)
	}
	if p.Points != 1250 {
		t.Errorf("expected 1250 points, got %d", p.Points)
	}
	if p.DailyGoal != 10000 {
		t.Errorf("expected daily goal 10000, got %d", p.DailyGoal)
	}

	days, err := svc.QueryActivities(ActivityFilter{})
	if err != nil {
		t.Fatalf("QueryActivities failed: %v", err)
	}
	if len(days) != 28 {
		t.Errorf("expected 28 seeded days, got %d", len(days))
	}
}

func TestSettings(t *testing.T) {
	svc := newTestService(t)

	if _, ok, err := svc.GetSetting("role"); err != nil || ok {
		t.Fatalf("expected missing setting, got ok=%v err=%v", ok, err)
	}
	if err := svc.SetSetting("role", "user"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if err := svc.SetSetting("role", "business"); err != nil {
		t.Fatalf("SetSetting overwrite failed: %v", err)
	}
	v, ok, err := svc.GetSetting("role")
	if err != nil || !ok {
		t.Fatalf("GetSetting failed: ok=%v err=%v", ok, err)
	}
	if v != "business" {
		t.Errorf("expected role=business, got %s", v)
	}
}

// TestUpsertAndQueryActivities verifies ordering, filters and replacement.
func TestUpsertAndQueryActivities(t *testing.T) {
	svc := newTestService(t)

	batch := []*DailyActivity{
		{Day: "2020-01-03", Steps: 3000, DistanceM: 2280, ActiveMinutes: 27},
		{Day: "2020-01-01", Steps: 1000, DistanceM: 760, ActiveMinutes: 9},
		{Day: "2020-01-02", Steps: 2000, DistanceM: 1520, ActiveMinutes: 18},
	}
	if err := svc.BatchUpsertActivities(batch); err != nil {
		t.Fatalf("BatchUpsertActivities failed: %v", err)
	}
	if err := svc.UpsertActivity(&DailyActivity{Day: "2020-01-02", Steps: 2500}); err != nil {
		t.Fatalf("UpsertActivity failed: %v", err)
	}

	since, until := "2020-01-01", "2020-01-31"
	days, err := svc.QueryActivities(ActivityFilter{Since: &since, Until: &until})
	if err != nil {
		t.Fatalf("QueryActivities failed: %v", err)
	}
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	for i := 1; i < len(days); i++ {
		if days[i].Day < days[i-1].Day {
			t.Errorf("days not ordered: %s before %s", days[i-1].Day, days[i].Day)
		}
	}
	if days[1].Steps != 2500 {
		t.Errorf("expected upsert to replace steps, got %d", days[1].Steps)
	}

	limited, err := svc.QueryActivities(ActivityFilter{Since: &since, Until: &until, Limit: 2})
	if err != nil {
		t.Fatalf("QueryActivities with limit failed: %v", err)
	}
	if len(limited) != 2 || limited[0].Day != "2020-01-02" || limited[1].Day != "2020-01-03" {
		t.Errorf("expected the two most recent days in order, got %+v", limited)
	}
}

func TestGetActivityStats(t *testing.T) {
	svc := newTestService(t)

	before, err := svc.GetActivityStats()
	if err != nil {
		t.Fatalf("GetActivityStats failed: %v", err)
	}

	if err := svc.UpsertActivity(&DailyActivity{Day: "2019-06-01", Steps: 50000, DistanceM: 38000, ActiveMinutes: 400}); err != nil {
		t.Fatalf("UpsertActivity failed: %v", err)
	}

	after, err := svc.GetActivityStats()
	if err != nil {
		t.Fatalf("GetActivityStats failed: %v", err)
	}
	if after.Days != before.Days+1 {
		t.Errorf("expected %d days, got %d", before.Days+1, after.Days)
	}
	if after.TotalSteps != before.TotalSteps+50000 {
		t.Errorf("expected total steps %d, got %d", before.TotalSteps+50000, after.TotalSteps)
	}
	if after.BestDay != "2019-06-01" || after.BestSteps != 50000 {
		t.Errorf("expected best day 2019-06-01/50000, got %s/%d", after.BestDay, after.BestSteps)
	}
}

func TestInsertMilestone(t *testing.T) {
	svc := newTestService(t)

	if err := svc.InsertMilestone(&Milestone{TargetSteps: 0, Points: 10}); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}

	m := &Milestone{TargetSteps: 7500, Points: 40, CreatedAt: time.Now().UnixNano()}
	if err := svc.InsertMilestone(m); err != nil {
		t.Fatalf("InsertMilestone failed: %v", err)
	}
	if m.MilestoneID == "" {
		t.Error("expected generated milestone id")
	}

	all, err := svc.ListMilestones()
	if err != nil {
		t.Fatalf("ListMilestones failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 3 seeded + 1 milestone, got %d", len(all))
	}
	last := all[len(all)-1]
	if last.MilestoneID != m.MilestoneID || last.Status != MilestoneInProgress {
		t.Errorf("expected new milestone last and in progress, got %+v", last)
	}
}

func TestNewMilestonePayout(t *testing.T) {
	for i := 0; i < 500; i++ {
		m := NewMilestone(5000, 1)
		if m.Points < MinMilestonePoints || m.Points > MaxMilestonePoints {
			t.Fatalf("payout %d outside [%d, %d]", m.Points, MinMilestonePoints, MaxMilestonePoints)
		}
		if m.Status != MilestoneInProgress || m.TargetSteps != 5000 || m.CreatedAt != 1 {
			t.Fatalf("unexpected milestone %+v", m)
		}
	}
}

// TestAdvanceMilestones verifies progress, completion and point payout.
func TestAdvanceMilestones(t *testing.T) {
	svc := newTestService(t)
	now := time.Now().UnixNano()

	done, err := svc.AdvanceMilestones(8000, now)
	if err != nil {
		t.Fatalf("AdvanceMilestones(8000) failed: %v", err)
	}
	if len(done) != 0 {
		t.Fatalf("expected no completions, got %d", len(done))
	}

	done, err = svc.AdvanceMilestones(12000, now)
	if err != nil {
		t.Fatalf("AdvanceMilestones(12000) failed: %v", err)
	}
	if len(done) != 1 || done[0].MilestoneID != "seed-ms-2" {
		t.Fatalf("expected seed-ms-2 completed, got %+v", done)
	}
	if done[0].AchievedAt == nil || *done[0].AchievedAt != now {
		t.Errorf("expected achieved_at=%d, got %v", now, done[0].AchievedAt)
	}

	p, err := svc.GetProfile()
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if p.Points != 1300 {
		t.Errorf("expected 1250+50 points, got %d", p.Points)
	}

	all, _ := svc.ListMilestones()
	for _, m := range all {
		if m.MilestoneID == "seed-ms-3" && m.Status != MilestoneLocked {
			t.Errorf("locked milestone must not advance, got %s", m.Status)
		}
	}
}

func TestListRewards(t *testing.T) {
	svc := newTestService(t)

	all, err := svc.ListRewards(RewardFilter{})
	if err != nil {
		t.Fatalf("ListRewards failed: %v", err)
	}
	if len(all) != 9 {
		t.Errorf("expected 9 rewards, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Points < all[i-1].Points {
			t.Errorf("rewards not ordered by cost at %d", i)
		}
	}

	active := true
	onlyActive, err := svc.ListRewards(RewardFilter{Active: &active})
	if err != nil {
		t.Fatalf("ListRewards(active) failed: %v", err)
	}
	if len(onlyActive) != 7 {
		t.Errorf("expected 7 active rewards, got %d", len(onlyActive))
	}

	if err := svc.SetRewardActive("mug", true); err != nil {
		t.Fatalf("SetRewardActive failed: %v", err)
	}
	onlyActive, _ = svc.ListRewards(RewardFilter{Active: &active})
	if len(onlyActive) != 8 {
		t.Errorf("expected 8 active rewards after enabling mug, got %d", len(onlyActive))
	}

	if err := svc.SetRewardActive("nope", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestRedeem verifies the balance debit and redemption record.
func TestRedeem(t *testing.T) {
	svc := newTestService(t)
	now := time.Now().UnixNano()

	red, err := svc.Redeem("coffee", now)
	if err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}
	if ok, _ := regexp.MatchString(`^WALK-COF-\d{4}$`, red.Code); !ok {
		t.Errorf("unexpected code format %q", red.Code)
	}
	if red.Points != 500 {
		t.Errorf("expected 500 points spent, got %d", red.Points)
	}

	p, _ := svc.GetProfile()
	if p.Points != 750 {
		t.Errorf("expected balance 750, got %d", p.Points)
	}

	reds, err := svc.ListRedemptions(1)
	if err != nil {
		t.Fatalf("ListRedemptions failed: %v", err)
	}
	if len(reds) != 1 || reds[0].RedemptionID != red.RedemptionID {
		t.Fatalf("expected newest redemption first, got %+v", reds)
	}
	if reds[0].RewardTitle != "$5 Coffee Voucher" {
		t.Errorf("expected joined title, got %s", reds[0].RewardTitle)
	}

	rewards, _ := svc.ListRewards(RewardFilter{})
	for _, r := range rewards {
		if r.RewardID == "coffee" && r.Redemptions != 46 {
			t.Errorf("expected 46 coffee redemptions, got %d", r.Redemptions)
		}
	}
}

func TestRedeemErrors(t *testing.T) {
	svc := newTestService(t)
	now := time.Now().UnixNano()

	if _, err := svc.Redeem("missing", now); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Redeem("bogo", now); !errors.Is(err, ErrRewardInactive) {
		t.Errorf("expected ErrRewardInactive, got %v", err)
	}

	// 1250 covers one gift card, leaving 250.
	if _, err := svc.Redeem("giftcard", now); err != nil {
		t.Fatalf("first Redeem failed: %v", err)
	}
	_, err := svc.Redeem("giftcard", now)
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}
	if want := "need 750 more points"; !regexp.MustCompile(want).MatchString(err.Error()) {
		t.Errorf("expected %q in %q", want, err.Error())
	}

	p, _ := svc.GetProfile()
	if p.Points != 250 {
		t.Errorf("failed redemption must not debit, balance %d", p.Points)
	}
}

func TestRedemptionCode(t *testing.T) {
	tests := []struct {
		title  string
		prefix string
	}{
		{"$5 Coffee Voucher", "WALK-COF-"},
		{"Free Smoothie", "WALK-FRE-"},
		{"10% Store Discount", "WALK-STO-"},
		{"Go", "WALK-GOX-"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			code := redemptionCode(tt.title, [16]byte{1, 2, 3, 4})
			if len(code) != len(tt.prefix)+4 || code[:len(tt.prefix)] != tt.prefix {
				t.Errorf("redemptionCode(%q) = %q, want prefix %q", tt.title, code, tt.prefix)
			}
		})
	}
}

// BenchmarkBatchUpsert measures batch write throughput.
func BenchmarkBatchUpsert(b *testing.B) {
	svc, err := NewDBService(":memory:")
	if err != nil {
		b.Fatalf("NewDBService failed: %v", err)
	}
	defer svc.Close()

	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		days := make([]*DailyActivity, 100)
		for j := range days {
			days[j] = &DailyActivity{
				Day:   base.AddDate(0, 0, j).Format("2006-01-02"),
				Steps: 1000 + i + j,
			}
		}
		if err := svc.BatchUpsertActivities(days); err != nil {
			b.Fatalf("BatchUpsertActivities failed: %v", err)
		}
	}
}
