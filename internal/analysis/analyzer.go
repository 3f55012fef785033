// Package analysis provides deterministic step analytics for WalkPoints.
// Everything is computed with plain arithmetic and statistics over the
// stored daily totals.
//
// Key capabilities:
//   - Period summaries with goal tracking
//   - Weekday activity pattern normalized to the busiest weekday
//   - Week-over-week change and trend via linear regression
//   - Standout day detection via Z-score analysis
//   - Reward performance for the business view
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/walkpoints/walkpoints/internal/database"
	"github.com/walkpoints/walkpoints/pkg/timeutil"
)

// Period selects the window an analysis covers.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// Periods lists the selectable periods in display order.
var Periods = []Period{PeriodWeek, PeriodMonth, PeriodAll}

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodWeek, PeriodMonth, PeriodAll:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q (want week, month or all)", s)
}

// Days returns the window length in days, or 0 for all time.
func (p Period) Days() int {
	switch p {
	case PeriodWeek:
		return 7
	case PeriodMonth:
		return 30
	}
	return 0
}

// Since returns the first calendar day inside the window ending on today,
// or nil when the period is unbounded.
func (p Period) Since(today time.Time) *string {
	n := p.Days()
	if n == 0 {
		return nil
	}
	day := timeutil.DaysAgo(today, n-1)
	return &day
}

// Label is the human-readable period name.
func (p Period) Label() string {
	switch p {
	case PeriodWeek:
		return "This Week"
	case PeriodMonth:
		return "This Month"
	}
	return "All Time"
}

// Analyzer computes analytics backed by the given store.
type Analyzer struct {
	store database.Store
}

// NewAnalyzer creates a new analysis engine backed by the given store.
func NewAnalyzer(store database.Store) *Analyzer {
	return &Analyzer{store: store}
}

// ============================================================
// Summaries
// ============================================================

// Summary aggregates a run of days.
type Summary struct {
	Days               int     `json:"days"`
	TotalSteps         int     `json:"total_steps"`
	TotalDistanceM     float64 `json:"total_distance_m"`
	TotalActiveMinutes int     `json:"total_active_minutes"`
	AverageSteps       float64 `json:"average_steps"`
	GoalDays           int     `json:"goal_days"`     // Days at or above the goal
	GoalHitRate        float64 `json:"goal_hit_rate"` // Percent of days at or above the goal
	BestDay            string  `json:"best_day"`
	BestSteps          int     `json:"best_steps"`
}

// Summarize totals the given days against a daily goal.
func Summarize(days []*database.DailyActivity, goal int) Summary {
	var s Summary
	for _, d := range days {
		s.Days++
		s.TotalSteps += d.Steps
		s.TotalDistanceM += d.DistanceM
		s.TotalActiveMinutes += d.ActiveMinutes
		if goal > 0 && d.Steps >= goal {
			s.GoalDays++
		}
		if d.Steps > s.BestSteps || (d.Steps == s.BestSteps && d.Day > s.BestDay) {
			s.BestDay = d.Day
			s.BestSteps = d.Steps
		}
	}
	if s.Days > 0 {
		s.AverageSteps = math.Round(float64(s.TotalSteps)/float64(s.Days)*10) / 10
		s.GoalHitRate = math.Round(float64(s.GoalDays)/float64(s.Days)*1000) / 10
	}
	return s
}

// GoalProgress returns steps as a fraction of goal, clamped to [0, 1].
func GoalProgress(steps, goal int) float64 {
	if goal <= 0 || steps <= 0 {
		return 0
	}
	return math.Min(1, float64(steps)/float64(goal))
}

// PercentChange returns the change from prev to cur in percent. It reports
// false when prev is zero and no percentage exists.
func PercentChange(prev, cur float64) (float64, bool) {
	if prev == 0 {
		return 0, false
	}
	return math.Round((cur-prev)/prev*1000) / 10, true
}

// ============================================================
// Weekday Pattern
// ============================================================

// WeekdayBar is one bar of the weekly pattern chart.
type WeekdayBar struct {
	Weekday      time.Weekday `json:"weekday"`
	Label        string       `json:"label"`
	AverageSteps float64      `json:"average_steps"`
	Normalized   float64      `json:"normalized"` // AverageSteps / max over the week
}

var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// WeekdayPattern averages steps per weekday, Monday first. Normalized is
// 1 for the busiest weekday and 0 for weekdays without data.
func WeekdayPattern(days []*database.DailyActivity) []WeekdayBar {
	var sums, counts [7]float64
	for _, d := range days {
		t, err := timeutil.ParseDay(d.Day)
		if err != nil {
			continue
		}
		sums[t.Weekday()] += float64(d.Steps)
		counts[t.Weekday()]++
	}

	bars := make([]WeekdayBar, 0, 7)
	var max float64
	for _, wd := range weekOrder {
		var avg float64
		if counts[wd] > 0 {
			avg = math.Round(sums[wd] / counts[wd])
		}
		max = math.Max(max, avg)
		bars = append(bars, WeekdayBar{
			Weekday:      wd,
			Label:        wd.String()[:3],
			AverageSteps: avg,
		})
	}
	if max > 0 {
		for i := range bars {
			bars[i].Normalized = bars[i].AverageSteps / max
		}
	}
	return bars
}

// ============================================================
// Trend Analysis
// ============================================================

// dataPoint represents a single observation for regression analysis.
type dataPoint struct {
	x float64 // Days since the first day
	y float64 // Steps
}

// Trend describes the direction of daily steps over a window.
type Trend struct {
	Slope     float64 `json:"slope"` // Steps per day
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
	Direction string  `json:"direction"` // "up", "down", "flat"
}

// flatSlope is the steps-per-day change below which a trend counts as flat.
const flatSlope = 50.0

// StepTrend fits a line through daily steps, with x measured in calendar
// days so gaps are respected.
func StepTrend(days []*database.DailyActivity) Trend {
	if len(days) < 2 {
		return Trend{Direction: "flat"}
	}

	first, err := timeutil.ParseDay(days[0].Day)
	if err != nil {
		return Trend{Direction: "flat"}
	}

	points := make([]dataPoint, 0, len(days))
	for _, d := range days {
		t, err := timeutil.ParseDay(d.Day)
		if err != nil {
			continue
		}
		points = append(points, dataPoint{
			x: math.Round(t.Sub(first).Hours() / 24),
			y: float64(d.Steps),
		})
	}

	slope, intercept, rSquared := linearRegression(points)
	dir := "flat"
	switch {
	case slope > flatSlope:
		dir = "up"
	case slope < -flatSlope:
		dir = "down"
	}

	return Trend{
		Slope:     math.Round(slope*10) / 10,
		Intercept: math.Round(intercept),
		RSquared:  math.Round(rSquared*1000) / 1000,
		Direction: dir,
	}
}

// linearRegression computes ordinary least squares regression.
// Returns slope (m), intercept (b), and R-squared goodness of fit.
func linearRegression(points []dataPoint) (slope, intercept, rSquared float64) {
	n := float64(len(points))
	if n < 2 {
		return 0, 0, 0
	}

	var sumX, sumY, sumXY, sumX2 float64
	for _, p := range points {
		sumX += p.x
		sumY += p.y
		sumXY += p.x * p.y
		sumX2 += p.x * p.x
	}

	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return 0, sumY / n, 0
	}

	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssRes, ssTot float64
	for _, p := range points {
		predicted := slope*p.x + intercept
		ssRes += (p.y - predicted) * (p.y - predicted)
		ssTot += (p.y - meanY) * (p.y - meanY)
	}

	if ssTot == 0 {
		rSquared = 1.0
	} else {
		rSquared = 1 - ssRes/ssTot
	}

	return slope, intercept, rSquared
}

// ============================================================
// Standout Days
// ============================================================

// StandoutDay is a day with unusually high step count.
type StandoutDay struct {
	Day      string  `json:"day"`
	Steps    int     `json:"steps"`
	ZScore   float64 `json:"z_score"`
	Severity string  `json:"severity"` // "low", "medium", "high"
}

// StandoutDays calculates the Z-score of each day's steps and returns the
// days more than 1.5 standard deviations above the mean, highest first.
func StandoutDays(days []*database.DailyActivity) []StandoutDay {
	if len(days) < 3 {
		return nil
	}

	var sum, sumSq float64
	for _, d := range days {
		v := float64(d.Steps)
		sum += v
		sumSq += v * v
	}
	n := float64(len(days))
	mean := sum / n
	stddev := math.Sqrt(math.Max(0, sumSq/n-mean*mean))
	if stddev == 0 {
		return nil
	}

	var out []StandoutDay
	for _, d := range days {
		z := (float64(d.Steps) - mean) / stddev
		if z <= 1.5 {
			continue
		}
		severity := "low"
		if z > 3.0 {
			severity = "high"
		} else if z > 2.0 {
			severity = "medium"
		}
		out = append(out, StandoutDay{
			Day:      d.Day,
			Steps:    d.Steps,
			ZScore:   math.Round(z*100) / 100,
			Severity: severity,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ZScore > out[j].ZScore
	})
	return out
}

// ============================================================
// Reward Performance
// ============================================================

// RewardShare attributes redemptions to a single reward.
type RewardShare struct {
	RewardID    string  `json:"reward_id"`
	Title       string  `json:"title"`
	Redemptions int     `json:"redemptions"`
	Percentage  float64 `json:"percentage"`
}

// TopRewards ranks rewards by lifetime redemptions and returns at most
// limit of them with their share of all redemptions.
func TopRewards(rewards []*database.Reward, limit int) []RewardShare {
	total := 0
	shares := make([]RewardShare, 0, len(rewards))
	for _, r := range rewards {
		total += r.Redemptions
		shares = append(shares, RewardShare{
			RewardID:    r.RewardID,
			Title:       r.Title,
			Redemptions: r.Redemptions,
		})
	}

	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Redemptions > shares[j].Redemptions
	})
	if limit > 0 && len(shares) > limit {
		shares = shares[:limit]
	}
	if total > 0 {
		for i := range shares {
			shares[i].Percentage = math.Round(float64(shares[i].Redemptions)/float64(total)*1000) / 10
		}
	}
	return shares
}

// RedemptionTally counts redemptions made within a window.
type RedemptionTally struct {
	Count  int `json:"count"`
	Points int `json:"points"`
}

// TallyRedemptions counts the redemptions at or after since (Unix ns).
func TallyRedemptions(reds []*database.Redemption, since int64) RedemptionTally {
	var t RedemptionTally
	for _, r := range reds {
		if r.RedeemedAt >= since {
			t.Count++
			t.Points += r.Points
		}
	}
	return t
}

// ============================================================
// Full Reports
// ============================================================

// Report is the walker-side analytics for a period.
type Report struct {
	Period          Period                    `json:"period"`
	GeneratedAt     string                    `json:"generated_at"`
	Goal            int                       `json:"goal"`
	Summary         Summary                   `json:"summary"`
	Days            []*database.DailyActivity `json:"days"`
	Pattern         []WeekdayBar              `json:"pattern"`
	Trend           Trend                     `json:"trend"`
	WeekOverWeek    float64                   `json:"week_over_week"`
	HasWeekOverWeek bool                      `json:"has_week_over_week"`
	Standouts       []StandoutDay             `json:"standouts"`
	Lifetime        *database.ActivityStats   `json:"lifetime"`
	Highlights      []string                  `json:"highlights"`
}

// BuildReport computes a report from already-loaded days. recent must hold
// the last fourteen days (oldest first) for the week-over-week change.
func BuildReport(period Period, goal int, days, recent []*database.DailyActivity, today time.Time) *Report {
	r := &Report{
		Period:      period,
		GeneratedAt: today.Format(time.RFC3339),
		Goal:        goal,
		Summary:     Summarize(days, goal),
		Days:        days,
		Pattern:     WeekdayPattern(days),
		Trend:       StepTrend(days),
		Standouts:   StandoutDays(days),
	}

	cutoff := timeutil.DaysAgo(today, 6)
	var prev, cur float64
	for _, d := range recent {
		if d.Day >= cutoff {
			cur += float64(d.Steps)
		} else {
			prev += float64(d.Steps)
		}
	}
	r.WeekOverWeek, r.HasWeekOverWeek = PercentChange(prev, cur)

	if r.HasWeekOverWeek {
		verb := "up"
		if r.WeekOverWeek < 0 {
			verb = "down"
		}
		r.Highlights = append(r.Highlights,
			fmt.Sprintf("Steps are %s %.1f%% compared to last week.", verb, math.Abs(r.WeekOverWeek)))
	}
	if r.Summary.BestSteps > 0 {
		r.Highlights = append(r.Highlights,
			fmt.Sprintf("Best day was %s with %s steps.", r.Summary.BestDay, humanize.Comma(int64(r.Summary.BestSteps))))
	}
	switch r.Trend.Direction {
	case "up":
		r.Highlights = append(r.Highlights,
			fmt.Sprintf("Trending up by about %.0f steps per day.", r.Trend.Slope))
	case "down":
		r.Highlights = append(r.Highlights,
			fmt.Sprintf("Trending down by about %.0f steps per day.", -r.Trend.Slope))
	}
	for _, s := range r.Standouts {
		if s.Severity != "low" {
			r.Highlights = append(r.Highlights,
				fmt.Sprintf("%s stood out with %s steps (Z-score %.2f).", s.Day, humanize.Comma(int64(s.Steps)), s.ZScore))
		}
	}
	return r
}

// Report loads the days of period ending on today and builds the report.
func (a *Analyzer) Report(period Period, today time.Time) (*Report, error) {
	profile, err := a.store.GetProfile()
	if err != nil {
		return nil, fmt.Errorf("loading profile for report: %w", err)
	}

	days, err := a.store.QueryActivities(database.ActivityFilter{Since: period.Since(today)})
	if err != nil {
		return nil, fmt.Errorf("querying activities for report: %w", err)
	}

	since := timeutil.DaysAgo(today, 13)
	recent, err := a.store.QueryActivities(database.ActivityFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("querying recent activities: %w", err)
	}

	r := BuildReport(period, profile.DailyGoal, days, recent, today)

	r.Lifetime, err = a.store.GetActivityStats()
	if err != nil {
		return nil, fmt.Errorf("gathering lifetime stats: %w", err)
	}
	return r, nil
}

// BusinessReport is the business-side analytics for a period.
type BusinessReport struct {
	Period       Period          `json:"period"`
	GeneratedAt  string          `json:"generated_at"`
	Redemptions  RedemptionTally `json:"redemptions"`
	ActiveCount  int             `json:"active_count"`
	TotalRewards int             `json:"total_rewards"`
	TotalRedeems int             `json:"total_redeems"`
	TopRewards   []RewardShare   `json:"top_rewards"`
}

// BusinessReport summarizes reward activity for period ending at now.
func (a *Analyzer) BusinessReport(period Period, now time.Time) (*BusinessReport, error) {
	rewards, err := a.store.ListRewards(database.RewardFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing rewards for report: %w", err)
	}
	reds, err := a.store.ListRedemptions(0)
	if err != nil {
		return nil, fmt.Errorf("listing redemptions for report: %w", err)
	}

	var since int64
	if n := period.Days(); n > 0 {
		since = now.AddDate(0, 0, -n).UnixNano()
	}

	r := &BusinessReport{
		Period:       period,
		GeneratedAt:  now.Format(time.RFC3339),
		Redemptions:  TallyRedemptions(reds, since),
		TotalRewards: len(rewards),
		TopRewards:   TopRewards(rewards, 5),
	}
	for _, rw := range rewards {
		if rw.Active {
			r.ActiveCount++
		}
		r.TotalRedeems += rw.Redemptions
	}
	return r, nil
}

// FormatReport generates a human-readable markdown report.
func FormatReport(r *Report) string {
	var b strings.Builder

	b.WriteString("# WalkPoints Activity Report\n\n")
	b.WriteString(fmt.Sprintf("**Period:** %s\n", r.Period.Label()))
	b.WriteString(fmt.Sprintf("**Generated:** %s\n\n", r.GeneratedAt))

	s := r.Summary
	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	b.WriteString(fmt.Sprintf("| Days Tracked | %d |\n", s.Days))
	b.WriteString(fmt.Sprintf("| Total Steps | %s |\n", humanize.Comma(int64(s.TotalSteps))))
	b.WriteString(fmt.Sprintf("| Daily Average | %s |\n", humanize.Comma(int64(math.Round(s.AverageSteps)))))
	b.WriteString(fmt.Sprintf("| Distance | %s |\n", timeutil.FormatDistance(s.TotalDistanceM)))
	b.WriteString(fmt.Sprintf("| Active Time | %s |\n", timeutil.FormatMinutes(s.TotalActiveMinutes)))
	b.WriteString(fmt.Sprintf("| Goal Days | %d of %d (%.1f%%) |\n\n", s.GoalDays, s.Days, s.GoalHitRate))

	if len(r.Pattern) > 0 {
		b.WriteString("## Weekly Pattern\n\n")
		b.WriteString("| Day | Avg Steps | |\n")
		b.WriteString("|-----|-----------|---|\n")
		for _, bar := range r.Pattern {
			b.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
				bar.Label, humanize.Comma(int64(bar.AverageSteps)),
				strings.Repeat("█", int(math.Round(bar.Normalized*10)))))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Trend\n\n")
	b.WriteString(fmt.Sprintf("- **Direction:** %s\n", r.Trend.Direction))
	b.WriteString(fmt.Sprintf("- **Slope:** %.1f steps/day\n", r.Trend.Slope))
	b.WriteString(fmt.Sprintf("- **R² Fit:** %.3f\n", r.Trend.RSquared))
	if r.HasWeekOverWeek {
		b.WriteString(fmt.Sprintf("- **Week over Week:** %+.1f%%\n", r.WeekOverWeek))
	}
	b.WriteString("\n")

	if r.Lifetime != nil {
		b.WriteString("## Lifetime\n\n")
		b.WriteString(fmt.Sprintf("- **Steps:** %s over %d days\n",
			humanize.Comma(int64(r.Lifetime.TotalSteps)), r.Lifetime.Days))
		b.WriteString(fmt.Sprintf("- **Distance:** %s\n", timeutil.FormatDistance(r.Lifetime.TotalDistanceM)))
		if r.Lifetime.BestDay != "" {
			b.WriteString(fmt.Sprintf("- **Best Day:** %s (%s steps)\n",
				r.Lifetime.BestDay, humanize.Comma(int64(r.Lifetime.BestSteps))))
		}
		b.WriteString("\n")
	}

	if len(r.Highlights) > 0 {
		b.WriteString("## Highlights\n\n")
		for _, h := range r.Highlights {
			b.WriteString(fmt.Sprintf("- %s\n", h))
		}
	}

	return b.String()
}

// FormatBusinessReport generates a markdown summary of reward activity.
func FormatBusinessReport(r *BusinessReport) string {
	var b strings.Builder

	b.WriteString("# WalkPoints Business Report\n\n")
	b.WriteString(fmt.Sprintf("**Period:** %s\n", r.Period.Label()))
	b.WriteString(fmt.Sprintf("**Generated:** %s\n\n", r.GeneratedAt))

	b.WriteString("## Redemptions\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	b.WriteString(fmt.Sprintf("| Redemptions | %s |\n", humanize.Comma(int64(r.Redemptions.Count))))
	b.WriteString(fmt.Sprintf("| Points Spent | %s |\n", humanize.Comma(int64(r.Redemptions.Points))))
	b.WriteString(fmt.Sprintf("| Active Rewards | %d of %d |\n", r.ActiveCount, r.TotalRewards))
	b.WriteString(fmt.Sprintf("| Lifetime Redemptions | %s |\n\n", humanize.Comma(int64(r.TotalRedeems))))

	if len(r.TopRewards) > 0 {
		b.WriteString("## Top Rewards\n\n")
		b.WriteString("| Reward | Redemptions | Share |\n")
		b.WriteString("|--------|-------------|-------|\n")
		for _, s := range r.TopRewards {
			b.WriteString(fmt.Sprintf("| %s | %s | %.1f%% |\n",
				s.Title, humanize.Comma(int64(s.Redemptions)), s.Percentage))
		}
	}

	return b.String()
}
