package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/dustin/go-humanize"

	"github.com/walkpoints/walkpoints/internal/database"
)

type achievementKind int

const (
	kindSteps achievementKind = iota
	kindDistance
)

// achievement is a lifetime badge. Requirement is in steps or kilometers
// depending on Kind.
type achievement struct {
	ID          string
	Title       string
	Kind        achievementKind
	Requirement float64
	Reward      string
	Tip         string
}

var achievementCatalog = []achievement{
	{"steps-1k", "First Steps", kindSteps, 1000, "10 bonus points", "Every journey begins with a single step!"},
	{"steps-5k", "Getting Started", kindSteps, 5000, "25 bonus points", "You're building a healthy habit!"},
	{"steps-10k", "Daily Walker", kindSteps, 10000, "50 bonus points", "10,000 steps is the golden standard for daily activity!"},
	{"steps-50k", "Week Warrior", kindSteps, 50000, "100 bonus points", "Consistency is key to reaching your goals!"},
	{"steps-100k", "Step Master", kindSteps, 100000, "250 bonus points", "You're a true walking champion!"},
	{"dist-1km", "First Kilometer", kindDistance, 1, "10 bonus points", "The first kilometer is always the hardest!"},
	{"dist-5km", "Park Explorer", kindDistance, 5, "25 bonus points", "Explore your local parks and nature trails!"},
	{"dist-10km", "City Walker", kindDistance, 10, "50 bonus points", "Discover hidden gems in your city!"},
	{"dist-50km", "Marathon Ready", kindDistance, 50, "100 bonus points", "You've walked more than a marathon distance!"},
	{"dist-100km", "Distance Champion", kindDistance, 100, "250 bonus points", "You're an unstoppable force!"},
}

// achievementStatus is an achievement evaluated against lifetime totals.
type achievementStatus struct {
	achievement
	Current  float64
	Progress float64 // in [0, 1]
	Unlocked bool
}

// evaluateAchievements scores the catalog against lifetime totals. Nil
// stats count as zero.
func evaluateAchievements(stats *database.ActivityStats) []achievementStatus {
	var steps, km float64
	if stats != nil {
		steps = float64(stats.TotalSteps)
		km = stats.TotalDistanceM / 1000
	}
	out := make([]achievementStatus, len(achievementCatalog))
	for i, a := range achievementCatalog {
		cur := steps
		if a.Kind == kindDistance {
			cur = km
		}
		out[i] = achievementStatus{
			achievement: a,
			Current:     cur,
			Progress:    minFloat(cur/a.Requirement, 1),
			Unlocked:    cur >= a.Requirement,
		}
	}
	return out
}

func unlockedCount(list []achievementStatus) int {
	n := 0
	for _, a := range list {
		if a.Unlocked {
			n++
		}
	}
	return n
}

func (a achievementStatus) requirementText() string {
	if a.Kind == kindSteps {
		return humanize.Comma(int64(a.Requirement)) + " steps"
	}
	return fmt.Sprintf("%g km", a.Requirement)
}

func (a achievementStatus) progressText() string {
	switch {
	case a.Unlocked:
		return "Completed"
	case a.Kind == kindSteps:
		return fmt.Sprintf("%s / %s", humanize.Comma(int64(a.Current)), humanize.Comma(int64(a.Requirement)))
	}
	return fmt.Sprintf("%.1f / %g km", a.Current, a.Requirement)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// achievementsView is the profile's badge list with a detail modal.
type achievementsView struct {
	cursor   int
	detail   *achievementStatus
	progress progress.Model
}

func newAchievementsView() *achievementsView {
	return &achievementsView{
		progress: progress.New(
			progress.WithSolidFill(string(colorGreen)),
			progress.WithoutPercentage(),
		),
	}
}

func (v *achievementsView) reset() {
	v.cursor = 0
	v.detail = nil
}

func (v *achievementsView) move(delta int) {
	v.cursor = clamp(v.cursor+delta, 0, len(achievementCatalog)-1)
}

func (v *achievementsView) open(stats *database.ActivityStats) {
	list := evaluateAchievements(stats)
	a := list[v.cursor]
	v.detail = &a
}

func (v *achievementsView) render(stats *database.ActivityStats, width, height int) string {
	if a := v.detail; a != nil {
		state := warnStyle.Render(a.progressText())
		if a.Unlocked {
			state = goodStyle.Render("✓ Unlocked")
		}
		body := fmt.Sprintf("%s\n%s\n\n%s %s\n\n%s",
			labelStyle.Render(a.requirementText()),
			state,
			labelStyle.Render("Reward"),
			pointsStyle.Render(a.Reward),
			mutedStyle.Render(a.Tip))
		return renderModal(a.Title, body, width, height)
	}

	list := evaluateAchievements(stats)
	inner := maxInt(10, width-4)
	v.progress.Width = minInt(inner-2, 32)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Achievements"))
	b.WriteString("  ")
	b.WriteString(accentStyle.Render(fmt.Sprintf("%d / %d unlocked", unlockedCount(list), len(list))))
	b.WriteString("\n")

	room := maxInt(1, (height-3)/2)
	start := 0
	if v.cursor >= room {
		start = v.cursor - room + 1
	}
	for i := start; i < len(list) && i < start+room; i++ {
		a := list[i]
		style := itemStyle
		if i == v.cursor {
			style = itemSelectedStyle
		}
		mark := mutedStyle.Render("·")
		if a.Unlocked {
			mark = goodStyle.Render("✓")
		}
		b.WriteString(style.Render(truncate(a.Title, inner-4)))
		b.WriteString(" ")
		b.WriteString(mark)
		b.WriteString("\n  ")
		if a.Unlocked {
			b.WriteString(labelStyle.Render(a.requirementText()))
		} else {
			b.WriteString(v.progress.ViewAs(a.Progress))
			b.WriteString(" ")
			b.WriteString(mutedStyle.Render(a.progressText()))
		}
		b.WriteString("\n")
	}
	return fitHeight(screenStyle.Render(b.String()), height)
}
