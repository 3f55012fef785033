// Package database provides the storage layer for WalkPoints.
//
// It implements the Store interface using SQLite in WAL mode. The schema
// and the first-run seed data are applied through embedded migrations.
// The DBService struct is the primary entry point for all database
// operations.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientPoints is returned when a reward costs more than the balance.
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrRewardInactive is returned when redeeming a disabled reward.
	ErrRewardInactive = errors.New("reward is not active")
	// ErrInvalidTarget is returned for a milestone target that is not positive.
	ErrInvalidTarget = errors.New("milestone target must be positive")
)

// Store defines the interface for WalkPoints persistence.
// This abstraction allows for fakes in tests.
type Store interface {
	// GetProfile returns the single local profile.
	GetProfile() (*Profile, error)
	// GetSetting returns a stored setting and whether it exists.
	GetSetting(key string) (string, bool, error)
	// SetSetting stores a setting, replacing any previous value.
	SetSetting(key, value string) error

	// UpsertActivity stores the totals for one day.
	UpsertActivity(a *DailyActivity) error
	// BatchUpsertActivities stores many days in a single transaction.
	BatchUpsertActivities(as []*DailyActivity) error
	// QueryActivities returns days matching the filter, oldest first.
	QueryActivities(filter ActivityFilter) ([]*DailyActivity, error)
	// GetActivityStats returns lifetime totals.
	GetActivityStats() (*ActivityStats, error)

	// ListMilestones returns all milestones, oldest first.
	ListMilestones() ([]*Milestone, error)
	// InsertMilestone persists a new milestone.
	InsertMilestone(m *Milestone) error
	// AdvanceMilestones records a day's steps against every milestone in
	// progress, completing and paying out those that reach their target.
	AdvanceMilestones(steps int, now int64) ([]*Milestone, error)

	// ListRewards returns rewards matching the filter, cheapest first.
	ListRewards(filter RewardFilter) ([]*Reward, error)
	// SetRewardActive enables or disables a reward.
	SetRewardActive(rewardID string, active bool) error
	// Redeem spends points on a reward and returns the redemption.
	Redeem(rewardID string, now int64) (*Redemption, error)
	// ListRedemptions returns redemptions, most recent first.
	ListRedemptions(limit int) ([]*Redemption, error)

	// Close gracefully shuts down the database connection.
	Close() error
}

// ============================================================
// Domain Models
// ============================================================

// Profile is the local walker (or business owner) account.
type Profile struct {
	Name        string  `json:"name"`
	Points      int     `json:"points"`
	DailyGoal   int     `json:"daily_goal"`
	StrideM     float64 `json:"stride_m"`
	MemberSince int64   `json:"member_since"` // Unix nanoseconds
}

// DailyActivity holds one day's totals. Day is formatted YYYY-MM-DD.
type DailyActivity struct {
	Day           string  `json:"day"`
	Steps         int     `json:"steps"`
	DistanceM     float64 `json:"distance_m"`
	ActiveMinutes int     `json:"active_minutes"`
}

// MilestoneStatus is the lifecycle state of a milestone.
type MilestoneStatus string

const (
	MilestoneCompleted  MilestoneStatus = "completed"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneLocked     MilestoneStatus = "locked"
)

// Milestone is a step target that pays out points when reached.
type Milestone struct {
	MilestoneID  string          `json:"milestone_id"`
	TargetSteps  int             `json:"target_steps"`
	CurrentSteps int             `json:"current_steps"`
	Points       int             `json:"points"`
	Status       MilestoneStatus `json:"status"`
	AchievedAt   *int64          `json:"achieved_at,omitempty"`
	CreatedAt    int64           `json:"created_at"`
}

// Payout bounds for user-created milestones.
const (
	MinMilestonePoints = 10
	MaxMilestonePoints = 100
)

// NewMilestone returns an in-progress milestone for target steps with a
// randomly drawn payout between MinMilestonePoints and MaxMilestonePoints.
func NewMilestone(target int, now int64) *Milestone {
	return &Milestone{
		TargetSteps: target,
		Points:      MinMilestonePoints + rand.IntN(MaxMilestonePoints-MinMilestonePoints+1),
		Status:      MilestoneInProgress,
		CreatedAt:   now,
	}
}

// Reward is something points can be spent on.
type Reward struct {
	RewardID    string `json:"reward_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Partner     string `json:"partner"`
	Points      int    `json:"points"`
	Active      bool   `json:"active"`
	Redemptions int    `json:"redemptions"`
}

// Redemption records points spent on a reward.
type Redemption struct {
	RedemptionID string `json:"redemption_id"`
	RewardID     string `json:"reward_id"`
	RewardTitle  string `json:"reward_title"`
	Code         string `json:"code"`
	Points       int    `json:"points"`
	RedeemedAt   int64  `json:"redeemed_at"` // Unix nanoseconds
}

// ActivityFilter defines query parameters for activity listing.
type ActivityFilter struct {
	Since *string `json:"since,omitempty"` // inclusive, YYYY-MM-DD
	Until *string `json:"until,omitempty"` // inclusive, YYYY-MM-DD
	Limit int     `json:"limit"`
}

// RewardFilter defines query parameters for reward listing.
type RewardFilter struct {
	Active *bool `json:"active,omitempty"`
}

// ActivityStats holds lifetime totals.
type ActivityStats struct {
	Days               int     `json:"days"`
	TotalSteps         int     `json:"total_steps"`
	TotalDistanceM     float64 `json:"total_distance_m"`
	TotalActiveMinutes int     `json:"total_active_minutes"`
	BestDay            string  `json:"best_day"`
	BestSteps          int     `json:"best_steps"`
}

// ============================================================
// DBService Implementation
// ============================================================

// DBService implements the Store interface using SQLite.
// It guards access through a read-write mutex and keeps prepared
// statements for the write paths.
type DBService struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string

	stmtUpsertActivity  *sql.Stmt
	stmtInsertMilestone *sql.Stmt
	stmtSetSetting      *sql.Stmt
}

// NewDBService opens the database, applies migrations, and prepares
// frequently-used statements.
//
// Use ":memory:" for in-memory databases (useful for testing).
func NewDBService(path string) (*DBService, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=ON&_cache_size=-16000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database at %s: %w", path, err)
	}

	// SQLite only supports one writer at a time; a single connection also
	// keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	svc := &DBService{
		db:   db,
		path: path,
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	if err := svc.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing statements: %w", err)
	}

	return svc, nil
}

func (s *DBService) prepareStatements() error {
	var err error

	s.stmtUpsertActivity, err = s.db.Prepare(`
		INSERT INTO daily_activity (day, steps, distance_m, active_minutes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			steps = excluded.steps,
			distance_m = excluded.distance_m,
			active_minutes = excluded.active_minutes
	`)
	if err != nil {
		return fmt.Errorf("preparing UpsertActivity: %w", err)
	}

	s.stmtInsertMilestone, err = s.db.Prepare(`
		INSERT INTO milestones (milestone_id, target_steps, current_steps, points, status, achieved_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertMilestone: %w", err)
	}

	s.stmtSetSetting, err = s.db.Prepare(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`)
	if err != nil {
		return fmt.Errorf("preparing SetSetting: %w", err)
	}

	return nil
}

// GetProfile returns the single local profile.
func (s *DBService) GetProfile() (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := &Profile{}
	err := s.db.QueryRow(`
		SELECT name, points, daily_goal, stride_m, member_since FROM profile WHERE id = 1
	`).Scan(&p.Name, &p.Points, &p.DailyGoal, &p.StrideM, &p.MemberSince)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	return p, nil
}

// GetSetting returns a stored setting and whether it exists.
func (s *DBService) GetSetting(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting stores a setting, replacing any previous value.
func (s *DBService) SetSetting(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.stmtSetSetting.Exec(key, value); err != nil {
		return fmt.Errorf("storing setting %s: %w", key, err)
	}
	return nil
}

// UpsertActivity stores the totals for one day, replacing earlier totals.
func (s *DBService) UpsertActivity(a *DailyActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.stmtUpsertActivity.Exec(a.Day, a.Steps, a.DistanceM, a.ActiveMinutes)
	if err != nil {
		return fmt.Errorf("upserting activity for %s: %w", a.Day, err)
	}
	return nil
}

// BatchUpsertActivities stores many days within a single transaction.
func (s *DBService) BatchUpsertActivities(as []*DailyActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning batch activity transaction: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt := tx.Stmt(s.stmtUpsertActivity)
	for _, a := range as {
		if _, err := stmt.Exec(a.Day, a.Steps, a.DistanceM, a.ActiveMinutes); err != nil {
			return fmt.Errorf("batch upserting activity for %s: %w", a.Day, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch activity transaction: %w", err)
	}
	return nil
}

// QueryActivities returns days matching the filter, ordered oldest first.
// With a Limit, the most recent Limit days are returned.
func (s *DBService) QueryActivities(filter ActivityFilter) ([]*DailyActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT day, steps, distance_m, active_minutes FROM daily_activity WHERE 1=1`
	args := make([]interface{}, 0)

	if filter.Since != nil {
		query += ` AND day >= ?`
		args = append(args, *filter.Since)
	}
	if filter.Until != nil {
		query += ` AND day <= ?`
		args = append(args, *filter.Until)
	}
	query += ` ORDER BY day DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activities: %w", err)
	}
	defer rows.Close()

	var days []*DailyActivity
	for rows.Next() {
		a := &DailyActivity{}
		if err := rows.Scan(&a.Day, &a.Steps, &a.DistanceM, &a.ActiveMinutes); err != nil {
			return nil, fmt.Errorf("scanning activity row: %w", err)
		}
		days = append(days, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into chronological order.
	for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
		days[i], days[j] = days[j], days[i]
	}
	return days, nil
}

// GetActivityStats returns lifetime totals and the best day.
func (s *DBService) GetActivityStats() (*ActivityStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &ActivityStats{}
	err := s.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(steps), 0),
			COALESCE(SUM(distance_m), 0),
			COALESCE(SUM(active_minutes), 0)
		FROM daily_activity
	`).Scan(&stats.Days, &stats.TotalSteps, &stats.TotalDistanceM, &stats.TotalActiveMinutes)
	if err != nil {
		return nil, fmt.Errorf("querying activity stats: %w", err)
	}

	if stats.Days == 0 {
		return stats, nil
	}

	err = s.db.QueryRow(`
		SELECT day, steps FROM daily_activity ORDER BY steps DESC, day DESC LIMIT 1
	`).Scan(&stats.BestDay, &stats.BestSteps)
	if err != nil {
		return nil, fmt.Errorf("querying best day: %w", err)
	}
	return stats, nil
}

// ListMilestones returns all milestones, oldest first.
func (s *DBService) ListMilestones() ([]*Milestone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT milestone_id, target_steps, current_steps, points, status, achieved_at, created_at
		FROM milestones
		ORDER BY created_at ASC, milestone_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying milestones: %w", err)
	}
	defer rows.Close()

	return scanMilestones(rows)
}

// InsertMilestone persists a new milestone. An empty ID is filled with a
// fresh UUID.
func (s *DBService) InsertMilestone(m *Milestone) error {
	if m.TargetSteps <= 0 {
		return fmt.Errorf("inserting milestone: %w", ErrInvalidTarget)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if m.MilestoneID == "" {
		m.MilestoneID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = MilestoneInProgress
	}

	_, err := s.stmtInsertMilestone.Exec(
		m.MilestoneID, m.TargetSteps, m.CurrentSteps, m.Points,
		string(m.Status), m.AchievedAt, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting milestone %s: %w", m.MilestoneID, err)
	}
	return nil
}

// AdvanceMilestones raises the progress of every in-progress milestone to
// steps when higher. Milestones reaching their target are completed and
// their points credited to the profile, all in one transaction.
func (s *DBService) AdvanceMilestones(steps int, now int64) ([]*Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning milestone transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT milestone_id, target_steps, current_steps, points, status, achieved_at, created_at
		FROM milestones
		WHERE status = 'in_progress'
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying milestones in progress: %w", err)
	}
	open, err := scanMilestones(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	var completed []*Milestone
	earned := 0
	for _, m := range open {
		if steps <= m.CurrentSteps {
			continue
		}
		m.CurrentSteps = steps
		if m.CurrentSteps >= m.TargetSteps {
			m.CurrentSteps = m.TargetSteps
			m.Status = MilestoneCompleted
			at := now
			m.AchievedAt = &at
			completed = append(completed, m)
			earned += m.Points
		}
		_, err := tx.Exec(`
			UPDATE milestones SET current_steps = ?, status = ?, achieved_at = ? WHERE milestone_id = ?
		`, m.CurrentSteps, string(m.Status), m.AchievedAt, m.MilestoneID)
		if err != nil {
			return nil, fmt.Errorf("updating milestone %s: %w", m.MilestoneID, err)
		}
	}

	if earned > 0 {
		if _, err := tx.Exec(`UPDATE profile SET points = points + ? WHERE id = 1`, earned); err != nil {
			return nil, fmt.Errorf("crediting milestone points: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing milestone transaction: %w", err)
	}
	return completed, nil
}

// ListRewards returns rewards matching the filter, cheapest first.
func (s *DBService) ListRewards(filter RewardFilter) ([]*Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT reward_id, title, description, partner, points, active, redemptions FROM rewards`
	args := make([]interface{}, 0)
	if filter.Active != nil {
		query += ` WHERE active = ?`
		args = append(args, *filter.Active)
	}
	query += ` ORDER BY points ASC, title ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying rewards: %w", err)
	}
	defer rows.Close()

	var rewards []*Reward
	for rows.Next() {
		r := &Reward{}
		if err := rows.Scan(&r.RewardID, &r.Title, &r.Description, &r.Partner,
			&r.Points, &r.Active, &r.Redemptions); err != nil {
			return nil, fmt.Errorf("scanning reward row: %w", err)
		}
		rewards = append(rewards, r)
	}
	return rewards, rows.Err()
}

// SetRewardActive enables or disables a reward.
func (s *DBService) SetRewardActive(rewardID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE rewards SET active = ? WHERE reward_id = ?`, active, rewardID)
	if err != nil {
		return fmt.Errorf("updating reward %s: %w", rewardID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("reward %s: %w", rewardID, ErrNotFound)
	}
	return nil
}

// Redeem spends the reward's cost from the profile balance and records a
// redemption with a fresh code. The balance check and the debit happen in
// one transaction.
func (s *DBService) Redeem(rewardID string, now int64) (*Redemption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning redemption transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		title  string
		cost   int
		active bool
	)
	err = tx.QueryRow(`SELECT title, points, active FROM rewards WHERE reward_id = ?`, rewardID).
		Scan(&title, &cost, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reward %s: %w", rewardID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying reward %s: %w", rewardID, err)
	}
	if !active {
		return nil, fmt.Errorf("%s: %w", title, ErrRewardInactive)
	}

	var balance int
	if err := tx.QueryRow(`SELECT points FROM profile WHERE id = 1`).Scan(&balance); err != nil {
		return nil, fmt.Errorf("querying balance: %w", err)
	}
	if balance < cost {
		return nil, fmt.Errorf("%w: need %d more points for %s", ErrInsufficientPoints, cost-balance, title)
	}

	id := uuid.New()
	red := &Redemption{
		RedemptionID: id.String(),
		RewardID:     rewardID,
		RewardTitle:  title,
		Code:         redemptionCode(title, id),
		Points:       cost,
		RedeemedAt:   now,
	}

	if _, err := tx.Exec(`UPDATE profile SET points = points - ? WHERE id = 1`, cost); err != nil {
		return nil, fmt.Errorf("debiting points: %w", err)
	}
	if _, err := tx.Exec(`UPDATE rewards SET redemptions = redemptions + 1 WHERE reward_id = ?`, rewardID); err != nil {
		return nil, fmt.Errorf("counting redemption: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO redemptions (redemption_id, reward_id, code, points, redeemed_at)
		VALUES (?, ?, ?, ?, ?)
	`, red.RedemptionID, red.RewardID, red.Code, red.Points, red.RedeemedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting redemption: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing redemption transaction: %w", err)
	}
	return red, nil
}

// ListRedemptions returns redemptions joined with their reward title,
// most recent first. A non-positive limit returns all of them.
func (s *DBService) ListRedemptions(limit int) ([]*Redemption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT r.redemption_id, r.reward_id, w.title, r.code, r.points, r.redeemed_at
		FROM redemptions r
		INNER JOIN rewards w ON w.reward_id = r.reward_id
		ORDER BY r.redeemed_at DESC`
	args := make([]interface{}, 0)
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying redemptions: %w", err)
	}
	defer rows.Close()

	var out []*Redemption
	for rows.Next() {
		r := &Redemption{}
		if err := rows.Scan(&r.RedemptionID, &r.RewardID, &r.RewardTitle,
			&r.Code, &r.Points, &r.RedeemedAt); err != nil {
			return nil, fmt.Errorf("scanning redemption row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes all prepared statements and the underlying connection.
func (s *DBService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmts := []*sql.Stmt{s.stmtUpsertActivity, s.stmtInsertMilestone, s.stmtSetSetting}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}

	return s.db.Close()
}

// ============================================================
// Helpers
// ============================================================

func scanMilestones(rows *sql.Rows) ([]*Milestone, error) {
	var out []*Milestone
	for rows.Next() {
		m := &Milestone{}
		var status string
		if err := rows.Scan(&m.MilestoneID, &m.TargetSteps, &m.CurrentSteps,
			&m.Points, &status, &m.AchievedAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning milestone row: %w", err)
		}
		m.Status = MilestoneStatus(status)
		out = append(out, m)
	}
	return out, rows.Err()
}

// redemptionCode builds a short code like WALK-COF-4829 from the reward
// title and the redemption id.
func redemptionCode(title string, id uuid.UUID) string {
	var prefix []rune
	for _, r := range title {
		if unicode.IsLetter(r) {
			prefix = append(prefix, unicode.ToUpper(r))
			if len(prefix) == 3 {
				break
			}
		}
	}
	for len(prefix) < 3 {
		prefix = append(prefix, 'X')
	}
	return fmt.Sprintf("WALK-%s-%04d", strings.ToUpper(string(prefix)), id.ID()%10000)
}
