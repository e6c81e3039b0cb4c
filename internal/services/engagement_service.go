package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"jcoder/internal/models"
	"jcoder/internal/observability"
	"jcoder/internal/repository"

	"gorm.io/gorm"
)

type RangeType string

const (
	RangeDay    RangeType = "DAY"
	RangeWeek   RangeType = "WEEK"
	RangeMonth  RangeType = "MONTH"
	RangeYear   RangeType = "YEAR"
	RangeCustom RangeType = "CUSTOM"
)

// DefaultRangeType is used when a request names no range.
const DefaultRangeType = RangeWeek

const topListLimit = 10

func ParseRangeType(s string) (RangeType, error) {
	if s == "" {
		return DefaultRangeType, nil
	}
	switch rt := RangeType(strings.ToUpper(s)); rt {
	case RangeDay, RangeWeek, RangeMonth, RangeYear, RangeCustom:
		return rt, nil
	}
	return "", fmt.Errorf("%w: unknown range type %q", ErrInvalidRange, s)
}

type RangeQuery struct {
	Type      RangeType
	StartDate *time.Time
	EndDate   *time.Time
}

// ResolveRange turns q into inclusive [start, end] bounds. Start is
// clamped to midnight and end to 23:59:59.999 in now's location. A
// CUSTOM range whose start falls after its end is returned as is and
// simply matches nothing.
func ResolveRange(now time.Time, q RangeQuery) (start, end time.Time, err error) {
	switch q.Type {
	case RangeDay:
		return startOfDay(now), endOfDay(now), nil
	case RangeWeek:
		return startOfDay(now.AddDate(0, 0, -7)), endOfDay(now), nil
	case RangeMonth:
		return startOfDay(now.AddDate(0, -1, 0)), endOfDay(now), nil
	case RangeYear:
		return startOfDay(now.AddDate(-1, 0, 0)), endOfDay(now), nil
	case RangeCustom:
		if q.StartDate == nil || q.EndDate == nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: CUSTOM requires startDate and endDate", ErrInvalidRange)
		}
		return startOfDay(*q.StartDate), endOfDay(*q.EndDate), nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown range type %q", ErrInvalidRange, q.Type)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

type DailyStat struct {
	Date           string `json:"date"`
	Views          int64  `json:"views"`
	UniqueVisitors int    `json:"uniqueVisitors"`
}

type CountryStat struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}

type RefererStat struct {
	Referer string `json:"referer"`
	Count   int64  `json:"count"`
}

type EngagementStats struct {
	RangeType      RangeType     `json:"rangeType"`
	StartDate      time.Time     `json:"startDate"`
	EndDate        time.Time     `json:"endDate"`
	TotalViews     int64         `json:"totalViews"`
	OwnerViews     int64         `json:"ownerViews"`
	UniqueVisitors int           `json:"uniqueVisitors"`
	DailyStats     []DailyStat   `json:"dailyStats"`
	TopCountries   []CountryStat `json:"topCountries"`
	TopReferers    []RefererStat `json:"topReferers"`
}

// visitorKey identifies a distinct visitor. Missing values are stored
// as "", so every view with neither an IP nor a fingerprint falls into
// one shared bucket.
type visitorKey struct {
	ip          string
	fingerprint string
}

type visitRow struct {
	IPAddress   *string
	Fingerprint *string
	CreatedAt   time.Time
}

func (r visitRow) key() visitorKey {
	var k visitorKey
	if r.IPAddress != nil {
		k.ip = *r.IPAddress
	}
	if r.Fingerprint != nil {
		k.fingerprint = *r.Fingerprint
	}
	return k
}

// EngagementService answers read-only questions about the visit log.
type EngagementService struct {
	db      *gorm.DB
	users   *repository.UserRepository
	metrics *observability.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewEngagementService(db *gorm.DB, users *repository.UserRepository, metrics *observability.Metrics, logger *slog.Logger) *EngagementService {
	return &EngagementService{
		db:      db,
		users:   users,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *EngagementService) GetEngagementStats(ctx context.Context, username string, q RangeQuery) (*EngagementStats, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	start, end, err := ResolveRange(s.now(), q)
	if err != nil {
		return nil, err
	}
	s.metrics.EngagementQueried(string(q.Type))

	inRange := func() *gorm.DB {
		return s.db.WithContext(ctx).
			Model(&models.PortfolioView{}).
			Where("user_id = ? AND created_at >= ? AND created_at <= ?", user.ID, start.UTC(), end.UTC())
	}
	visitors := func() *gorm.DB {
		return inRange().Where("is_owner = ?", false)
	}

	stats := &EngagementStats{
		RangeType:    q.Type,
		StartDate:    start,
		EndDate:      end,
		DailyStats:   []DailyStat{},
		TopCountries: []CountryStat{},
		TopReferers:  []RefererStat{},
	}

	if err := visitors().Count(&stats.TotalViews).Error; err != nil {
		return nil, fmt.Errorf("failed to count views: %w", err)
	}
	if err := inRange().Where("is_owner = ?", true).Count(&stats.OwnerViews).Error; err != nil {
		return nil, fmt.Errorf("failed to count owner views: %w", err)
	}

	var rows []visitRow
	if err := visitors().Select("ip_address, fingerprint, created_at").Order("created_at ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load views: %w", err)
	}
	stats.UniqueVisitors, stats.DailyStats = summarizeVisits(rows, start.Location())

	if err := visitors().
		Select("country, COUNT(*) AS count").
		Where("country IS NOT NULL AND country <> ''").
		Group("country").
		Order("count DESC").
		Limit(topListLimit).
		Scan(&stats.TopCountries).Error; err != nil {
		return nil, fmt.Errorf("failed to rank countries: %w", err)
	}

	if err := visitors().
		Select("referer, COUNT(*) AS count").
		Where("referer IS NOT NULL AND referer <> ''").
		Group("referer").
		Order("count DESC").
		Limit(topListLimit).
		Scan(&stats.TopReferers).Error; err != nil {
		return nil, fmt.Errorf("failed to rank referers: %w", err)
	}

	if stats.TopCountries == nil {
		stats.TopCountries = []CountryStat{}
	}
	if stats.TopReferers == nil {
		stats.TopReferers = []RefererStat{}
	}

	return stats, nil
}

// summarizeVisits counts distinct visitors over all rows and per
// calendar day in loc. rows must be ordered by created_at ascending.
func summarizeVisits(rows []visitRow, loc *time.Location) (int, []DailyStat) {
	overall := make(map[visitorKey]struct{})
	daily := []DailyStat{}
	var dayVisitors map[visitorKey]struct{}

	for _, row := range rows {
		k := row.key()
		overall[k] = struct{}{}

		date := row.CreatedAt.In(loc).Format("2006-01-02")
		if len(daily) == 0 || daily[len(daily)-1].Date != date {
			daily = append(daily, DailyStat{Date: date})
			dayVisitors = make(map[visitorKey]struct{})
		}
		day := &daily[len(daily)-1]
		day.Views++
		dayVisitors[k] = struct{}{}
		day.UniqueVisitors = len(dayVisitors)
	}

	return len(overall), daily
}
