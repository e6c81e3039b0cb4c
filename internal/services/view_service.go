package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"jcoder/internal/models"
	"jcoder/internal/observability"
	"jcoder/internal/repository"

	"github.com/mssola/user_agent"
	"gorm.io/gorm"
)

// ViewCooldown is how long a repeat anonymous visit sharing an IP or a
// fingerprint with an earlier one is ignored.
const ViewCooldown = 30 * time.Minute

// TrackViewInput is a normalized view signal: empty strings have already
// been turned into nil.
type TrackViewInput struct {
	Username    string
	IPAddress   *string
	Fingerprint *string
	UserAgent   *string
	Referer     *string
	IsOwner     bool
}

// ViewService writes the portfolio visit log.
type ViewService struct {
	db      *gorm.DB
	users   *repository.UserRepository
	geoIP   *GeoIPService
	metrics *observability.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewViewService(db *gorm.DB, users *repository.UserRepository, geoIP *GeoIPService, metrics *observability.Metrics, logger *slog.Logger) *ViewService {
	return &ViewService{
		db:      db,
		users:   users,
		geoIP:   geoIP,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// RegisterView records a visit unless it is an anonymous repeat inside
// the cooldown window. Owner visits are always recorded. The existence
// check and the insert are not atomic, so two concurrent requests from
// one visitor can both be written.
func (s *ViewService) RegisterView(ctx context.Context, in TrackViewInput) error {
	user, err := s.users.FindByUsername(ctx, in.Username)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	// Stored and compared in UTC: sqlite keeps timestamps as text.
	now := s.now().UTC()

	if !in.IsOwner {
		duplicate, err := s.seenRecently(ctx, user.ID, in.IPAddress, in.Fingerprint, now.Add(-ViewCooldown))
		if err != nil {
			return err
		}
		if duplicate {
			s.metrics.ViewDeduplicated()
			return nil
		}
	}

	view := models.PortfolioView{
		UserID:      user.ID,
		IPAddress:   in.IPAddress,
		Fingerprint: in.Fingerprint,
		UserAgent:   in.UserAgent,
		Referer:     in.Referer,
		IsOwner:     in.IsOwner,
		CreatedAt:   now,
	}
	s.enrich(&view)

	if err := s.db.WithContext(ctx).Create(&view).Error; err != nil {
		return fmt.Errorf("failed to record portfolio view: %w", err)
	}

	if in.IsOwner {
		s.metrics.ViewRecorded(observability.ViewKindOwner)
	} else {
		s.metrics.ViewRecorded(observability.ViewKindVisitor)
	}
	return nil
}

// seenRecently reports whether a non-owner view of userID since cutoff
// shares the IP or the fingerprint. With neither signal there is no key
// to match on and the answer is always false.
func (s *ViewService) seenRecently(ctx context.Context, userID uint, ip, fingerprint *string, cutoff time.Time) (bool, error) {
	q := s.db.WithContext(ctx).
		Model(&models.PortfolioView{}).
		Where("user_id = ? AND is_owner = ? AND created_at >= ?", userID, false, cutoff)

	switch {
	case ip != nil && fingerprint != nil:
		q = q.Where("(ip_address = ? OR fingerprint = ?)", *ip, *fingerprint)
	case ip != nil:
		q = q.Where("ip_address = ?", *ip)
	case fingerprint != nil:
		q = q.Where("fingerprint = ?", *fingerprint)
	default:
		return false, nil
	}

	var latest []models.PortfolioView
	if err := q.Order("created_at DESC").Limit(1).Find(&latest).Error; err != nil {
		return false, fmt.Errorf("failed to check recent views: %w", err)
	}
	return len(latest) > 0, nil
}

// enrich fills the derived columns. It never fails: unknown values are
// left empty.
func (s *ViewService) enrich(view *models.PortfolioView) {
	if view.UserAgent != nil {
		ua := user_agent.New(*view.UserAgent)
		browserName, browserVer := ua.Browser()
		view.Browser = truncate(strings.TrimSpace(browserName+" "+browserVer), 50)
		view.OS = truncate(ua.OS(), 100)

		if ua.Bot() {
			view.DeviceType = "Bot"
		} else if ua.Mobile() {
			view.DeviceType = "Mobile"
		} else {
			view.DeviceType = "Desktop"
		}
	}

	if view.IPAddress != nil && s.geoIP != nil {
		if country, city, ok := s.geoIP.Lookup(*view.IPAddress); ok {
			country = truncate(country, 100)
			view.Country = &country
			if city != "" {
				city = truncate(city, 100)
				view.City = &city
			}
		}
	}
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
