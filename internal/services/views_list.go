package services

import (
	"context"
	"fmt"
	"strings"

	"jcoder/internal/models"

	"gorm.io/gorm/clause"
)

// VisitSortField is the closed set of columns a visit listing can be
// ordered by. Only the column names below ever reach SQL.
type VisitSortField int

const (
	SortByCreatedAt VisitSortField = iota
	SortByCountry
	SortByReferer
)

func ParseVisitSortField(s string) (VisitSortField, error) {
	switch strings.ToLower(s) {
	case "", "created_at", "createdat":
		return SortByCreatedAt, nil
	case "country":
		return SortByCountry, nil
	case "referer":
		return SortByReferer, nil
	}
	return 0, fmt.Errorf("%w: sortBy %q", ErrInvalidSort, s)
}

func (f VisitSortField) column() string {
	switch f {
	case SortByCountry:
		return "country"
	case SortByReferer:
		return "referer"
	default:
		return "created_at"
	}
}

func (f VisitSortField) String() string {
	return f.column()
}

type SortOrder int

const (
	SortDesc SortOrder = iota
	SortAsc
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(s) {
	case "", "desc":
		return SortDesc, nil
	case "asc":
		return SortAsc, nil
	}
	return 0, fmt.Errorf("%w: order %q", ErrInvalidSort, s)
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ListViewsQuery struct {
	Page   int
	Limit  int
	SortBy VisitSortField
	Order  SortOrder
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type ViewPage struct {
	Items      []models.PortfolioView `json:"items"`
	Pagination Pagination             `json:"pagination"`
}

// ListViews pages through the visits of userID, owner visits included.
func (s *EngagementService) ListViews(ctx context.Context, userID uint, q ListViewsQuery) (*ViewPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}

	base := s.db.WithContext(ctx).Model(&models.PortfolioView{}).Where("user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count views: %w", err)
	}

	items := []models.PortfolioView{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: q.SortBy.column()}, Desc: q.Order == SortDesc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}

	pages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return &ViewPage{
		Items: items,
		Pagination: Pagination{
			Page:  q.Page,
			Limit: q.Limit,
			Total: total,
			Pages: pages,
		},
	}, nil
}
