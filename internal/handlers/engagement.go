package handlers

import (
	"fmt"
	"net/http"
	"time"

	"jcoder/internal/services"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type EngagementQuery struct {
	RangeType string `form:"rangeType"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

type ListViewsRequest struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	SortBy string `form:"sortBy"`
	Order  string `form:"order"`
}

func parseRangeQuery(c *gin.Context) (services.RangeQuery, error) {
	var q EngagementQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return services.RangeQuery{}, fmt.Errorf("%w: %v", services.ErrInvalidRange, err)
	}

	rangeType, err := services.ParseRangeType(q.RangeType)
	if err != nil {
		return services.RangeQuery{}, err
	}
	rq := services.RangeQuery{Type: rangeType}

	if rq.StartDate, err = parseDate(q.StartDate); err != nil {
		return services.RangeQuery{}, err
	}
	if rq.EndDate, err = parseDate(q.EndDate); err != nil {
		return services.RangeQuery{}, err
	}
	return rq, nil
}

// parseDate reads a YYYY-MM-DD date as local midnight. Empty input is
// not an error.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q is not YYYY-MM-DD", services.ErrInvalidRange, s)
	}
	return &t, nil
}

func (h *Handler) engagement(c *gin.Context, username string) {
	q, err := parseRangeQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	stats, err := h.engagementService.GetEngagementStats(c.Request.Context(), username, q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetMyEngagement(c *gin.Context) {
	_, username := currentUser(c)
	h.engagement(c, username)
}

// GetUserEngagement serves the stats of :username to that user only.
func (h *Handler) GetUserEngagement(c *gin.Context) {
	_, username := currentUser(c)
	if username != c.Param("username") {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only view your own engagement"})
		return
	}
	h.engagement(c, username)
}

func (h *Handler) ListMyViews(c *gin.Context) {
	var req ListViewsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	sortBy, err := services.ParseVisitSortField(req.SortBy)
	if err != nil {
		h.respondError(c, err)
		return
	}
	order, err := services.ParseSortOrder(req.Order)
	if err != nil {
		h.respondError(c, err)
		return
	}

	userID, _ := currentUser(c)
	page, err := h.engagementService.ListViews(c.Request.Context(), userID, services.ListViewsQuery{
		Page:   req.Page,
		Limit:  req.Limit,
		SortBy: sortBy,
		Order:  order,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
