package models

import (
	"time"
)

// PortfolioView is one recorded visit to a user's portfolio. Rows are
// append-only: nothing updates or deletes them once written.
type PortfolioView struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index:idx_portfolio_views_user_ip_fp,priority:1;index:idx_portfolio_views_user_created,priority:1;index:idx_portfolio_views_user_owner,priority:1" json:"user_id"`
	IPAddress   *string   `gorm:"size:45;index:idx_portfolio_views_user_ip_fp,priority:2" json:"ip_address,omitempty"`
	Fingerprint *string   `gorm:"size:64;index:idx_portfolio_views_user_ip_fp,priority:3" json:"fingerprint,omitempty"`
	UserAgent   *string   `gorm:"type:text" json:"user_agent,omitempty"`
	Referer     *string   `gorm:"type:text" json:"referer,omitempty"`
	IsOwner     bool      `gorm:"not null;default:false;index:idx_portfolio_views_user_owner,priority:2" json:"is_owner"`
	Country     *string   `gorm:"size:100" json:"country,omitempty"`
	City        *string   `gorm:"size:100" json:"city,omitempty"`
	Browser     string    `gorm:"size:50" json:"browser"` // Parsed from UserAgent
	OS          string    `gorm:"size:100" json:"os"`
	DeviceType  string    `gorm:"size:50" json:"device_type"`
	CreatedAt   time.Time `gorm:"not null;index:idx_portfolio_views_user_created,priority:2" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (PortfolioView) TableName() string {
	return "portfolio_views"
}
