package models

import (
	"time"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id"`           // Nullable for failed logins
	Action    string    `gorm:"size:50;not null" json:"action"` // e.g., "REGISTER", "LOGIN", "UPDATE_PROFILE"
	EntityID  string    `gorm:"size:80" json:"entity_id"`       // Username or other affected key
	Details   string    `gorm:"type:text" json:"details"`       // JSON description
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	Timestamp time.Time `gorm:"default:CURRENT_TIMESTAMP;index" json:"timestamp"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// All returns every model that AutoMigrate has to know about.
func All() []interface{} {
	return []interface{}{&User{}, &PortfolioView{}, &AuditLog{}}
}
