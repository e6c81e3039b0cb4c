package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null;size:80" json:"username"`
	Email        string    `gorm:"unique;not null;size:120" json:"email"`
	PasswordHash string    `gorm:"not null;size:255" json:"-"`
	APIKey       string    `gorm:"unique;index;size:36" json:"api_key"`
	FullName     string    `gorm:"size:120" json:"full_name"`
	Headline     string    `gorm:"size:160" json:"headline"`
	Bio          string    `gorm:"type:text" json:"bio"`
	Location     string    `gorm:"size:120" json:"location"`
	Website      string    `gorm:"size:255" json:"website"`
	GithubURL    string    `gorm:"size:255" json:"github_url"`
	LinkedInURL  string    `gorm:"column:linkedin_url;size:255" json:"linkedin_url"`
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Views []PortfolioView `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// PublicProfile is the part of a user that anyone may read.
type PublicProfile struct {
	Username    string    `json:"username"`
	FullName    string    `json:"full_name"`
	Headline    string    `json:"headline"`
	Bio         string    `json:"bio"`
	Location    string    `json:"location"`
	Website     string    `json:"website"`
	GithubURL   string    `json:"github_url"`
	LinkedInURL string    `json:"linkedin_url"`
	MemberSince time.Time `json:"member_since"`
}

func (u User) Public() PublicProfile {
	return PublicProfile{
		Username:    u.Username,
		FullName:    u.FullName,
		Headline:    u.Headline,
		Bio:         u.Bio,
		Location:    u.Location,
		Website:     u.Website,
		GithubURL:   u.GithubURL,
		LinkedInURL: u.LinkedInURL,
		MemberSince: u.CreatedAt,
	}
}
