package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User is a player. Names are unique ignoring case. Points only grow, through
// achievements.
type User struct {
	ID           string       `gorm:"primaryKey;size:64" json:"id" bson:"id"`
	Name         string       `gorm:"size:64;not null;index" json:"name" bson:"name"`
	PasswordHash string       `gorm:"size:255" json:"password_hash" bson:"password_hash"`
	Attributes   []string     `gorm:"serializer:json;type:text" json:"attributes" bson:"attributes"`
	Favorites    []string     `gorm:"serializer:json;type:text" json:"favorites" bson:"favorites"`
	History      []CheckInLog `gorm:"foreignKey:UserID;references:ID" json:"history" bson:"history"`
	CreatedAt    string       `gorm:"size:40" json:"createdAt" bson:"createdAt"`
	Points       int          `gorm:"not null;default:0" json:"points" bson:"points"`
	Achievements []string     `gorm:"serializer:json;type:text" json:"achievements" bson:"achievements"`
}

// BeforeCreate hook ensures the creation timestamp is set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.CreatedAt == "" {
		u.CreatedAt = FormatTimestamp(time.Now())
	}
	return nil
}

// HasAchievement reports whether id was already unlocked.
func (u *User) HasAchievement(id string) bool {
	for _, a := range u.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// SameName compares display names the way registration does.
func (u *User) SameName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(u.Name), strings.TrimSpace(name))
}

// Normalize replaces nil collections so documents written by older versions
// behave like fresh ones.
func (u *User) Normalize() {
	if u.Attributes == nil {
		u.Attributes = []string{}
	}
	if u.Favorites == nil {
		u.Favorites = []string{}
	}
	if u.History == nil {
		u.History = []CheckInLog{}
	}
	if u.Achievements == nil {
		u.Achievements = []string{}
	}
}
