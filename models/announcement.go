package models

import (
	"time"

	"gorm.io/gorm"
)

// Announcement content types.
const (
	AnnouncementPlain = "plain"
	AnnouncementMDX   = "mdx"
)

// Announcement importance levels.
const (
	ImportanceLow    = "low"
	ImportanceNormal = "normal"
	ImportanceHigh   = "high"
	ImportanceUrgent = "urgent"
)

// Announcement is a message fanned out to one or more recipient teams.
// When Schedule is set the announcement stays out of feeds until the
// scheduler worker stamps PublishedAt.
type Announcement struct {
	gorm.Model
	SenderID   uint   `gorm:"not null;index" json:"sender_id"`
	Content    string `gorm:"type:text;not null" json:"content"`
	Type       string `gorm:"not null;default:'plain'" json:"type"`
	Importance string `gorm:"not null;default:'normal'" json:"importance"`

	Schedule    *time.Time `json:"schedule,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`

	// Relations
	Sender     User                    `gorm:"foreignKey:SenderID" json:"-"`
	Recipients []AnnouncementRecipient `gorm:"foreignKey:AnnouncementID" json:"recipients,omitempty"`
}

// Published reports whether the announcement is visible in feeds.
func (a *Announcement) Published() bool {
	return a.Schedule == nil || a.PublishedAt != nil
}

// AnnouncementRecipient targets an announcement at a single team. The
// recipient set of an announcement is always replaced wholesale on
// update or reassignment, never diffed: callers retargeting a multi-team
// announcement through the single-team update endpoint lose the other
// recipient rows.
type AnnouncementRecipient struct {
	gorm.Model
	AnnouncementID uint       `gorm:"not null;index" json:"announcement_id"`
	TeamID         uint       `gorm:"not null;index" json:"team_id"`
	ReadAt         *time.Time `json:"read_at,omitempty"`

	// Relations
	Announcement Announcement `json:"-"`
	Team         Team         `json:"-"`
}

// ValidImportance reports whether s is a known importance level.
func ValidImportance(s string) bool {
	switch s {
	case ImportanceLow, ImportanceNormal, ImportanceHigh, ImportanceUrgent:
		return true
	}
	return false
}

// ValidAnnouncementType reports whether s is a known content type.
func ValidAnnouncementType(s string) bool {
	return s == AnnouncementPlain || s == AnnouncementMDX
}
