package models

import (
	"time"

	"gorm.io/gorm"
)

// Platform-level user roles.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
	RoleDev     = "dev"
)

// User represents a user account in the system
type User struct {
	gorm.Model

	// Authentication fields
	Email         string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  string `gorm:"not null" json:"-"`
	EmailVerified bool   `gorm:"default:false" json:"email_verified"`
	OTP           string `json:"-"`
	OTPExpiresAt  time.Time
	OTPVerified   bool `gorm:"default:false"`

	// Google OAuth fields
	GoogleID       *string `gorm:"uniqueIndex" json:"google_id,omitempty"`
	GoogleImageURL *string `json:"google_image_url,omitempty"`

	// Profile information
	Name     string `json:"name"`
	Timezone string `gorm:"default:'UTC'" json:"timezone"`

	// Role and account status. Frozen accounts keep their rows but cannot
	// log in or pass the auth middleware; deletion is a soft delete so
	// referencing rows stay intact.
	Role     string `gorm:"default:'student';index" json:"role"`
	IsFrozen bool   `gorm:"default:false" json:"is_frozen"`

	// Relations
	Memberships   []TeamMembership `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
	Announcements []Announcement   `gorm:"foreignKey:SenderID" json:"announcements,omitempty"`
}

// IsPlatformAdmin reports whether the user bypasses per-team authorization.
// Dev accounts are admin-equivalent.
func (u *User) IsPlatformAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleDev
}

// ValidRole reports whether s is one of the platform roles.
func ValidRole(s string) bool {
	switch s {
	case RoleAdmin, RoleTeacher, RoleStudent, RoleDev:
		return true
	}
	return false
}
