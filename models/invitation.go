package models

import (
	"time"

	"gorm.io/gorm"
)

// InvitationCode is a shareable join code for a team. Codes are
// use-limited (MaxUses, nil = unlimited) and optionally time-limited.
// UsedCount never exceeds MaxUses; IsActive flips to false on the
// redemption that reaches the budget, never before.
type InvitationCode struct {
	gorm.Model
	TeamID    uint   `gorm:"not null;index" json:"team_id"`
	Code      string `gorm:"type:varchar(6);uniqueIndex;not null" json:"code"`
	CreatedBy uint   `gorm:"not null" json:"created_by"`

	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	MaxUses   *int       `json:"max_uses,omitempty"`
	UsedCount int        `gorm:"not null;default:0" json:"used_count"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`

	// Relations
	Team    Team                `json:"-"`
	Creator User                `gorm:"foreignKey:CreatedBy" json:"-"`
	Uses    []InvitationCodeUse `gorm:"foreignKey:CodeID" json:"uses,omitempty"`
}

/// Usable is the read-side validity predicate: active, unexpired and with
// use budget remaining. Callers deliberately cannot tell which axis
// failed.
func (ic *InvitationCode) Usable(now time.Time) bool {
	if !ic.IsActive {
		return false
	}
	if ic.ExpiresAt != nil && !ic.ExpiresAt.After(now) {
		return false
	}
	if ic.MaxUses != nil && ic.UsedCount >= *ic.MaxUses {
		return false
	}
	return true
}

// InvitationCodeUse is the append-only redemption ledger, one row per
// successful redemption, independent of the counter on the code.
type InvitationCodeUse struct {
	gorm.Model
	CodeID uint `gorm:"not null;index" json:"code_id"`
	UserID uint `gorm:"not null;index" json:"user_id"`

	// Relations
	Code InvitationCode `gorm:"foreignKey:CodeID" json:"-"`
	User User           `json:"-"`
}
