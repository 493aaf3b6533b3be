package models

import "gorm.io/gorm"

// Activity log actions.
const (
	ActionGenerateCode       = "GENERATE_CODE"
	ActionRedeemCode         = "REDEEM_CODE"
	ActionRevokeCode         = "REVOKE_CODE"
	ActionSendAnnouncement   = "SEND_ANNOUNCEMENT"
	ActionUpdateAnnouncement = "UPDATE_ANNOUNCEMENT"
	ActionDeleteAnnouncement = "DELETE_ANNOUNCEMENT"
	ActionCreateTeam         = "CREATE_TEAM"
	ActionRemoveMember       = "REMOVE_MEMBER"
	ActionFreezeUser         = "FREEZE_USER"
	ActionUnfreezeUser       = "UNFREEZE_USER"
	ActionDeleteUser         = "DELETE_USER"
	ActionSetRole            = "SET_ROLE"
)

// ActivityLog is the append-only audit trail of state-changing actions.
// Writes are best effort: a failed insert is logged and counted but
// never fails the operation being recorded.
type ActivityLog struct {
	gorm.Model
	Action         string `gorm:"not null;index" json:"action"`
	UserID         uint   `gorm:"not null;index" json:"user_id"`
	TeamID         uint   `gorm:"index" json:"team_id"`
	AnnouncementID *uint  `json:"announcement_id,omitempty"`
	Details        string `gorm:"type:text" json:"details"`

	// Relations
	User User `json:"-"`
}
