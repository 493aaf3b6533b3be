package models

import "gorm.io/gorm"

// Team-level membership roles. Distinct from platform roles: a platform
// student can be the teacher of a team they created.
const (
	MembershipOwner   = "owner"
	MembershipTeacher = "teacher"
	MembershipStudent = "student"
)

// Team represents a group of users announcements are addressed to
type Team struct {
	gorm.Model
	Name  string `gorm:"uniqueIndex;not null" json:"name"`
	Type  string `gorm:"default:'class'" json:"type"`
	Order int    `gorm:"column:sort_order;default:0" json:"order"`

	// Relations
	Members []TeamMembership `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

// TeamMembership links a user to a team with a role. Rows are only ever
// inserted and deleted; a role change is a remove plus re-add.
type TeamMembership struct {
	gorm.Model
	UserID uint   `gorm:"not null;uniqueIndex:idx_memberships_user_team" json:"user_id"`
	TeamID uint   `gorm:"not null;uniqueIndex:idx_memberships_user_team;index" json:"team_id"`
	Role   string `gorm:"not null;default:'student'" json:"role"`

	// Relations
	User User `json:"-"`
	Team Team `json:"-"`
}

// CanManageTeam reports whether the membership role is allowed to
// administer the team (generate codes, remove members, send to it).
func (m *TeamMembership) CanManageTeam() bool {
	return m.Role == MembershipTeacher || m.Role == MembershipOwner
}
