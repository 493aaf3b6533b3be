package utils

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"classnexy/metrics"
	"classnexy/models"
)

// RecordActivity appends an audit record for a state-changing action.
// Best effort: a failed insert must never fail the operation being
// recorded, so the error is logged and counted, not returned.
func RecordActivity(db *gorm.DB, action string, userID, teamID uint, announcementID *uint, details string) {
	entry := models.ActivityLog{
		Action:         action,
		UserID:         userID,
		TeamID:         teamID,
		AnnouncementID: announcementID,
		Details:        details,
	}

	if err := db.Create(&entry).Error; err != nil {
		metrics.ActivityDropped.Inc()
		logrus.WithFields(logrus.Fields{
			"action":  action,
			"user_id": userID,
			"team_id": teamID,
		}).WithError(err).Error("activity log write failed")
	}
}
