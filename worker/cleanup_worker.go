package worker

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"classnexy/config"
	"classnexy/models"
)

// CleanupWorker deactivates expired invitation codes and prunes old
// activity rows past the configured retention window.
type CleanupWorker struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewCleanupWorker(db *gorm.DB, logger *log.Logger) *CleanupWorker {
	return &CleanupWorker{
		DB:     db,
		Logger: logger,
	}
}

func (cw *CleanupWorker) Start(ctx context.Context) {
	cw.Logger.Println("Cleanup worker started")

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	// Run once on startup so a restart does not postpone cleanup by an
	// hour.
	cw.RunOnce(time.Now())

	for {
		select {
		case <-ctx.Done():
			cw.Logger.Println("Cleanup worker shutting down...")
			return
		case <-ticker.C:
			cw.RunOnce(time.Now())
		}
	}
}

func (cw *CleanupWorker) RunOnce(now time.Time) {
	cw.deactivateExpiredCodes(now)
	cw.pruneActivity(now)
}

func (cw *CleanupWorker) deactivateExpiredCodes(now time.Time) {
	res := cw.DB.Model(&models.InvitationCode{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, now).
		Update("is_active", false)
	if res.Error != nil {
		cw.Logger.Printf("Error deactivating expired codes: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		cw.Logger.Printf("Deactivated %d expired invitation codes", res.RowsAffected)
	}
}

func (cw *CleanupWorker) pruneActivity(now time.Time) {
	retention := config.AppConfig.ActivityRetention
	if retention <= 0 {
		retention = 180 * 24 * time.Hour
	}
	cutoff := now.Add(-retention)

	res := cw.DB.Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&models.ActivityLog{})
	if res.Error != nil {
		cw.Logger.Printf("Error pruning activity log: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		cw.Logger.Printf("Pruned %d activity rows older than %s", res.RowsAffected, retention)
	}
}
