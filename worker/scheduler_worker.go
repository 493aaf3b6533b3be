package worker

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	controller "classnexy/controllers"
	"classnexy/models"
)

// SchedulerWorker publishes announcements whose schedule time has
// arrived. A scheduled announcement stays invisible to feeds until this
// worker stamps published_at.
type SchedulerWorker struct {
	DB     *gorm.DB
	Feed   *controller.FeedRegistry
	Logger *log.Logger
}

func NewSchedulerWorker(db *gorm.DB, feed *controller.FeedRegistry, logger *log.Logger) *SchedulerWorker {
	return &SchedulerWorker{
		DB:     db,
		Feed:   feed,
		Logger: logger,
	}
}

func (sw *SchedulerWorker) Start(ctx context.Context) {
	sw.Logger.Println("Scheduler worker started")

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sw.Logger.Println("Scheduler worker shutting down...")
			return
		case <-ticker.C:
			sw.PublishDue(time.Now())
		}
	}
}

// PublishDue stamps published_at on every announcement whose schedule
// has passed and pushes each one to connected feed subscribers.
func (sw *SchedulerWorker) PublishDue(now time.Time) {
	var due []models.Announcement
	err := sw.DB.
		Where("schedule IS NOT NULL AND published_at IS NULL AND schedule <= ?", now).
		Find(&due).Error
	if err != nil {
		sw.Logger.Printf("Error fetching due announcements: %v", err)
		return
	}

	for _, a := range due {
		if err := sw.publishOne(a, now); err != nil {
			sw.Logger.Printf("Error publishing announcement %d: %v", a.ID, err)
		}
	}
}

func (sw *SchedulerWorker) publishOne(a models.Announcement, now time.Time) error {
	// Guard against a concurrent worker stamping the same row.
	res := sw.DB.Model(&models.Announcement{}).
		Where("id = ? AND published_at IS NULL", a.ID).
		Update("published_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}

	var recipients []models.AnnouncementRecipient
	if err := sw.DB.Where("announcement_id = ?", a.ID).Find(&recipients).Error; err != nil {
		return err
	}
	teamIDs := make([]uint, 0, len(recipients))
	for _, r := range recipients {
		teamIDs = append(teamIDs, r.TeamID)
	}

	if sw.Feed != nil {
		sw.Feed.Broadcast(controller.FeedEvent{
			AnnouncementID: a.ID,
			Importance:     a.Importance,
			TeamIDs:        teamIDs,
		})
	}

	sw.Logger.Printf("Published scheduled announcement %d to %d teams", a.ID, len(teamIDs))
	return nil
}
