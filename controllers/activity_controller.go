package controller

import (
	"encoding/csv"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"classnexy/models"
	"classnexy/utils"
)

type ActivityController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewActivityController(db *gorm.DB, logger *log.Logger) *ActivityController {
	return &ActivityController{
		DB:     db,
		Logger: logger,
	}
}

func (ac *ActivityController) filteredQuery(c *fiber.Ctx) *gorm.DB {
	q := ac.DB.Model(&models.ActivityLog{})
	if action := c.Query("action"); action != "" {
		q = q.Where("action = ?", action)
	}
	if userID := utils.ParseUint(c.Query("user_id")); userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	if teamID := utils.ParseUint(c.Query("team_id")); teamID != 0 {
		q = q.Where("team_id = ?", teamID)
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			q = q.Where("created_at >= ?", t)
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			q = q.Where("created_at <= ?", t)
		}
	}
	return q
}

// GetActivity returns a filtered, paginated page of the audit trail,
// newest first. Admin only (route-gated).
func (ac *ActivityController) GetActivity(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit > 200 {
		limit = 200
	}
	if page < 1 {
		page = 1
	}

	var total int64
	if err := ac.filteredQuery(c).Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count activity", err)
	}

	var entries []models.ActivityLog
	err := ac.filteredQuery(c).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch activity", err)
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  entries,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

var exportHeader = []string{"ID", "Action", "User", "Announcement", "Details", "Timestamp"}

func exportRow(e models.ActivityLog) []string {
	announcement := ""
	if e.AnnouncementID != nil {
		announcement = strconv.FormatUint(uint64(*e.AnnouncementID), 10)
	}
	return []string{
		strconv.FormatUint(uint64(e.ID), 10),
		e.Action,
		strconv.FormatUint(uint64(e.UserID), 10),
		announcement,
		e.Details,
		e.CreatedAt.Format(time.RFC3339),
	}
}

// ExportActivity streams the filtered audit trail as CSV (default) or
// XLSX. Admin only (route-gated).
func (ac *ActivityController) ExportActivity(c *fiber.Ctx) error {
	var entries []models.ActivityLog
	if err := ac.filteredQuery(c).Order("created_at DESC").Find(&entries).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch activity", err)
	}

	if c.Query("format", "csv") == "xlsx" {
		return ac.exportXLSX(c, entries)
	}
	return ac.exportCSV(c, entries)
}

func (ac *ActivityController) exportCSV(c *fiber.Ctx, entries []models.ActivityLog) error {
	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", "attachment; filename=activity_export_"+time.Now().Format("20060102")+".csv")

	writer := csv.NewWriter(c)
	defer writer.Flush()

	if err := writer.Write(exportHeader); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate CSV", err)
	}
	for _, e := range entries {
		if err := writer.Write(exportRow(e)); err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate CSV", err)
		}
	}
	return nil
}

func (ac *ActivityController) exportXLSX(c *fiber.Ctx, entries []models.ActivityLog) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Activity"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate XLSX", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, title)
	}
	for row, e := range entries {
		for col, value := range exportRow(e) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=activity_export_%s.xlsx", time.Now().Format("20060102")))

	if err := f.Write(c); err != nil {
		ac.Logger.Printf("Failed to write XLSX: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate XLSX", err)
	}
	return nil
}
