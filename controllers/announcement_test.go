package controller_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"classnexy/models"
	"classnexy/testutil"
)

func TestSendAnnouncement_FanOut(t *testing.T) {
	db := testutil.OpenTestDB(t)
	teacher := seedUser(t, db, "t@example.com", models.RoleTeacher)
	teamA := seedTeam(t, db, "7A")
	teamB := seedTeam(t, db, "7B")
	seedMembership(t, db, teacher.ID, teamA.ID, models.MembershipTeacher)
	seedMembership(t, db, teacher.ID, teamB.ID, models.MembershipTeacher)

	app, _ := newTestApp(db, teacher)
	resp := doJSON(t, app, "POST", "/announcements", map[string]interface{}{
		"content":    "Exam moved to Friday",
		"team_ids":   []uint{teamA.ID, teamB.ID},
		"importance": models.ImportanceHigh,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var announcement models.Announcement
	if err := db.First(&announcement).Error; err != nil {
		t.Fatalf("announcement not written: %v", err)
	}
	if announcement.PublishedAt == nil {
		t.Error("unscheduled announcement should be published immediately")
	}
	if announcement.Importance != models.ImportanceHigh {
		t.Errorf("importance = %s, want %s", announcement.Importance, models.ImportanceHigh)
	}

	var recipients int64
	db.Model(&models.AnnouncementRecipient{}).Where("announcement_id = ?", announcement.ID).Count(&recipients)
	if recipients != 2 {
		t.Errorf("recipient rows = %d, want 2", recipients)
	}

	// One audit entry per target team.
	var activities int64
	db.Model(&models.ActivityLog{}).Where("action = ?", models.ActionSendAnnouncement).Count(&activities)
	if activities != 2 {
		t.Errorf("activity rows = %d, want 2", activities)
	}
}

// A sender without rights on any one target team gets a full rejection
// with zero rows written.
func TestSendAnnouncement_PartialAuthRejectsAll(t *testing.T) {
	db := testutil.OpenTestDB(t)
	teacher := seedUser(t, db, "t@example.com", models.RoleTeacher)
	mine := seedTeam(t, db, "7A")
	other := seedTeam(t, db, "7B")
	seedMembership(t, db, teacher.ID, mine.ID, models.MembershipTeacher)

	app, _ := newTestApp(db, teacher)
	resp := doJSON(t, app, "POST", "/announcements", map[string]interface{}{
		"content":  "hello",
		"team_ids": []uint{mine.ID, other.ID},
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}

	var announcements, recipients int64
	db.Model(&models.Announcement{}).Count(&announcements)
	db.Model(&models.AnnouncementRecipient{}).Count(&recipients)
	if announcements != 0 || recipients != 0 {
		t.Errorf("rows written on rejection: %d announcements, %d recipients", announcements, recipients)
	}
}

// A student membership is not enough to send, even to their own team.
func TestSendAnnouncement_StudentForbidden(t *testing.T) {
	db := testutil.OpenTestDB(t)
	student := seedUser(t, db, "s@example.com", models.RoleStudent)
	team := seedTeam(t, db, "7A")
	seedMembership(t, db, student.ID, team.ID, models.MembershipStudent)

	app, _ := newTestApp(db, student)
	resp := doJSON(t, app, "POST", "/announcements", map[string]interface{}{
		"content":  "hello",
		"team_ids": []uint{team.ID},
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestSendAnnouncement_ScheduleMustBeFuture(t *testing.T) {
	db := testutil.OpenTestDB(t)
	teacher := seedUser(t, db, "t@example.com", models.RoleTeacher)
	team := seedTeam(t, db, "7A")
	seedMembership(t, db, teacher.ID, team.ID, models.MembershipTeacher)

	app, _ := newTestApp(db, teacher)
	resp := doJSON(t, app, "POST", "/announcements", map[string]interface{}{
		"content":  "hello",
		"team_ids": []uint{team.ID},
		"schedule": time.Now().Add(-time.Hour).Format(time.RFC3339),
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestScheduledAnnouncementHiddenFromFeeds(t *testing.T) {
	db := testutil.OpenTestDB(t)
	teacher := seedUser(t, db, "t@example.com", models.RoleTeacher)
	team := seedTeam(t, db, "7A")
	seedMembership(t, db, teacher.ID, team.ID, models.MembershipTeacher)

	app, _ := newTestApp(db, teacher)
	resp := doJSON(t, app, "POST", "/announcements", map[string]interface{}{
		"content":  "Not yet",
		"team_ids": []uint{team.ID},
		"schedule": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var body struct {
		Data []models.Announcement `json:"data"`
	}
	feedResp := doJSON(t, app, "GET", "/announcements/feed", nil)
	if err := json.NewDecoder(feedResp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 0 {
		t.Errorf("scheduled announcement visible in user feed before release: %d entries", len(body.Data))
	}

	teamResp := doJSON(t, app, "GET", fmt.Sprintf("/announcements/team/%d", team.ID), nil)
	body.Data = nil
	if err := json.NewDecoder(teamResp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 0 {
		t.Errorf("scheduled announcement visible in team feed before release: %d entries", len(body.Data))
	}
}

// A user in several recipient teams of one announcement sees it once.
func TestUserFeed_Deduplicates(t *testing.T) {
	db := testutil.OpenTestDB(t)
	teacher := seedUser(t, db, "t@example.com", models.RoleTeacher)
	teamA := seedTeam(t, db, "7A")
	teamB := seedTeam(t, db, "7B")
	seedMembership(t, db, teacher.ID, teamA.ID, models.MembershipTeacher)
	seedMembership(t, db, teacher.ID, teamB.ID, models.MembershipTeacher)

	app, _ := newTestApp(db, teacher)
	resp := doJSON(t, app, "POST", "/announcements", map[string]interface{}{
		"content":  "Both teams",
		"team_ids": []uint{teamA.ID, teamB.ID},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var body struct {
		Data []models.Announcement `json:"data"`
	}
	feedResp := doJSON(t, app, "GET", "/announcements/feed", nil)
	if err := json.NewDecoder(feedResp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 1 {
		t.Errorf("feed entries = %d, want 1", len(body.Data))
	}
}

func TestReassign_FullReplace(t *testing.T) {
	db := testutil.OpenTestDB(t)
	teacher := seedUser(t, db, "t@example.com", models.RoleTeacher)
	teamA := seedTeam(t, db, "7A")
	teamB := seedTeam(t, db, "7B")
	teamC := seedTeam(t, db, "7C")
	seedMembership(t, db, teacher.ID, teamA.ID, models.MembershipTeacher)
	seedMembership(t, db, teacher.ID, teamB.ID, models.MembershipTeacher)

	app, _ := newTestApp(db, teacher)
	resp := doJSON(t, app, "POST", "/announcements", map[string]interface{}{
		"content":  "Moving target",
		"team_ids": []uint{teamA.ID, teamB.ID},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var announcement models.Announcement
	if err := db.First(&announcement).Error; err != nil {
		t.Fatal(err)
	}

	resp = doJSON(t, app, "PUT", fmt.Sprintf("/announcements/%d/recipients", announcement.ID), map[string]interface{}{
		"team_ids": []uint{teamC.ID},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var recipients []models.AnnouncementRecipient
	if err := db.Where("announcement_id = ?", announcement.ID).Find(&recipients).Error; err != nil {
		t.Fatal(err)
	}
	if len(recipients) != 1 || recipients[0].TeamID != teamC.ID {
		t.Errorf("recipients after reassign = %v, want exactly team %d", recipients, teamC.ID)
	}
}

func TestUpdate_UsesPathID(t *testing.T) {
	db := testutil.OpenTestDB(t)
	teacher := seedUser(t, db, "t@example.com", models.RoleTeacher)
	team := seedTeam(t, db, "7A")
	seedMembership(t, db, teacher.ID, team.ID, models.MembershipTeacher)

	app, _ := newTestApp(db, teacher)
	for _, content := range []string{"first", "second"} {
		resp := doJSON(t, app, "POST", "/announcements", map[string]interface{}{
			"content":  content,
			"team_ids": []uint{team.ID},
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want 201", resp.StatusCode)
		}
	}
	var announcements []models.Announcement
	if err := db.Order("id").Find(&announcements).Error; err != nil {
		t.Fatal(err)
	}
	if len(announcements) != 2 {
		t.Fatalf("announcements = %d, want 2", len(announcements))
	}

	// A stale id in the body must not redirect the edit away from the
	// announcement named in the URL.
	resp := doJSON(t, app, "PUT", fmt.Sprintf("/announcements/%d", announcements[0].ID), map[string]interface{}{
		"id":      announcements[1].ID,
		"content": "edited",
		"team_id": team.ID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var first, second models.Announcement
	if err := db.First(&first, announcements[0].ID).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.First(&second, announcements[1].ID).Error; err != nil {
		t.Fatal(err)
	}
	if first.Content != "edited" {
		t.Errorf("addressed announcement content = %q, want %q", first.Content, "edited")
	}
	if second.Content != "second" {
		t.Errorf("other announcement content = %q, want untouched %q", second.Content, "second")
	}
}

func TestUpdate_UnknownIDNotFound(t *testing.T) {
	db := testutil.OpenTestDB(t)
	teacher := seedUser(t, db, "t@example.com", models.RoleTeacher)
	team := seedTeam(t, db, "7A")
	seedMembership(t, db, teacher.ID, team.ID, models.MembershipTeacher)

	app, _ := newTestApp(db, teacher)
	resp := doJSON(t, app, "PUT", "/announcements/9999", map[string]interface{}{
		"content": "edited",
		"team_id": team.ID,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDelete_NonSenderForbidden(t *testing.T) {
	db := testutil.OpenTestDB(t)
	sender := seedUser(t, db, "t1@example.com", models.RoleTeacher)
	other := seedUser(t, db, "t2@example.com", models.RoleTeacher)
	team := seedTeam(t, db, "7A")
	seedMembership(t, db, sender.ID, team.ID, models.MembershipTeacher)
	seedMembership(t, db, other.ID, team.ID, models.MembershipTeacher)

	senderApp, _ := newTestApp(db, sender)
	resp := doJSON(t, senderApp, "POST", "/announcements", map[string]interface{}{
		"content":  "Mine",
		"team_ids": []uint{team.ID},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var announcement models.Announcement
	if err := db.First(&announcement).Error; err != nil {
		t.Fatal(err)
	}

	otherApp, _ := newTestApp(db, other)
	resp = doJSON(t, otherApp, "DELETE", fmt.Sprintf("/announcements/%d", announcement.ID), nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestBulkDelete_RemovesExactRows(t *testing.T) {
	db := testutil.OpenTestDB(t)
	teacher := seedUser(t, db, "t@example.com", models.RoleTeacher)
	team := seedTeam(t, db, "7A")
	seedMembership(t, db, teacher.ID, team.ID, models.MembershipTeacher)

	app, _ := newTestApp(db, teacher)
	ids := make([]uint, 0, 3)
	for i := 0; i < 3; i++ {
		resp := doJSON(t, app, "POST", "/announcements", map[string]interface{}{
			"content":  fmt.Sprintf("note %d", i),
			"team_ids": []uint{team.ID},
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want 201", resp.StatusCode)
		}
	}
	var all []models.Announcement
	if err := db.Find(&all).Error; err != nil {
		t.Fatal(err)
	}
	for _, a := range all[:2] {
		ids = append(ids, a.ID)
	}
	kept := all[2].ID

	resp := doJSON(t, app, "POST", "/announcements/bulk-delete", map[string]interface{}{"ids": ids})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var remaining []models.Announcement
	if err := db.Find(&remaining).Error; err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 || remaining[0].ID != kept {
		t.Errorf("remaining announcements = %v, want only %d", remaining, kept)
	}

	var orphaned int64
	db.Model(&models.AnnouncementRecipient{}).Where("announcement_id IN ?", ids).Count(&orphaned)
	if orphaned != 0 {
		t.Errorf("%d recipient rows left after delete", orphaned)
	}
}
