package utils_test

import (
	"testing"

	"classnexy/models"
	"classnexy/testutil"
	"classnexy/utils"
)

func TestRecordActivity(t *testing.T) {
	db := testutil.OpenTestDB(t)
	userID := mustSeedUser(t, db, "t@example.com", models.RoleTeacher)
	teamID := mustSeedTeam(t, db, "7B")

	utils.RecordActivity(db, models.ActionGenerateCode, userID, teamID, nil, "ABC234")

	var entry models.ActivityLog
	if err := db.First(&entry).Error; err != nil {
		t.Fatalf("activity row not written: %v", err)
	}
	if entry.Action != models.ActionGenerateCode {
		t.Errorf("action = %s, want %s", entry.Action, models.ActionGenerateCode)
	}
	if entry.UserID != userID || entry.TeamID != teamID {
		t.Errorf("actor/team = %d/%d, want %d/%d", entry.UserID, entry.TeamID, userID, teamID)
	}
	if entry.Details != "ABC234" {
		t.Errorf("details = %q, want ABC234", entry.Details)
	}
}

// A broken audit sink must never propagate into the recorded operation.
func TestRecordActivity_SwallowsWriteFailure(t *testing.T) {
	db := testutil.OpenTestDB(t)

	if err := db.Migrator().DropTable(&models.ActivityLog{}); err != nil {
		t.Fatal(err)
	}

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("RecordActivity panicked: %v", r)
		}
	}()
	utils.RecordActivity(db, models.ActionRedeemCode, 1, 1, nil, "")
}
