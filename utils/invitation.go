package utils

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"gorm.io/gorm"

	"classnexy/models"
)

const (
	CodeLength       = 6
	codeAlphabet     = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no 0/O/1/I, codes are read aloud
	maxCodeAttempts  = 5
	DefaultCodeUses  = 1
)

var (
	// ErrCodeInvalid covers missing, revoked, expired and exhausted codes.
	// Callers must not be able to tell which constraint was violated.
	ErrCodeInvalid = errors.New("invitation code is invalid or expired")

	// ErrAlreadyMember is distinct from ErrCodeInvalid so the caller can
	// tell the user they are already in the team.
	ErrAlreadyMember = errors.New("already a member of this team")
)

// GenerateCodeString returns a random 6-character uppercase code.
func GenerateCodeString() (string, error) {
	code := make([]byte, CodeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[num.Int64()]
	}
	return string(code), nil
}

// CreateInvitationCode persists a fresh code for the team. Uniqueness is
// enforced by the unique index on the code column; on a collision a new
// code is generated, up to maxCodeAttempts times.
func CreateInvitationCode(db *gorm.DB, teamID, createdBy uint, maxUses *int, expiresAt *time.Time) (*models.InvitationCode, error) {
	if maxUses == nil {
		maxUses = Pointer(DefaultCodeUses)
	}

	var lastErr error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := GenerateCodeString()
		if err != nil {
			return nil, err
		}

		ic := models.InvitationCode{
			TeamID:    teamID,
			Code:      code,
			CreatedBy: createdBy,
			ExpiresAt: expiresAt,
			MaxUses:   maxUses,
			UsedCount: 0,
			IsActive:  true,
		}
		if err := db.Create(&ic).Error; err != nil {
			if IsDuplicateKey(err) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return &ic, nil
	}
	return nil, lastErr
}

// RedeemInvitationCode joins userID to the code's team as a student.
// Membership insert, ledger insert and the counter increment commit as
// one transaction. The increment is a guarded conditional UPDATE so two
// racing redemptions can never push UsedCount past MaxUses: the loser's
// UPDATE matches zero rows and its whole transaction rolls back.
func RedeemInvitationCode(db *gorm.DB, code string, userID uint) (*models.InvitationCode, error) {
	now := time.Now()

	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var ic models.InvitationCode
	if err := tx.Where("code = ?", strings.ToUpper(code)).First(&ic).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeInvalid
		}
		return nil, err
	}

	if !ic.Usable(now) {
		tx.Rollback()
		return nil, ErrCodeInvalid
	}

	var existing models.TeamMembership
	if err := tx.Where("user_id = ? AND team_id = ?", userID, ic.TeamID).First(&existing).Error; err == nil {
		tx.Rollback()
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return nil, err
	}

	res := tx.Model(&models.InvitationCode{}).
		Where("id = ? AND is_active = ?", ic.ID, true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Where("max_uses IS NULL OR used_count < max_uses").
		Update("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		tx.Rollback()
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race against a concurrent redemption, or the code
		// went invalid between the read and the update.
		tx.Rollback()
		return nil, ErrCodeInvalid
	}

	if err := tx.First(&ic, ic.ID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if ic.MaxUses != nil && ic.UsedCount >= *ic.MaxUses {
		if err := tx.Model(&ic).Update("is_active", false).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		ic.IsActive = false
	}

	membership := models.TeamMembership{
		UserID: userID,
		TeamID: ic.TeamID,
		Role:   models.MembershipStudent,
	}
	if err := tx.Create(&membership).Error; err != nil {
		tx.Rollback()
		if IsDuplicateKey(err) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}

	use := models.InvitationCodeUse{
		CodeID: ic.ID,
		UserID: userID,
	}
	if err := tx.Create(&use).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &ic, nil
}

// IsDuplicateKey reports whether err is a unique-constraint violation,
// across the postgres and sqlite drivers.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
