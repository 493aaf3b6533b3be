package utils

import (
	"crypto/rand"
	"math/big"
	"time"

	"gorm.io/gorm"

	"classnexy/models"
)

const (
	OTPLength = 6
	OTPExpiry = 15 * time.Minute
)

func GenerateOTP() (string, error) {
	const digits = "0123456789"
	otp := make([]byte, OTPLength)

	for i := range otp {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		otp[i] = digits[num.Int64()]
	}

	return string(otp), nil
}

func SaveOTP(db *gorm.DB, userID uint, otp string) error {
	return db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"otp":            otp,
		"otp_expires_at": time.Now().Add(OTPExpiry),
		"otp_verified":   false,
	}).Error
}

// VerifyOTP checks the code against the stored one and, on a match,
// marks the account email-verified.
func VerifyOTP(db *gorm.DB, userID uint, otp string) (bool, error) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return false, err
	}

	if user.OTP == "" || user.OTP != otp || time.Now().After(user.OTPExpiresAt) {
		return false, nil
	}

	err := db.Model(&user).Updates(map[string]interface{}{
		"otp":            "",
		"otp_verified":   true,
		"email_verified": true,
	}).Error
	if err != nil {
		return false, err
	}
	return true, nil
}
