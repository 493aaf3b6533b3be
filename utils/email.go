package utils

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"classnexy/config"
)

// SendOTPEmail sends a signup verification code. Skipped silently when
// SMTP is not configured (local development).
func SendOTPEmail(to, otp string) error {
	if config.AppConfig.SMTPHost == "" {
		return nil
	}

	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Your Verification Code</h2>
			<p>Please use the following code to verify your account:</p>
			<h3>%s</h3>
			<p>This code will expire in 15 minutes.</p>
		</body>
		</html>
	`, otp)

	m := gomail.NewMessage()
	m.SetHeader("From", config.AppConfig.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your Verification Code")
	m.SetBody("text/html", body)

	d := gomail.NewDialer(
		config.AppConfig.SMTPHost,
		config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUsername,
		config.AppConfig.SMTPPassword,
	)
	return d.DialAndSend(m)
}
