package email

import (
	"fmt"

	"github.com/spectra-metals/spectra-server/internal/config"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Sender delivers transactional mail over SMTP.
type Sender struct {
	host     string
	port     int
	username string
	password string
	from     string
	logger   *zap.Logger
}

// NewSender creates a Sender from SMTP config.
func NewSender(cfg *config.SMTPConfig, logger *zap.Logger) *Sender {
	return &Sender{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		logger:   logger,
	}
}

// Send delivers one HTML email.
func (s *Sender) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.from, "Spectra Metals"))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(s.host, s.port, s.username, s.password)

	if err := d.DialAndSend(m); err != nil {
		s.logger.Error("Failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Debug("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// SendOTP delivers the one-time verification code used by the sell flow.
func (s *Sender) SendOTP(to, code string) error {
	subject := "Your Spectra Metals verification code"
	return s.Send(to, subject, otpHTML(code))
}

func otpHTML(code string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1.0" />
	<title>Verification code</title>
</head>
<body style="margin: 0; padding: 0; font-family: Arial, Helvetica, sans-serif; background-color: #f7f9fc;">
	<table align="center" border="0" cellpadding="0" cellspacing="0" width="600" style="border-collapse: collapse; background-color: #ffffff;">
		<tr>
			<td align="center" style="padding: 30px 0; background-color: #1a1a2e; color: #d4af37;">
				<h1 style="margin: 0; font-size: 24px;">Spectra Metals</h1>
			</td>
		</tr>
		<tr>
			<td style="padding: 40px 30px; color: #333333; font-size: 16px; line-height: 1.6;">
				<p style="margin-top: 0;">Use the code below to verify your email address:</p>
				<table align="center" border="0" cellpadding="0" cellspacing="0" style="border-collapse: collapse;">
					<tr>
						<td align="center" style="background-color: #f3f5ff; border: 1px solid #e1e5ff; border-radius: 8px; padding: 15px 40px;">
							<span style="color: #1a1a2e; font-size: 24px; font-weight: bold; letter-spacing: 4px;">%s</span>
						</td>
					</tr>
				</table>
				<p style="margin-top: 20px;">This code expires in 10 minutes.</p>
				<p style="margin-bottom: 0;">If you did not request it, you can safely ignore this email.</p>
			</td>
		</tr>
	</table>
</body>
</html>`, code)
}
