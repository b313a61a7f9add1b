package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService sends transactional email via Amazon SES. When no sender
// address is configured the service runs disabled and skips every send.
type EmailService struct {
	client       *sesv2.Client
	fromEmail    string
	fromName     string
	appBaseURL   string
	linkLifetime time.Duration
	enabled      bool
	debug        bool
}

// NewEmailService creates a new email service. linkLifetime is how long a
// mailed reset link stays valid; the wording in the email is derived from it.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, linkLifetime time.Duration, debug bool) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		if debug {
			log.Println("[DEBUG] Email service will skip sending all emails")
		}
		return &EmailService{enabled: false, debug: debug}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing email service with AWS SES")
		log.Printf("[DEBUG] AWS Region: %s", awsRegion)
		log.Printf("[DEBUG] From Email: %s", fromEmail)
		log.Printf("[DEBUG] From Name: %s", fromName)
		log.Printf("[DEBUG] App Base URL: %s", appBaseURL)
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:       sesv2.NewFromConfig(cfg),
		fromEmail:    fromEmail,
		fromName:     fromName,
		appBaseURL:   appBaseURL,
		linkLifetime: linkLifetime,
		enabled:      true,
		debug:        debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendPasswordResetEmail sends a password reset email carrying the reset
// link for the given token
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetToken string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): password reset to %s", toEmail)
		return nil
	}

	if s.debug {
		log.Printf("[DEBUG] SendPasswordResetEmail called: to=%s, name=%s", toEmail, toName)
	}

	resetLink := fmt.Sprintf("%s/reset_password/%s", s.appBaseURL, resetToken)
	expiry := formatLifetime(s.linkLifetime)

	subject := "Password Reset Request"
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body>
	<p>Hi %s,</p>
	<p>We received a request to reset the password for your CodeCourse account.</p>
	<p><a href="%s">Reset your password</a></p>
	<p>Or copy and paste this link into your browser:</p>
	<p>%s</p>
	<p><strong>This link will expire in %s.</strong></p>
	<p>If you did not make this request then simply ignore this email and no changes will be made.</p>
</body>
</html>
`, toName, resetLink, resetLink, expiry)

	textBody := fmt.Sprintf(`Hi %s,

To reset your password, visit the following link:
%s

This link will expire in %s.

If you did not make this request then simply ignore this email and no changes will be made.
`, toName, resetLink, expiry)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// formatLifetime renders a token lifetime for the email body: whole hours
// as hours, anything else as minutes
func formatLifetime(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		if hours := int(d / time.Hour); hours != 1 {
			return fmt.Sprintf("%d hours", hours)
		}
		return "1 hour"
	}
	if minutes := int(d / time.Minute); minutes != 1 {
		return fmt.Sprintf("%d minutes", minutes)
	}
	return "1 minute"
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	log.Printf("Email sent: to=%s, subject=%s", toEmail, subject)
	return nil
}
