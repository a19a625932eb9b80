package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"github.com/linkup-app/backend/internal/logger"
	"github.com/linkup-app/backend/internal/metrics"
)

// Sender delivers transactional email through SES.
//
// Delivery is best effort: callers log failures and move on, a broken
// email pipeline must never fail a signup or password reset request.
type Sender struct {
	client      *ses.Client
	fromAddress string
	frontendURL string
}

// NewSender creates an SES email sender. An empty fromAddress disables
// sending and every call becomes a logged no-op.
func NewSender(ctx context.Context, region, fromAddress, frontendURL string) (*Sender, error) {
	if fromAddress == "" {
		logger.Log.Warn("Email sender disabled, no from address configured")
		return &Sender{frontendURL: frontendURL}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Sender{
		client:      ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		frontendURL: frontendURL,
	}, nil
}

// Enabled reports whether the sender has a working SES client
func (s *Sender) Enabled() bool {
	return s.client != nil
}

// SendWelcome sends the post-registration welcome email
func (s *Sender) SendWelcome(ctx context.Context, to, displayName string) error {
	subject := "Welcome to LinkUp"
	htmlBody := fmt.Sprintf(`
		<h2>Welcome, %s!</h2>
		<p>Your account is ready. Find people you know and start sharing.</p>
		<p><a href="%s">Open LinkUp</a></p>
	`, displayName, s.frontendURL)
	textBody := fmt.Sprintf("Welcome, %s! Your account is ready: %s", displayName, s.frontendURL)

	return s.send(ctx, "welcome", to, subject, htmlBody, textBody)
}

// SendPasswordReset sends the reset link for a requested password reset
func (s *Sender) SendPasswordReset(ctx context.Context, to, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)
	subject := "Reset your LinkUp password"
	htmlBody := fmt.Sprintf(`
		<h2>Password reset</h2>
		<p>Someone requested a password reset for your account. The link
		expires in one hour. If this wasn't you, ignore this email.</p>
		<p><a href="%s">Reset password</a></p>
	`, resetURL)
	textBody := fmt.Sprintf("Reset your password (link expires in one hour): %s", resetURL)

	return s.send(ctx, "password_reset", to, subject, htmlBody, textBody)
}

func (s *Sender) send(ctx context.Context, kind, to, subject, htmlBody, textBody string) error {
	m := metrics.Get()

	if !s.Enabled() {
		logger.Log.Info("Email sending skipped, sender disabled",
			zap.String("kind", kind),
			zap.String("to", to),
		)
		m.EmailDeliveriesTotal.WithLabelValues(kind, "skipped").Inc()
		return nil
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
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
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		m.EmailDeliveriesTotal.WithLabelValues(kind, "failed").Inc()
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}

	m.EmailDeliveriesTotal.WithLabelValues(kind, "sent").Inc()
	logger.Log.Info("Email sent",
		zap.String("kind", kind),
		zap.String("to", to),
	)
	return nil
}
