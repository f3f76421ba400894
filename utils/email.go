// utils/email.go
package utils

import (
	"fmt"

	"github.com/keighl/postmark"
)

// Mailer sends transactional emails to customers
type Mailer interface {
	SendWelcomeEmail(toEmail, username string) error
}

// EmailService handles sending emails using Postmark
type EmailService struct {
	client *postmark.Client
	sender string
}

// NewEmailService initializes an EmailService for the given Postmark server token
func NewEmailService(apiToken, sender string) *EmailService {
	return &EmailService{
		client: postmark.NewClient(apiToken, ""),
		sender: sender,
	}
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(toEmail, subject, htmlContent, textContent string) error {
	_, err := es.client.SendEmail(postmark.Email{
		From:     es.sender,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: textContent,
		Tag:      "storefront",
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendWelcomeEmail greets a newly registered user
func (es *EmailService) SendWelcomeEmail(toEmail, username string) error {
	subject := "Welcome to the store"
	html := fmt.Sprintf("<strong>Hi %s,</strong><br><br>Your account is ready. Happy shopping!", username)
	text := fmt.Sprintf("Hi %s,\n\nYour account is ready. Happy shopping!\n", username)
	return es.SendEmail(toEmail, subject, html, text)
}

// NopMailer drops every email. It is used when no Postmark token is configured.
type NopMailer struct{}

func (NopMailer) SendWelcomeEmail(string, string) error { return nil }
