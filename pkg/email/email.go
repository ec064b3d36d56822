package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"
)

type EmailService struct {
	apiKey    string
	from      string
	templates *template.Template
	client    *http.Client
}

type EmailData struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Html    string `json:"html"`
}

type SubscriptionStartedData struct {
	Name     string
	RenewsAt time.Time
}

type SubscriptionCancelledData struct {
	Name      string
	ActiveTil time.Time
}

func NewEmailService(apiKey string) (*EmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("error loading email templates: %v", err)
	}

	return &EmailService{
		apiKey:    apiKey,
		from:      "DayZone <noreply@dayzone.app>",
		templates: templates,
		client:    &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (s *EmailService) sendTemplateEmail(to, subject, templateName string, data interface{}) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("template execution error: %v", err)
	}

	emailData := EmailData{
		From:    s.from,
		To:      to,
		Subject: subject,
		Html:    body.String(),
	}

	payload, err := json.Marshal(emailData)
	if err != nil {
		return fmt.Errorf("email payload error: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, "https://api.resend.com/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("email request error: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("email send error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email API error (%d): %s", resp.StatusCode, string(detail))
	}

	return nil
}

func (s *EmailService) SendSubscriptionStartedEmail(to, name string, renewsAt time.Time) error {
	return s.sendTemplateEmail(to, "Welcome to DayZone Pro", "subscription_started.html", SubscriptionStartedData{
		Name:     name,
		RenewsAt: renewsAt,
	})
}

func (s *EmailService) SendSubscriptionCancelledEmail(to, name string, activeTil time.Time) error {
	return s.sendTemplateEmail(to, "Your DayZone Pro subscription has ended", "subscription_cancelled.html", SubscriptionCancelledData{
		Name:      name,
		ActiveTil: activeTil,
	})
}
