package services

import (
	"fmt"
	"os"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"linkmonitor/models"
)

// AlertFields is the template data carried by an outage alert email.
type AlertFields struct {
	LinkID      string
	IPAddress   string
	TicketNo    string
	ProjectName string
}

// Notifier delivers one alert email. Delivery is best effort; the engine
// only logs failures.
type Notifier interface {
	Send(to, subject string, fields AlertFields) error
}

// AlertMailer sends outage alerts through SendGrid.
type AlertMailer struct {
	apiKey string
	from   string
}

// NewAlertMailerFromEnv reads SENDGRID_API_KEY and EMAIL_FROM. Returns nil
// when either is unset, in which case alerting is silently disabled.
func NewAlertMailerFromEnv() *AlertMailer {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	from := os.Getenv("EMAIL_FROM")
	if apiKey == "" || from == "" {
		return nil
	}
	return &AlertMailer{apiKey: apiKey, from: from}
}

func (m *AlertMailer) Send(to, subject string, fields AlertFields) error {
	ticketNo := fields.TicketNo
	if ticketNo == "" {
		ticketNo = "N/A"
	}

	body := fmt.Sprintf(`Project ID : %s
Link ID : %s
IP Address 1 : %s
Ticket No : %s
Date : %s
Problem Code : LINK DOWN
Ticket Status : Pending
Created by : CRM
Description : Auto ticketing system`,
		fields.ProjectName,
		fields.LinkID,
		fields.IPAddress,
		ticketNo,
		time.Now().Format(models.DisplayTimeFormat),
	)

	from := mail.NewEmail("LinkMonitor", m.from)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, body, body)
	client := sendgrid.NewSendClient(m.apiKey)

	resp, err := client.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid status %d", resp.StatusCode)
	}
	return nil
}
