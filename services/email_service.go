package services

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"net/smtp"

	"procurement/models"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// EmailService sends plain-text notification mail for comparison submissions
// and approval decisions. Notifications are best-effort: callers log failures
// and never block a lifecycle transition on them.
type EmailService struct {
	host string
	port string
	user string
	pass string
	from string
}

// NewEmailService reads the SMTP configuration from the environment
// (SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASSWORD, SMTP_FROM).
func NewEmailService() *EmailService {
	return &EmailService{
		host: os.Getenv("SMTP_HOST"),
		port: os.Getenv("SMTP_PORT"),
		user: os.Getenv("SMTP_USER"),
		pass: os.Getenv("SMTP_PASSWORD"),
		from: os.Getenv("SMTP_FROM"),
	}
}

// ValidateEmailAddress checks basic address shape before attempting a send.
func ValidateEmailAddress(address string) bool {
	return emailPattern.MatchString(address)
}

// SendComparisonSubmitted notifies the approver that a comparison awaits a
// decision.
func (es *EmailService) SendComparisonSubmitted(to string, cmp *models.QuotationComparison) error {
	subject := fmt.Sprintf("Quotation comparison %s submitted for approval", cmp.ID)
	body := fmt.Sprintf(
		"A quotation comparison for PR #%d was submitted on %s.\n\n"+
			"Selected quotation: %d\nSelected supplier: %d\nReason: %s\n\n"+
			"Please review and record your decision.",
		cmp.PRID, time.Now().Format("02 Jan 2006"),
		cmp.SelectedQuotationID, cmp.SelectedSupplierID, cmp.SelectionReason,
	)
	return es.sendEmail(to, subject, body)
}

// SendDecisionNotice notifies the buyer of the approval outcome.
func (es *EmailService) SendDecisionNotice(to string, cmp *models.QuotationComparison, decision string) error {
	subject := fmt.Sprintf("Quotation comparison %s was %s", cmp.ID, strings.ToLower(decision))
	body := fmt.Sprintf(
		"The quotation comparison for PR #%d has been %s.\n\n"+
			"Selected quotation: %d\nReason: %s\n",
		cmp.PRID, strings.ToLower(decision),
		cmp.SelectedQuotationID, cmp.SelectionReason,
	)
	if decision == models.ApprovalDecisionApproved {
		body += "\nYou can now raise the purchase order from the comparison screen."
	}
	return es.sendEmail(to, subject, body)
}

func (es *EmailService) sendEmail(to, subject, body string) error {
	if !ValidateEmailAddress(to) {
		return fmt.Errorf("invalid recipient address: %s", to)
	}
	if es.host == "" {
		return fmt.Errorf("SMTP_HOST is not configured")
	}

	auth := smtp.PlainAuth("", es.user, es.pass, es.host)

	headers := []string{
		"From: " + es.from,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}
	msg := []byte(strings.Join(headers, "\r\n") + "\r\n")

	return smtp.SendMail(es.host+":"+es.port, auth, es.from, []string{to}, msg)
}
