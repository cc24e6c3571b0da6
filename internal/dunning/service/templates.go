package service

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/dunning/domain"
	invoicedomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/invoice/domain"
)

var overdueTmpl = template.Must(template.New("overdue").Parse(`<html>
<body>
  <h2>Invoice overdue</h2>
  <p>Hi,</p>
  <p>The invoice <strong>{{.InvoiceID}}</strong> for <strong>{{.OrgName}}</strong>
  of <strong>{{.Amount}} {{.Currency}}</strong> was due on <strong>{{.DueDate}}</strong>
  and is still unpaid.</p>
  {{if .HostedInvoiceURL}}<p><a href="{{.HostedInvoiceURL}}">Pay the invoice</a></p>{{end}}
  <p>Please settle it as soon as possible to keep your subscription active.</p>
</body>
</html>`))

var upcomingTmpl = template.Must(template.New("upcoming").Parse(`<html>
<body>
  <h2>Invoice due soon</h2>
  <p>Hi,</p>
  <p>The invoice <strong>{{.InvoiceID}}</strong> for <strong>{{.OrgName}}</strong>
  of <strong>{{.Amount}} {{.Currency}}</strong> is due on <strong>{{.DueDate}}</strong>.</p>
  {{if .HostedInvoiceURL}}<p><a href="{{.HostedInvoiceURL}}">View the invoice</a></p>{{end}}
</body>
</html>`))

type noticeData struct {
	OrgName          string
	InvoiceID        string
	Amount           string
	Currency         string
	DueDate          string
	HostedInvoiceURL string
}

// formatMinorUnits renders integer minor currency units as a decimal amount.
func formatMinorUnits(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// renderNotice produces subject and HTML body for one notice.
func renderNotice(kind domain.Kind, inv invoicedomain.Invoice, orgName string) (string, string, error) {
	data := noticeData{
		OrgName:   orgName,
		InvoiceID: inv.StripeInvoiceID,
		Amount:    formatMinorUnits(inv.Outstanding()),
		Currency:  inv.Currency,
	}
	if inv.DueDate != nil {
		data.DueDate = inv.DueDate.UTC().Format("2 January 2006")
	}
	if inv.HostedInvoiceURL != nil {
		data.HostedInvoiceURL = *inv.HostedInvoiceURL
	}

	tmpl := upcomingTmpl
	subject := fmt.Sprintf("Invoice %s due on %s", inv.StripeInvoiceID, data.DueDate)
	if kind == domain.KindOverdue {
		tmpl = overdueTmpl
		subject = fmt.Sprintf("Invoice %s is overdue", inv.StripeInvoiceID)
	}

	var body strings.Builder
	if err := tmpl.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("render %s notice: %w", kind, err)
	}
	return subject, body.String(), nil
}

// startOfUTCDay truncates to midnight UTC, the dedupe window boundary.
func startOfUTCDay(at time.Time) time.Time {
	at = at.UTC()
	return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
}
