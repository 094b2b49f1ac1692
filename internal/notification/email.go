// Package notification delivers results emails over SMTP and records
// every delivery attempt in the email log.
package notification

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/k3a/html2text"
	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/microscan/microscan-go/internal/conf"
	"github.com/microscan/microscan-go/internal/datastore"
	"github.com/microscan/microscan-go/internal/errors"
	"github.com/microscan/microscan-go/internal/logging"
)

const maxSummaryLen = 500

// EmailNotifier sends detection results to a recipient over SMTP.
type EmailNotifier struct {
	settings *conf.Settings
	ds       datastore.Interface
	log      *slog.Logger
}

// NewEmailNotifier creates a notifier bound to the given store for
// delivery logging.
func NewEmailNotifier(settings *conf.Settings, ds datastore.Interface) *EmailNotifier {
	return &EmailNotifier{
		settings: settings,
		ds:       ds,
		log:      logging.ForService("notification"),
	}
}

// Enabled reports whether email delivery is configured.
func (n *EmailNotifier) Enabled() bool {
	return n.settings.Email.Enabled
}

// SendResults emails the detection results to the recipient and appends
// an email log row describing the outcome. The returned error reflects
// delivery only; log persistence failures are logged and swallowed.
func (n *EmailNotifier) SendResults(recipient string, detection *datastore.Detection) error {
	if !n.Enabled() {
		return errors.Newf("email delivery is not enabled").
			Component("notification").
			Category(errors.CategoryNotification).
			Build()
	}

	organisms := detection.Organisms()
	sendErr := n.deliver(recipient, detection)

	entry := &datastore.EmailLog{
		Recipient:   recipient,
		DetectionID: fmt.Sprintf("%d", detection.ID),
		SentAt:      time.Now(),
	}
	if sendErr != nil {
		entry.Status = datastore.EmailStatusFailed
		entry.ResultSummary = truncate(sendErr.Error(), maxSummaryLen)
	} else {
		entry.Status = datastore.EmailStatusSent
		entry.ResultSummary = fmt.Sprintf("Sent results for %d organisms", len(organisms))
	}

	if err := n.ds.SaveEmailLog(entry); err != nil {
		n.log.Error("failed to save email log",
			"detection_id", detection.ID,
			"recipient", recipient,
			"error", err)
	}

	if sendErr != nil {
		n.log.Error("results email delivery failed",
			"detection_id", detection.ID,
			"recipient", recipient,
			"error", sendErr)
		return errors.New(sendErr).
			Component("notification").
			Category(errors.CategoryNotification).
			Context("recipient_domain", domainOf(recipient)).
			Build()
	}

	n.log.Info("results email sent",
		"detection_id", detection.ID,
		"recipient", recipient,
		"organisms", len(organisms))
	return nil
}

// deliver performs the SMTP send through shoutrrr.
func (n *EmailNotifier) deliver(recipient string, detection *datastore.Detection) error {
	sender, err := shoutrrr.CreateSender(n.smtpURL(recipient))
	if err != nil {
		return fmt.Errorf("creating SMTP sender: %w", err)
	}
	if n.settings.Email.Timeout > 0 {
		sender.Timeout = n.settings.Email.Timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))

	body := n.htmlBody(detection)
	params := stypes.Params{}
	params.SetTitle(fmt.Sprintf("Water Analysis Results - Detection #%d", detection.ID))

	errs := sender.Send(body, &params)
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// smtpURL composes the shoutrrr SMTP service URL from the settings.
func (n *EmailNotifier) smtpURL(recipient string) string {
	cfg := n.settings.Email

	var sb strings.Builder
	sb.WriteString("smtp://")
	if cfg.Username != "" {
		sb.WriteString(url.QueryEscape(cfg.Username))
		sb.WriteString(":")
		sb.WriteString(url.QueryEscape(cfg.Password))
		sb.WriteString("@")
	}
	fmt.Fprintf(&sb, "%s:%d/", cfg.SMTPHost, cfg.SMTPPort)

	query := url.Values{}
	query.Set("from", cfg.From)
	query.Set("to", recipient)
	query.Set("usehtml", "yes")
	if cfg.UseTLS {
		query.Set("usestarttls", "yes")
	} else {
		query.Set("usestarttls", "no")
	}
	sb.WriteString("?")
	sb.WriteString(query.Encode())

	return sb.String()
}

// htmlBody renders the results email. The layout mirrors the dashboard
// detail view: organisms with confidence first, then usage guidance.
func (n *EmailNotifier) htmlBody(detection *datastore.Detection) string {
	organisms := detection.Organisms()
	rec, hasRec := detection.Recommendations()

	var sb strings.Builder
	sb.WriteString("<html><body>")
	sb.WriteString("<h2>Water Analysis Results</h2>")
	if detection.Name != "" {
		fmt.Fprintf(&sb, "<p>Hello %s,</p>", detection.Name)
	}
	fmt.Fprintf(&sb, "<p>Analysis of <b>%s</b> is complete. %d microorganism(s) were detected.</p>",
		detection.Filename, len(organisms))

	if len(organisms) > 0 {
		sb.WriteString("<h3>Detected Organisms</h3><ul>")
		for i := range organisms {
			org := &organisms[i]
			fmt.Fprintf(&sb, "<li><b>%s</b> (<i>%s</i>) - %.0f%% confidence, %s risk</li>",
				org.Name, org.ScientificName, org.Confidence*100, org.Risk)
		}
		sb.WriteString("</ul>")
	}

	if hasRec {
		fmt.Fprintf(&sb, "<h3>Water Usage Guidance</h3><p>Overall risk level: <b>%s</b></p>", rec.RiskLevel)
		writeUses := func(title string, uses []string) {
			if len(uses) == 0 {
				return
			}
			fmt.Fprintf(&sb, "<p><b>%s</b></p><ul>", title)
			for _, use := range uses {
				fmt.Fprintf(&sb, "<li>%s</li>", use)
			}
			sb.WriteString("</ul>")
		}
		writeUses("Not safe for", rec.UnsafeUses)
		writeUses("Safe for", rec.SafeUses)
		writeUses("Recommended treatment", rec.TreatmentRequired)
	}

	if n.settings.Email.DashboardURL != "" {
		fmt.Fprintf(&sb, `<p><a href="%s/detection/%d">View full results</a></p>`,
			strings.TrimRight(n.settings.Email.DashboardURL, "/"), detection.ID)
	}

	sb.WriteString("</body></html>")
	return sb.String()
}

// PlainSummary renders the email body as plain text, used for logging
// and previews.
func (n *EmailNotifier) PlainSummary(detection *datastore.Detection) string {
	return html2text.HTML2Text(n.htmlBody(detection))
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func domainOf(address string) string {
	if i := strings.LastIndex(address, "@"); i >= 0 && i < len(address)-1 {
		return address[i+1:]
	}
	return "unknown"
}
