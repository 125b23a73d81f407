package email

import (
	"fmt"
	"html"

	"leaddesk/internal/audit"
	"leaddesk/internal/config"
)

const siteTitle = "Lead Desk"

// Templates provides email template generation.
type Templates struct {
	cfg *config.Config
}

// NewTemplates creates a new templates instance.
func NewTemplates(cfg *config.Config) *Templates {
	return &Templates{cfg: cfg}
}

// baseHTML wraps content in a consistent HTML email template.
func (t *Templates) baseHTML(title, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #b91c1c; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
        .footer { background: #f3f4f6; padding: 15px; text-align: center; font-size: 12px; color: #6b7280; border-radius: 0 0 8px 8px; border: 1px solid #e5e7eb; border-top: none; }
        .info-box { background: white; border: 1px solid #e5e7eb; border-radius: 6px; padding: 15px; margin: 15px 0; }
        .label { font-weight: 600; color: #374151; }
        .error { color: #dc2626; }
        code { background: #e5e7eb; padding: 2px 6px; border-radius: 4px; font-family: monospace; }
    </style>
</head>
<body>
    <div class="header">
        <h1>%s</h1>
    </div>
    <div class="content">
        %s
    </div>
    <div class="footer">
        <p>This email was sent by %s</p>
        <p><a href="%s">%s</a></p>
    </div>
</body>
</html>`, html.EscapeString(title), siteTitle, content, siteTitle, html.EscapeString(t.cfg.BaseURL), html.EscapeString(t.cfg.BaseURL))
}

// AnomalyAlert generates the supervisor alert for a high-frequency audit entry.
func (t *Templates) AnomalyAlert(e audit.Entry, minInterval string) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] High-frequency activity by %s", siteTitle, e.Actor)
	at := e.Time.Format(audit.TimeLayout)

	content := fmt.Sprintf(`
        <p>An operator acted faster than the minimum interval of %s.</p>

        <div class="info-box">
            <p><span class="label">Operator:</span> <code>%s</code></p>
            <p><span class="label">Action:</span> %s</p>
            <p><span class="label">Target:</span> %s</p>
            <p><span class="label">Time:</span> %s</p>
            <p><span class="label">Score:</span> <span class="error">%d</span></p>
        </div>

        <p>Review the audit log at <a href="%s/api/audit">%s/api/audit</a>.</p>
    `,
		html.EscapeString(minInterval),
		html.EscapeString(e.Actor),
		html.EscapeString(e.Action),
		html.EscapeString(e.Target),
		at,
		e.Score,
		html.EscapeString(t.cfg.BaseURL),
		html.EscapeString(t.cfg.BaseURL),
	)

	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`An operator acted faster than the minimum interval of %s.

Operator: %s
Action: %s
Target: %s
Time: %s
Score: %d

Review the audit log at %s/api/audit

--
%s
%s`,
		minInterval,
		e.Actor,
		e.Action,
		e.Target,
		at,
		e.Score,
		t.cfg.BaseURL,
		siteTitle,
		t.cfg.BaseURL,
	)

	return
}

// RulesReloadFailed generates the alert sent when a changed rule file is rejected.
func (t *Templates) RulesReloadFailed(path string, reloadErr error) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] Rule table reload failed", siteTitle)

	content := fmt.Sprintf(`
        <p>The rule table file changed but could not be loaded. The previous table remains active.</p>

        <div class="info-box">
            <p><span class="label">File:</span> <code>%s</code></p>
            <p><span class="label">Error:</span> <span class="error">%s</span></p>
        </div>
    `,
		html.EscapeString(path),
		html.EscapeString(reloadErr.Error()),
	)

	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`The rule table file changed but could not be loaded. The previous table remains active.

File: %s
Error: %s

--
%s
%s`,
		path,
		reloadErr.Error(),
		siteTitle,
		t.cfg.BaseURL,
	)

	return
}
