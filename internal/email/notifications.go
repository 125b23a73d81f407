package email

import (
	"sync"
	"time"

	"leaddesk/internal/audit"
	"leaddesk/internal/config"
)

// DefaultAlertCooldown limits anomaly alerts to one per operator per window.
const DefaultAlertCooldown = 5 * time.Minute

// Notifier sends email notifications for various events.
type Notifier struct {
	service   *Service
	templates *Templates
	cfg       *config.Config

	cooldown  time.Duration
	now       func() time.Time
	mu        sync.Mutex
	lastAlert map[string]time.Time
}

// NewNotifier creates a new email notifier.
func NewNotifier(cfg *config.Config) *Notifier {
	return &Notifier{
		service:   NewService(cfg),
		templates: NewTemplates(cfg),
		cfg:       cfg,
		cooldown:  DefaultAlertCooldown,
		now:       time.Now,
		lastAlert: make(map[string]time.Time),
	}
}

// NotifyAnomaly alerts supervisors about a high-frequency entry. Normal
// entries are ignored, so it can be used directly as an audit append hook.
func (n *Notifier) NotifyAnomaly(e audit.Entry) {
	if e.Risk != audit.HighFrequency || !n.service.IsEnabled() || len(n.cfg.SupervisorEmails) == 0 {
		return
	}
	if !n.allow(e.Actor) {
		return
	}

	subject, htmlBody, textBody := n.templates.AnomalyAlert(e, n.cfg.AuditMinInterval.String())
	n.service.SendAsync(n.cfg.SupervisorEmails, subject, htmlBody, textBody)
}

// NotifyRulesReloadFailed alerts supervisors that a rule file was rejected.
func (n *Notifier) NotifyRulesReloadFailed(path string, err error) {
	if !n.service.IsEnabled() || len(n.cfg.SupervisorEmails) == 0 {
		return
	}

	subject, htmlBody, textBody := n.templates.RulesReloadFailed(path, err)
	n.service.SendAsync(n.cfg.SupervisorEmails, subject, htmlBody, textBody)
}

// allow reports whether actor is outside its alert cooldown and starts a new one.
func (n *Notifier) allow(actor string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	if last, ok := n.lastAlert[actor]; ok && now.Sub(last) < n.cooldown {
		return false
	}
	n.lastAlert[actor] = now
	return true
}
