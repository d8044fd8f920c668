package service

import (
	"context"
	"fmt"
	"time"

	"github.com/reflens/reflens/config"
	"github.com/reflens/reflens/internal/app/repository"
	infraPrometheus "github.com/reflens/reflens/internal/infra/prometheus"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// MailNotifier sends the one-time first-visit email. When recipient or
// credential is missing it is a logged no-op. Any dispatch failure is
// logged and dropped: a lost notification must never surface on the visit
// path. Upstream guarantees at-most-once in the common case; a duplicate
// invocation under a race just means a duplicate email.
type MailNotifier struct {
	cfg    config.NotifyConfig
	apps   repository.ApplicationRepository
	logger *zap.Logger
}

// NewMailNotifier creates a notifier from the notify config section.
func NewMailNotifier(cfg config.NotifyConfig, apps repository.ApplicationRepository, logger *zap.Logger) *MailNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailNotifier{cfg: cfg, apps: apps, logger: logger}
}

// NotifyFirstVisit sends the email for the given code's first visit.
func (n *MailNotifier) NotifyFirstVisit(ctx context.Context, refCode string) {
	if !n.cfg.Enabled() {
		n.logger.Info("first visit recorded, email not configured, skipping",
			zap.String("ref_code", refCode))
		return
	}

	app, err := n.apps.GetByRefCode(ctx, refCode)
	if err != nil {
		n.logger.Error("failed to load application for notification",
			zap.Error(err),
			zap.String("ref_code", refCode))
		return
	}

	recipient := n.cfg.Recipient
	if recipient == "" {
		recipient = n.cfg.Email
	}

	subject := fmt.Sprintf("Portfolio viewed: %s / %s", app.CompanyName, app.Position)
	body := fmt.Sprintf(
		"Your portfolio has been viewed!\n\n"+
			"Company: %s\n"+
			"Position: %s\n"+
			"Ref Code: %s\n"+
			"Time: %s\n\n"+
			"This is the first time someone from this application opened your portfolio link.\n",
		app.CompanyName,
		app.Position,
		refCode,
		time.Now().Format("2006-01-02 15:04:05"),
	)

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.Email)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(n.cfg.SMTPHost, n.cfg.SMTPPort, n.cfg.Email, n.cfg.Password)
	d.SSL = true

	if err := d.DialAndSend(m); err != nil {
		n.logger.Error("failed to send first visit email",
			zap.Error(err),
			zap.String("ref_code", refCode),
			zap.String("company", app.CompanyName))
		return
	}

	infraPrometheus.FirstVisitNotifications.Inc()
	n.logger.Info("first visit email sent",
		zap.String("ref_code", refCode),
		zap.String("company", app.CompanyName))
}
