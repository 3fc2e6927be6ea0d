// api/util/notification_service.go

package util

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/argus/api/logging"
	"github.com/dev-mohitbeniwal/argus/api/model"
)

type NotificationService struct {
	// You might want to add dependencies here, such as a message queue client
}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyAuditChange announces a lifecycle change to the configured recipients
// for the application. Notification failures never fail the operation that
// triggered them.
func (n *NotificationService) NotifyAuditChange(ctx context.Context, changeType string, audit model.Audit) error {
	var subject string
	switch changeType {
	case "initiated":
		subject = fmt.Sprintf("Access review started: %s (%s %s)", audit.Application, audit.Frequency, audit.Period)
	case "signed_off":
		subject = fmt.Sprintf("Access review signed off: %s (%s %s)", audit.Application, audit.Frequency, audit.Period)
	case "completed":
		subject = fmt.Sprintf("Access review completed: %s (%s %s)", audit.Application, audit.Frequency, audit.Period)
	default:
		return fmt.Errorf("unknown change type: %s", changeType)
	}

	recipients := viper.GetStringSlice(fmt.Sprintf("notifications.recipients.%s", audit.Application))
	if len(recipients) == 0 {
		logger.Info("NOTIFICATION: no recipients configured, logging only",
			zap.String("auditKey", audit.Key().String()),
			zap.String("changeType", changeType))
		return nil
	}

	body := fmt.Sprintf("Audit %s is now %s.\nTracker ticket: %s", audit.Key(), audit.Progress, audit.TicketKey)
	for _, recipient := range recipients {
		if err := n.SendEmail(ctx, recipient, subject, body); err != nil {
			logger.Error("Failed to send audit notification",
				zap.Error(err),
				zap.String("recipient", recipient))
		}
	}
	return nil
}

func (n *NotificationService) SendEmail(ctx context.Context, recipient, subject, body string) error {
	// Mock email sending
	logger.Info("Sending email",
		zap.String("recipient", recipient),
		zap.String("subject", subject),
		zap.String("from", viper.GetString("smtp.from")))

	// Here you would implement the actual email sending logic
	// This could involve calling an email service API, using an SMTP client, etc.

	return nil
}
