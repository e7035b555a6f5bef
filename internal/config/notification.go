package config

import (
	"github.com/ferdian3456/virdanthread/internal/notification"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

type NotificationConfig struct {
	Trigger                 notification.Config
	Email                   notification.EmailConfig
	FirebaseCredentialsPath string
}

func LoadNotificationConfig(config *koanf.Koanf, log *zap.Logger) NotificationConfig {
	notificationConfig := NotificationConfig{
		Trigger: notification.Config{
			Workers:   config.Int("NOTIFICATION_WORKERS"),
			QueueSize: config.Int("NOTIFICATION_QUEUE_SIZE"),
		},
		Email: notification.EmailConfig{
			SmtpHost:       config.String("SMTP_HOST"),
			SmtpPort:       config.Int("SMTP_PORT"),
			SenderName:     config.String("SENDER_NAME"),
			SenderEmail:    config.String("SENDER_EMAIL"),
			SenderPassword: config.String("SENDER_PASSWORD"),
		},
		FirebaseCredentialsPath: config.String("FIREBASE_CREDENTIALS_PATH"),
	}

	log.Debug("notification config loaded",
		zap.Int("workers", notificationConfig.Trigger.Workers),
		zap.Bool("email", notificationConfig.Email.SmtpHost != ""),
		zap.Bool("push", notificationConfig.FirebaseCredentialsPath != ""),
	)

	return notificationConfig
}
