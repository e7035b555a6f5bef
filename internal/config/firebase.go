package config

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// NewFirebaseMessaging returns nil when no credentials are configured; push
// notifications are then skipped.
func NewFirebaseMessaging(credentialsPath string, log *zap.Logger) *messaging.Client {
	if credentialsPath == "" {
		return nil
	}

	ctx := context.Background()

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		log.Fatal("failed to init firebase app", zap.Error(err))
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		log.Fatal("failed to get firebase messaging client", zap.Error(err))
	}

	log.Info("firebase messaging client initialized")

	return client
}
