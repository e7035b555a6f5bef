package repository

import (
	"context"
	"errors"

	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type NotificationRepository struct {
	Log *zap.Logger
	DB  *pgxpool.Pool
}

func NewNotificationRepository(zap *zap.Logger, db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{
		Log: zap,
		DB:  db,
	}
}

func (repository *NotificationRepository) InsertNotification(ctx context.Context, notification model.Notifications) error {
	query := "INSERT INTO notifications (id, sender_id, receiver_id, type, message, entity_type, entity_id, post_id, is_read, create_datetime) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)"

	_, err := repository.DB.Exec(ctx, query, notification.Id, notification.SenderId, notification.ReceiverId, notification.Type, notification.Message, notification.EntityType, notification.EntityId, notification.PostId, notification.IsRead, notification.CreateDatetime)
	if err != nil {
		return err
	}

	return nil
}

func (repository *NotificationRepository) GetNotifications(ctx context.Context, receiverId uuid.UUID, limit int) ([]model.NotificationResponse, error) {
	query := `
		SELECT id, sender_id, receiver_id, type, message, entity_type, entity_id, post_id, is_read, create_datetime
		FROM notifications
		WHERE receiver_id = $1
		ORDER BY create_datetime DESC, id DESC
		LIMIT $2
	`

	rows, err := repository.DB.Query(ctx, query, receiverId, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []model.NotificationResponse{}
	for rows.Next() {
		var row model.Notifications
		err := rows.Scan(&row.Id, &row.SenderId, &row.ReceiverId, &row.Type, &row.Message, &row.EntityType, &row.EntityId, &row.PostId, &row.IsRead, &row.CreateDatetime)
		if err != nil {
			return nil, err
		}

		notifications = append(notifications, row.Response())
	}

	return notifications, rows.Err()
}

func (repository *NotificationRepository) GetUserContact(ctx context.Context, userId uuid.UUID) (model.UserContact, error) {
	contact := model.UserContact{UserId: userId}

	query := "SELECT username, email FROM users WHERE id = $1"
	err := repository.DB.QueryRow(ctx, query, userId).Scan(&contact.Username, &contact.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contact, &model.ValidationError{
				Code:    constant.ERR_NOT_FOUND_ERROR,
				Message: "User not found",
				Param:   "userId",
			}
		}
		return contact, err
	}

	rows, err := repository.DB.Query(ctx, "SELECT token FROM device_tokens WHERE user_id = $1", userId)
	if err != nil {
		return contact, err
	}
	defer rows.Close()

	for rows.Next() {
		var token string
		err := rows.Scan(&token)
		if err != nil {
			return contact, err
		}

		contact.DeviceTokens = append(contact.DeviceTokens, token)
	}

	return contact, rows.Err()
}

func (repository *NotificationRepository) DeleteDeviceToken(ctx context.Context, token string) error {
	_, err := repository.DB.Exec(ctx, "DELETE FROM device_tokens WHERE token = $1", token)
	if err != nil {
		return err
	}

	return nil
}
