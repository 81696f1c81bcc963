// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package postgres

import (
	"context"

	"github.com/samber/oops"

	"github.com/inventoryapp/inventoryauth/internal/auth"
)

// NotificationRepository implements auth.Notifier by inserting rows into the
// notifications table, where the panels pick them up.
type NotificationRepository struct {
	db DB
}

// NewNotificationRepository creates a NotificationRepository.
func NewNotificationRepository(db DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Notify stores notes in one statement. Status defaults to unread.
func (r *NotificationRepository) Notify(ctx context.Context, notes ...auth.Notification) error {
	if len(notes) == 0 {
		return nil
	}

	users := make([]int64, len(notes))
	titles := make([]string, len(notes))
	messages := make([]string, len(notes))
	types := make([]string, len(notes))
	for i, n := range notes {
		users[i] = n.CredentialID
		titles[i] = n.Title
		messages[i] = n.Message
		types[i] = string(n.Type)
	}

	_, err := conn(ctx, r.db).Exec(ctx, `
		INSERT INTO notifications (user_id, title, message, type)
		SELECT * FROM unnest($1::bigint[], $2::text[], $3::text[], $4::text[])
	`, users, titles, messages, types)
	if err != nil {
		return oops.Code("NOTIFICATION_CREATE_FAILED").
			With("operation", "insert notifications").
			With("count", len(notes)).
			Wrap(err)
	}
	return nil
}
