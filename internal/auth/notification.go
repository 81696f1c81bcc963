// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package auth

import (
	"context"
	"fmt"
)

// NotificationType classifies a notification for display.
type NotificationType string

// Notification types understood by the panels.
const (
	NotificationInfo       NotificationType = "info"
	NotificationWarning    NotificationType = "warning"
	NotificationError      NotificationType = "error"
	NotificationSuccess    NotificationType = "success"
	NotificationOutOfStock NotificationType = "out_of_stock"
)

// Notification is a message addressed to one credential.
type Notification struct {
	CredentialID int64
	Title        string
	Message      string
	Type         NotificationType
}

// Notifier delivers notifications. Implementations called with a
// transaction context must write within that transaction.
type Notifier interface {
	Notify(ctx context.Context, notes ...Notification) error
}

func registrationNotices(adminIDs []int64, newID int64) []Notification {
	notes := make([]Notification, 0, len(adminIDs)+1)
	for _, id := range adminIDs {
		notes = append(notes, Notification{
			CredentialID: id,
			Title:        "New User",
			Message:      "New user registered and waiting for approval.",
			Type:         NotificationInfo,
		})
	}
	return append(notes, Notification{
		CredentialID: newID,
		Title:        "Register",
		Message:      "Thank you for registration.",
		Type:         NotificationInfo,
	})
}

func passwordChangedNotices(adminIDs []int64, cred *Credential) []Notification {
	notes := make([]Notification, 0, len(adminIDs)+1)
	for _, id := range adminIDs {
		if id == cred.ID {
			continue
		}
		notes = append(notes, Notification{
			CredentialID: id,
			Title:        fmt.Sprintf("About user : %s", cred.FirstName),
			Message:      fmt.Sprintf("%s changed password.", cred.FirstName),
			Type:         NotificationInfo,
		})
	}
	return append(notes, Notification{
		CredentialID: cred.ID,
		Title:        "Password Change",
		Message:      "Your password changed successfully.",
		Type:         NotificationSuccess,
	})
}
