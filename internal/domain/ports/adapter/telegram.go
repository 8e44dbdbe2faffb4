// File: internal/domain/ports/adapter/telegram.go
package adapter

import "context"

// Notifier delivers operator alerts to a chat.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}
