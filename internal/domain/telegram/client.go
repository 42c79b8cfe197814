package telegram

import "gopkg.in/telebot.v3"

// Client sends messages to Telegram chats.
// Keeps the notification service independent of the bot library.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}
