// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"commitment_notifier/internal/infra/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func RegisterBotCommands(
	b *telebot.Bot,
	cfg *config.AppConfig, // For AdminTelegramID
	baseLogger *logrus.Entry, // For contextual logging
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		if senderID == cfg.AdminTelegramID {
			logCtx.Info("User identified as Admin")
			return c.Send(fmt.Sprintf("Hola %s. Estoy listo. Usa /help para ver los comandos.", c.Sender().FirstName))
		}

		// The chat ID is what a user stores in their notification settings.
		logCtx.Info("User is not the admin")
		return c.Send(fmt.Sprintf(
			"Hola. Te enviaré alertas de compromisos financieros.\nTu chat ID es `%d`. Regístralo en tu configuración de notificaciones.",
			c.Chat().ID,
		), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		if senderID == cfg.AdminTelegramID {
			logCtx.Info("User identified as Admin, sending admin help.")
			var helpText strings.Builder
			helpText.WriteString("Comandos disponibles:\n\n")
			helpText.WriteString("`/vencimientos [critical|high|medium|low]`\n - Compromisos vencidos o que vencen en los próximos 7 días.\n\n")
			helpText.WriteString("`/resumen`\n - Totales de compromisos activos.\n\n")
			helpText.WriteString("`/help`\n - Mostrar este mensaje.")
			return c.Send(helpText.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
		}

		logCtx.Info("Sending restricted help.")
		return c.Send("Recibirás aquí las alertas de vencimiento que tengas activadas.\n\n`/start` - Ver tu chat ID.", &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}
