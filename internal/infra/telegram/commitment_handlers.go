package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"commitment_notifier/internal/app"
	"commitment_notifier/internal/domain/commitment"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// maxListed caps /vencimientos replies below the Telegram message size limit.
const maxListed = 25

const unauthorizedText = "Error: no tienes permisos para ejecutar este comando."

// DueLister is the part of the due commitment service the bot needs.
type DueLister interface {
	ListActive(ctx context.Context, now time.Time) ([]app.ActiveCommitment, error)
	Location() *time.Location
}

// RegisterCommitmentHandlers registers the admin commands that read the active list.
func RegisterCommitmentHandlers(ctx context.Context, b *telebot.Bot, dueService DueLister, adminTelegramID int64, baseLogger *logrus.Entry) {
	formatter := app.NewMessageFormatter(dueService.Location())

	b.Handle("/vencimientos", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/vencimientos",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedText)
		}

		priority := app.FilterAll
		if args := c.Args(); len(args) > 0 {
			priority = strings.ToLower(args[0])
			switch commitment.Priority(priority) {
			case commitment.PriorityCritical, commitment.PriorityHigh, commitment.PriorityMedium, commitment.PriorityLow:
			default:
				handlerLogger.WithField("arg", args[0]).Warn("Invalid priority argument")
				return c.Send("Prioridad no válida. Usa critical, high, medium o low, o déjalo vacío.")
			}
		}

		list, err := dueService.ListActive(ctx, time.Now())
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to list active commitments")
			return c.Send("Ocurrió un error al consultar los compromisos. Intenta más tarde.")
		}
		list = app.ByPriority(list, priority)
		handlerLogger.WithField("count", len(list)).Info("Active commitments listed")

		return c.Send(renderDueList(list, formatter, maxListed), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})

	b.Handle("/resumen", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/resumen",
			"sender_id": c.Sender().ID,
		})
		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedText)
		}

		list, err := dueService.ListActive(ctx, time.Now())
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to list active commitments")
			return c.Send("Ocurrió un error al consultar los compromisos. Intenta más tarde.")
		}
		return c.Send(renderSummary(app.Stats(list)), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}

func statusIcon(s commitment.AttentionStatus) string {
	switch s {
	case commitment.AttentionOverdue:
		return "❌"
	case commitment.AttentionDueSoon:
		return "⚠️"
	default:
		return "📅"
	}
}

func renderDueList(list []app.ActiveCommitment, f *app.MessageFormatter, limit int) string {
	if len(list) == 0 {
		return "✅ No hay compromisos vencidos ni próximos a vencer."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Compromisos que requieren atención (%d)*\n\n", len(list))
	for i, a := range list {
		if i == limit {
			fmt.Fprintf(&b, "… y %d más", len(list)-limit)
			break
		}
		c := a.Commitment
		fmt.Fprintf(&b, "%s [%s] %s - %s\n", statusIcon(a.Classification.Status), a.Classification.Priority, c.Concept, app.FormatCOP(c.Amount))
		switch days := a.Classification.DaysUntilDue; {
		case days < 0:
			fmt.Fprintf(&b, "    %s, vencido hace %d días\n", f.FormatDate(a.DueDate), -days)
		case days == 0:
			fmt.Fprintf(&b, "    %s, vence hoy\n", f.FormatDate(a.DueDate))
		default:
			fmt.Fprintf(&b, "    %s, en %d días\n", f.FormatDate(a.DueDate), days)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderSummary(st app.DueStats) string {
	var b strings.Builder
	b.WriteString("*Resumen de compromisos activos*\n\n")
	fmt.Fprintf(&b, "Total: %d\n", st.Total)
	fmt.Fprintf(&b, "❌ Vencidos: %d (%s)\n", st.Overdue, app.FormatCOP(st.OverdueAmount))
	fmt.Fprintf(&b, "⚠️ Por vencer: %d\n", st.DueSoon)
	fmt.Fprintf(&b, "📅 Próximos: %d\n\n", st.Upcoming)
	fmt.Fprintf(&b, "💰 Valor total: %s\n", app.FormatCOP(st.TotalAmount))
	fmt.Fprintf(&b, "Promedio: %s", app.FormatCOP(st.AverageAmount))
	return b.String()
}
