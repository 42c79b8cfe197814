// internal/app/notification_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"commitment_notifier/internal/domain/commitment"
	"commitment_notifier/internal/domain/company"
	"commitment_notifier/internal/domain/messaging"
	"commitment_notifier/internal/domain/notification"
	domainTelegram "commitment_notifier/internal/domain/telegram" // Import from domain
	"commitment_notifier/internal/domain/user"
	idb "commitment_notifier/internal/infra/database" // Alias for DB errors

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3" // For telebot.SendOptions
)

// UIAFReportDay is the day of month the UIAF report reminder fires.
const UIAFReportDay = 10

// Mailer sends plain text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NotificationService defines the operations of the notification dispatcher.
type NotificationService interface {
	// RunDailyCheck scans commitments and contracts against their horizons and
	// alerts every subscribed user. A DAILY_CHECK run is skipped when one was
	// already started for the same day, by this or another process; MANUAL
	// runs always execute.
	RunDailyCheck(ctx context.Context, now time.Time, kind notification.RunKind) (*notification.Run, error)
	NotifyNewCommitment(ctx context.Context, c *commitment.Commitment) error
	SendTest(ctx context.Context, phone, message string, forceFallback bool) (*DeliveryResult, error)
	SendTemplate(ctx context.Context, phone, contentSID string, variables map[string]string) (*DeliveryResult, error)
}

// NotificationServiceImpl implements the NotificationService interface.
type NotificationServiceImpl struct {
	commitmentRepo commitment.Repository
	companyRepo    company.Repository
	userRepo       user.Repository
	notifRepo      notification.Repository
	whatsApp       WhatsAppSender
	telegramClient domainTelegram.Client // Optional
	mailer         Mailer                // Optional
	formatter      *MessageFormatter
	loc            *time.Location
	logger         *logrus.Entry
}

// Channels groups the delivery channels. Telegram and Mailer may be nil.
type Channels struct {
	WhatsApp WhatsAppSender
	Telegram domainTelegram.Client
	Mailer   Mailer
}

func NewNotificationServiceImpl(
	cr commitment.Repository,
	compRepo company.Repository,
	ur user.Repository,
	nr notification.Repository,
	channels Channels,
	loc *time.Location,
	logger *logrus.Entry,
) *NotificationServiceImpl {
	if loc == nil {
		loc = time.UTC
	}
	return &NotificationServiceImpl{
		commitmentRepo: cr,
		companyRepo:    compRepo,
		userRepo:       ur,
		notifRepo:      nr,
		whatsApp:       channels.WhatsApp,
		telegramClient: channels.Telegram,
		mailer:         channels.Mailer,
		formatter:      NewMessageFormatter(loc),
		loc:            loc,
		logger:         logger,
	}
}

// Statically assert that *NotificationServiceImpl implements NotificationService.
var _ NotificationService = (*NotificationServiceImpl)(nil)

type dispatchCounter struct {
	sent   int
	failed int
}

func (c *dispatchCounter) add(o dispatchCounter) {
	c.sent += o.sent
	c.failed += o.failed
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// RunDailyCheck runs one pass of the scheduled dispatch.
func (s *NotificationServiceImpl) RunDailyCheck(ctx context.Context, now time.Time, kind notification.RunKind) (*notification.Run, error) {
	today := startOfDay(now, s.loc)
	log := s.logger.WithFields(logrus.Fields{"run_date": today.Format("2006-01-02"), "kind": kind})

	run := &notification.Run{RunDate: today, Kind: kind}
	if err := s.notifRepo.CreateRun(ctx, run); err != nil {
		if !errors.Is(err, idb.ErrRunAlreadyExists) {
			return nil, fmt.Errorf("failed to create notification run: %w", err)
		}
		existing, lookupErr := s.notifRepo.GetRunByDateAndKind(ctx, today, kind)
		if lookupErr != nil {
			return nil, fmt.Errorf("failed to load existing notification run: %w", lookupErr)
		}
		log.WithFields(logrus.Fields{"run_id": existing.ID, "finished": existing.FinishedAt.Valid}).
			Info("Daily check already started today, skipping")
		return existing, nil
	}
	log = log.WithField("run_id", run.ID)
	log.Info("Starting notification run")

	users, err := s.userRepo.ListWithNotificationChannels(ctx)
	if err != nil {
		s.finishRun(ctx, run, dispatchCounter{})
		return run, fmt.Errorf("failed to list users with notification channels: %w", err)
	}
	if len(users) == 0 {
		log.Info("No users with notification channels. Nothing to send.")
		s.finishRun(ctx, run, dispatchCounter{})
		return run, nil
	}

	companies := s.loadCompanies(ctx)

	var total dispatchCounter
	total.add(s.checkCommitmentHorizons(ctx, now, today, users, companies))
	total.add(s.checkNewlyOverdue(ctx, now, today, users, companies))
	total.add(s.checkContracts(ctx, now, users))
	total.add(s.checkAutomaticEvents(ctx, today, users))

	s.finishRun(ctx, run, total)
	log.WithFields(logrus.Fields{"sent": total.sent, "failed": total.failed}).Info("Notification run completed")
	return run, nil
}

func (s *NotificationServiceImpl) finishRun(ctx context.Context, run *notification.Run, c dispatchCounter) {
	run.Sent, run.Failed = c.sent, c.failed
	if err := s.notifRepo.FinishRun(ctx, run); err != nil {
		s.logger.WithError(err).WithField("run_id", run.ID).Error("Failed to finish notification run")
	}
}

func (s *NotificationServiceImpl) loadCompanies(ctx context.Context) map[int64]*company.Company {
	byID := make(map[int64]*company.Company)
	list, err := s.companyRepo.ListAll(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load companies, messages will use company IDs")
		return byID
	}
	for _, c := range list {
		byID[c.ID] = c
	}
	return byID
}

func (s *NotificationServiceImpl) checkCommitmentHorizons(ctx context.Context, now, today time.Time, users []*user.User, companies map[int64]*company.Company) dispatchCounter {
	var counter dispatchCounter
	for _, days := range notification.CommitmentHorizons {
		typeID, _ := notification.TypeForCommitmentHorizon(days)
		from := today.AddDate(0, 0, days)
		due, err := s.commitmentRepo.ListUnpaidDueBetween(ctx, from, from.AddDate(0, 0, 1))
		if err != nil {
			s.logger.WithError(err).WithField("horizon_days", days).Error("Failed to list commitments for horizon")
			continue
		}
		s.logger.WithFields(logrus.Fields{"horizon_days": days, "commitments": len(due)}).Debug("Commitments matched horizon")

		for _, c := range due {
			details := DetailsFor(c, companies[c.CompanyID])
			var body string
			if days == 0 {
				body = s.formatter.CommitmentDueToday(details)
			} else {
				body = s.formatter.CommitmentUpcoming(details, commitment.DaysUntilDue(c.DueDate.Time, now, s.loc))
			}
			for _, u := range users {
				if !u.NotificationSettings.WantsCommitmentHorizon(days) {
					continue
				}
				counter.add(s.dispatch(ctx, u, typeID, body))
			}
		}
	}
	return counter
}

// checkNewlyOverdue alerts once, the day after the due date, about commitments
// still unpaid. Sent to the users subscribed to due-today alerts.
func (s *NotificationServiceImpl) checkNewlyOverdue(ctx context.Context, now, today time.Time, users []*user.User, companies map[int64]*company.Company) dispatchCounter {
	var counter dispatchCounter
	yesterday := today.AddDate(0, 0, -1)
	overdue, err := s.commitmentRepo.ListUnpaidDueBetween(ctx, yesterday, today)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list newly overdue commitments")
		return counter
	}
	for _, c := range overdue {
		body := s.formatter.CommitmentOverdue(DetailsFor(c, companies[c.CompanyID]), -commitment.DaysUntilDue(c.DueDate.Time, now, s.loc))
		for _, u := range users {
			if !u.NotificationSettings.CommitmentsDueToday {
				continue
			}
			counter.add(s.dispatch(ctx, u, notification.TypeCommitmentOverdue, body))
		}
	}
	return counter
}

func (s *NotificationServiceImpl) checkContracts(ctx context.Context, now time.Time, users []*user.User) dispatchCounter {
	var counter dispatchCounter
	withContracts, err := s.companyRepo.ListWithContracts(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list companies with contracts")
		return counter
	}
	for _, comp := range withContracts {
		if !comp.ContractExpiration.Valid {
			continue
		}
		exp := comp.ContractExpiration.Time
		days := commitment.DaysUntilDue(exp, now, s.loc)
		h, ok := company.MatchContractHorizon(days)
		if !ok {
			continue
		}
		body := s.formatter.Contract(comp.Name, h, exp, days)
		for _, u := range users {
			if !u.NotificationSettings.ContractAlerts {
				continue
			}
			counter.add(s.dispatch(ctx, u, h.NotificationType, body))
		}
	}
	return counter
}

func (s *NotificationServiceImpl) checkAutomaticEvents(ctx context.Context, today time.Time, users []*user.User) dispatchCounter {
	var counter dispatchCounter
	if today.Day() != UIAFReportDay {
		return counter
	}
	body := s.formatter.AutomaticEvent("Reporte UIAF", today)
	for _, u := range users {
		if !u.NotificationSettings.AutomaticEvents {
			continue
		}
		counter.add(s.dispatch(ctx, u, notification.TypeAutomaticEvent, body))
	}
	return counter
}

// dispatch sends body to every channel the user configured. A failure on one
// channel does not stop the others.
func (s *NotificationServiceImpl) dispatch(ctx context.Context, u *user.User, typeID, body string) dispatchCounter {
	var counter dispatchCounter
	settings := u.NotificationSettings
	log := s.logger.WithFields(logrus.Fields{"user_id": u.ID, "notification_type": typeID})

	if settings.PhoneNumber != "" && s.whatsApp != nil {
		if _, err := s.whatsApp.SendText(ctx, settings.PhoneNumber, body, typeID); err != nil {
			log.WithError(err).Error("WhatsApp notification failed")
			counter.failed++
		} else {
			counter.sent++
		}
	}

	if settings.TelegramChatID != 0 && s.telegramClient != nil {
		err := s.telegramClient.SendMessage(settings.TelegramChatID, body, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
		s.logChannel(ctx, notification.ChannelTelegram, fmt.Sprintf("%d", settings.TelegramChatID), typeID, err)
		if err != nil {
			log.WithError(err).Error("Telegram notification failed")
			counter.failed++
		} else {
			counter.sent++
		}
	}

	if settings.EmailEnabled && u.Email != "" && s.mailer != nil {
		subject := typeID
		if t, err := notification.Lookup(typeID); err == nil {
			subject = t.Subject
		}
		err := s.mailer.Send(ctx, u.Email, subject, body)
		s.logChannel(ctx, notification.ChannelEmail, u.Email, typeID, err)
		if err != nil {
			log.WithError(err).Error("Email notification failed")
			counter.failed++
		} else {
			counter.sent++
		}
	}
	return counter
}

func (s *NotificationServiceImpl) logChannel(ctx context.Context, ch notification.Channel, recipient, typeID string, sendErr error) {
	entry := &notification.Log{
		Channel:          ch,
		Recipient:        recipient,
		NotificationType: typeID,
		InitialStatus:    messaging.StatusSent,
		FinalStatus:      messaging.StatusSent,
	}
	if sendErr != nil {
		entry.InitialStatus = messaging.StatusFailed
		entry.FinalStatus = messaging.StatusFailed
		entry.ErrorMessage = nullString(sendErr.Error())
	}
	if err := s.notifRepo.CreateLog(ctx, entry); err != nil {
		s.logger.WithError(err).WithField("channel", ch).Warn("Failed to write notification log")
	}
}

// NotifyNewCommitment alerts the users subscribed to new commitments.
func (s *NotificationServiceImpl) NotifyNewCommitment(ctx context.Context, c *commitment.Commitment) error {
	users, err := s.userRepo.ListSubscribedToNewCommitments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users subscribed to new commitments: %w", err)
	}
	if len(users) == 0 {
		return nil
	}

	comp, err := s.companyRepo.GetByID(ctx, c.CompanyID)
	if err != nil && !errors.Is(err, idb.ErrCompanyNotFound) {
		s.logger.WithError(err).WithField("company_id", c.CompanyID).Warn("Failed to load company for new commitment message")
	}

	run := &notification.Run{RunDate: startOfDay(time.Now(), s.loc), Kind: notification.RunKindNewCommitment}
	if err := s.notifRepo.CreateRun(ctx, run); err != nil {
		s.logger.WithError(err).Warn("Failed to record new commitment run")
		run = nil
	}

	body := s.formatter.NewCommitment(DetailsFor(c, comp))
	var counter dispatchCounter
	for _, u := range users {
		counter.add(s.dispatch(ctx, u, notification.TypeNewCommitment, body))
	}
	if run != nil {
		s.finishRun(ctx, run, counter)
	}
	s.logger.WithFields(logrus.Fields{"commitment_id": c.ID, "sent": counter.sent, "failed": counter.failed}).Info("New commitment notification sent")
	return nil
}

// SendTest sends a manual test message. forceFallback skips the primary route.
func (s *NotificationServiceImpl) SendTest(ctx context.Context, phone, message string, forceFallback bool) (*DeliveryResult, error) {
	if phone == "" || message == "" {
		return nil, fmt.Errorf("%w: phone number and message are required", ErrInvalidNotificationRequest)
	}
	if forceFallback {
		return s.whatsApp.SendVia(ctx, messaging.RouteFallback, phone, message, notification.TypeTest)
	}
	return s.whatsApp.SendText(ctx, phone, message, notification.TypeTest)
}

func (s *NotificationServiceImpl) SendTemplate(ctx context.Context, phone, contentSID string, variables map[string]string) (*DeliveryResult, error) {
	if phone == "" {
		return nil, fmt.Errorf("%w: phone number is required", ErrInvalidNotificationRequest)
	}
	return s.whatsApp.SendTemplate(ctx, phone, contentSID, variables)
}
