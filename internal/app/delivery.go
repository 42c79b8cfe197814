// internal/app/delivery.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"commitment_notifier/internal/domain/messaging"
	"commitment_notifier/internal/domain/notification"
	"commitment_notifier/internal/infra/whatsapp"

	"github.com/sirupsen/logrus"
)

// ErrDeliveryFailed is returned when neither route delivered the message.
var ErrDeliveryFailed = errors.New("whatsapp delivery failed on every route")

// ErrInvalidNotificationRequest is returned for sends missing a required field.
var ErrInvalidNotificationRequest = errors.New("invalid notification request")

// DeliveryConfig controls the WhatsApp delivery policy.
type DeliveryConfig struct {
	BusinessNumber string // Own sender; messages to it go straight to the fallback route
	DefaultRegion  string
	PollAttempts   int
	PollInterval   time.Duration
}

// DeliveryResult describes what happened to one outbound WhatsApp message.
type DeliveryResult struct {
	To            string
	Route         messaging.Route
	MessageSID    string
	InitialStatus string
	FinalStatus   string
	ErrorCode     string
	UsedFallback  bool
	Delivered     bool
}

// WhatsAppSender is what the notification service needs from the deliverer.
type WhatsAppSender interface {
	SendText(ctx context.Context, phone, body, notificationType string) (*DeliveryResult, error)
	SendTemplate(ctx context.Context, phone, contentSID string, variables map[string]string) (*DeliveryResult, error)
	SendVia(ctx context.Context, route messaging.Route, phone, body, notificationType string) (*DeliveryResult, error)
}

// Deliverer sends WhatsApp messages through the primary route, polls the
// delivery status and retries once through the fallback route.
type Deliverer struct {
	relay     messaging.Client
	notifRepo notification.Repository
	cfg       DeliveryConfig
	logger    *logrus.Entry
	sleep     func(ctx context.Context, d time.Duration) error
}

// Statically assert that *Deliverer implements WhatsAppSender.
var _ WhatsAppSender = (*Deliverer)(nil)

func NewDeliverer(relay messaging.Client, nr notification.Repository, cfg DeliveryConfig, logger *logrus.Entry) *Deliverer {
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 4
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2500 * time.Millisecond
	}
	if cfg.BusinessNumber != "" {
		if n, err := whatsapp.NormalizePhone(cfg.BusinessNumber, cfg.DefaultRegion); err == nil {
			cfg.BusinessNumber = n
		}
	}
	return &Deliverer{relay: relay, notifRepo: nr, cfg: cfg, logger: logger, sleep: sleepContext}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SendText delivers a freeform message.
func (d *Deliverer) SendText(ctx context.Context, phone, body, notificationType string) (*DeliveryResult, error) {
	return d.deliver(ctx, phone, messaging.Request{Body: body}, notificationType)
}

// SendTemplate delivers an approved content template with its variables.
func (d *Deliverer) SendTemplate(ctx context.Context, phone, contentSID string, variables map[string]string) (*DeliveryResult, error) {
	if contentSID == "" {
		return nil, fmt.Errorf("%w: content SID is required", ErrInvalidNotificationRequest)
	}
	return d.deliver(ctx, phone, messaging.Request{ContentSID: contentSID, Variables: variables}, notification.TypeTemplate)
}

// SendVia sends through a single route with no fallback. Used for manual tests.
func (d *Deliverer) SendVia(ctx context.Context, route messaging.Route, phone, body, notificationType string) (*DeliveryResult, error) {
	to, err := whatsapp.NormalizePhone(phone, d.cfg.DefaultRegion)
	if err != nil {
		return nil, err
	}
	req := messaging.Request{Route: route, To: to, Body: body}
	res, err := d.attempt(ctx, req, notificationType)
	if err != nil {
		return res, err
	}
	if !res.Delivered {
		return res, ErrDeliveryFailed
	}
	return res, nil
}

func (d *Deliverer) deliver(ctx context.Context, phone string, req messaging.Request, notificationType string) (*DeliveryResult, error) {
	to, err := whatsapp.NormalizePhone(phone, d.cfg.DefaultRegion)
	if err != nil {
		return nil, err
	}
	req.To = to
	log := d.logger.WithFields(logrus.Fields{"to": to, "notification_type": notificationType})

	if d.cfg.BusinessNumber != "" && to == d.cfg.BusinessNumber {
		log.Warn("Destination is the business sender, using fallback route")
		return d.fallback(ctx, req, notificationType, nil)
	}

	req.Route = messaging.RoutePrimary
	primary, err := d.attempt(ctx, req, notificationType)
	if err != nil {
		if ctx.Err() != nil {
			return primary, ctx.Err()
		}
		log.WithError(err).Warn("Primary route failed, trying fallback route")
		return d.fallback(ctx, req, notificationType, primary)
	}
	if messaging.NeedsFallback(primary.FinalStatus, primary.ErrorCode) {
		log.WithFields(logrus.Fields{"final_status": primary.FinalStatus, "error_code": primary.ErrorCode}).
			Warn("Primary route did not deliver, trying fallback route")
		return d.fallback(ctx, req, notificationType, primary)
	}
	return primary, nil
}

func (d *Deliverer) fallback(ctx context.Context, req messaging.Request, notificationType string, primary *DeliveryResult) (*DeliveryResult, error) {
	req.Route = messaging.RouteFallback
	res, err := d.attempt(ctx, req, notificationType)
	if res != nil {
		res.UsedFallback = true
	}
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	if !res.Delivered {
		return res, ErrDeliveryFailed
	}
	if primary != nil {
		d.logger.WithFields(logrus.Fields{
			"to":              req.To,
			"primary_sid":     primary.MessageSID,
			"primary_status":  primary.FinalStatus,
			"fallback_sid":    res.MessageSID,
			"fallback_status": res.FinalStatus,
		}).Info("Message delivered through fallback route")
	}
	return res, nil
}

// attempt sends once through req.Route, polls the status and writes the log entry.
func (d *Deliverer) attempt(ctx context.Context, req messaging.Request, notificationType string) (*DeliveryResult, error) {
	res := &DeliveryResult{To: req.To, Route: req.Route}

	msg, err := d.relay.Send(ctx, req)
	if err != nil {
		res.FinalStatus = messaging.StatusFailed
		var pe *messaging.ProviderError
		errMsg := err.Error()
		if errors.As(err, &pe) {
			res.ErrorCode = pe.Code
			errMsg = pe.Message
		}
		d.writeLog(ctx, req, notificationType, res, errMsg)
		return res, err
	}

	res.MessageSID = msg.SID
	res.InitialStatus = msg.Status
	final := d.pollStatus(ctx, msg)
	res.FinalStatus = final.Status
	res.ErrorCode = final.ErrorCode
	res.Delivered = !messaging.IsFailed(final.Status)
	d.writeLog(ctx, req, notificationType, res, final.ErrorMessage)
	return res, nil
}

// pollStatus fetches the message until it reaches a terminal status or the
// attempts run out. A fetch error ends polling with status unknown.
func (d *Deliverer) pollStatus(ctx context.Context, msg *messaging.Message) *messaging.Message {
	current := msg
	if msg.SID == "" {
		return &messaging.Message{Status: messaging.StatusUnknown}
	}
	for i := 0; i < d.cfg.PollAttempts; i++ {
		if messaging.IsTerminal(current.Status) {
			return current
		}
		if err := d.sleep(ctx, d.cfg.PollInterval); err != nil {
			return current
		}
		fetched, err := d.relay.Fetch(ctx, msg.SID)
		if err != nil {
			d.logger.WithError(err).WithField("sid", msg.SID).Warn("Failed to poll message status")
			return &messaging.Message{SID: msg.SID, Status: messaging.StatusUnknown}
		}
		current = fetched
	}
	return current
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (d *Deliverer) writeLog(ctx context.Context, req messaging.Request, notificationType string, res *DeliveryResult, errMsg string) {
	if d.notifRepo == nil {
		return
	}
	entry := &notification.Log{
		Channel:          notification.ChannelWhatsApp,
		Route:            string(req.Route),
		Recipient:        req.To,
		NotificationType: notificationType,
		ContentSID:       nullString(req.ContentSID),
		MessageSID:       nullString(res.MessageSID),
		InitialStatus:    res.InitialStatus,
		FinalStatus:      res.FinalStatus,
		ErrorCode:        nullString(res.ErrorCode),
		ErrorMessage:     nullString(errMsg),
	}
	if err := d.notifRepo.CreateLog(ctx, entry); err != nil {
		d.logger.WithError(err).WithField("to", req.To).Warn("Failed to write notification log")
	}
}
