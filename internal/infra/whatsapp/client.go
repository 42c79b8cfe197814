// internal/infra/whatsapp/client.go
package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"commitment_notifier/internal/domain/messaging"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

const channelPrefix = "whatsapp:"

// messageAPI is the subset of the Twilio REST API the relay uses.
type messageAPI interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
	FetchMessage(sid string, params *twilioApi.FetchMessageParams) (*twilioApi.ApiV2010Message, error)
}

// Config holds the relay credentials and senders.
type Config struct {
	AccountSID          string
	AuthToken           string
	MessagingServiceSID string // Primary route
	FallbackNumber      string // E.164 sender of the fallback route
}

// TwilioClient implements messaging.Client over the Twilio Messages API.
type TwilioClient struct {
	api                 messageAPI
	messagingServiceSID string
	fallbackFrom        string
	logger              *logrus.Entry
}

// Statically assert that *TwilioClient implements messaging.Client.
var _ messaging.Client = (*TwilioClient)(nil)

func NewTwilioClient(cfg Config, logger *logrus.Entry) (*TwilioClient, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("twilio credentials are required")
	}
	if cfg.MessagingServiceSID == "" && cfg.FallbackNumber == "" {
		return nil, fmt.Errorf("at least one sender (messaging service or fallback number) is required")
	}
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newTwilioClient(rest.Api, cfg, logger), nil
}

func newTwilioClient(api messageAPI, cfg Config, logger *logrus.Entry) *TwilioClient {
	return &TwilioClient{
		api:                 api,
		messagingServiceSID: cfg.MessagingServiceSID,
		fallbackFrom:        withChannelPrefix(cfg.FallbackNumber),
		logger:              logger,
	}
}

func withChannelPrefix(number string) string {
	if number == "" || strings.HasPrefix(number, channelPrefix) {
		return number
	}
	return channelPrefix + number
}

// Send creates a WhatsApp message through the requested route.
func (c *TwilioClient) Send(ctx context.Context, req messaging.Request) (*messaging.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Body == "" && req.ContentSID == "" {
		return nil, fmt.Errorf("message body or content SID is required")
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(withChannelPrefix(req.To))
	switch req.Route {
	case messaging.RouteFallback:
		if c.fallbackFrom == "" {
			return nil, fmt.Errorf("fallback route is not configured")
		}
		params.SetFrom(c.fallbackFrom)
	default:
		if c.messagingServiceSID == "" {
			return nil, fmt.Errorf("primary route is not configured")
		}
		params.SetMessagingServiceSid(c.messagingServiceSID)
	}
	if req.ContentSID != "" {
		params.SetContentSid(req.ContentSID)
		if len(req.Variables) > 0 {
			vars, err := json.Marshal(req.Variables)
			if err != nil {
				return nil, fmt.Errorf("failed to encode content variables: %w", err)
			}
			params.SetContentVariables(string(vars))
		}
	} else {
		params.SetBody(req.Body)
	}

	resp, err := c.api.CreateMessage(params)
	if err != nil {
		return nil, mapError(err)
	}
	msg := toMessage(resp)
	c.logger.WithFields(logrus.Fields{
		"route":  req.Route,
		"to":     req.To,
		"sid":    msg.SID,
		"status": msg.Status,
	}).Info("WhatsApp message created")
	return msg, nil
}

// Fetch returns the current state of a previously sent message.
func (c *TwilioClient) Fetch(ctx context.Context, sid string) (*messaging.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := c.api.FetchMessage(sid, &twilioApi.FetchMessageParams{})
	if err != nil {
		return nil, mapError(err)
	}
	return toMessage(resp), nil
}

func mapError(err error) error {
	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) {
		return &messaging.ProviderError{
			Code:     strconv.Itoa(restErr.Code),
			Message:  restErr.Message,
			MoreInfo: restErr.MoreInfo,
		}
	}
	return fmt.Errorf("twilio request failed: %w", err)
}

func toMessage(m *twilioApi.ApiV2010Message) *messaging.Message {
	msg := &messaging.Message{Status: messaging.StatusUnknown}
	if m == nil {
		return msg
	}
	if m.Sid != nil {
		msg.SID = *m.Sid
	}
	if m.Status != nil && *m.Status != "" {
		msg.Status = *m.Status
	}
	if m.To != nil {
		msg.To = strings.TrimPrefix(*m.To, channelPrefix)
	}
	if m.From != nil {
		msg.From = strings.TrimPrefix(*m.From, channelPrefix)
	}
	if m.ErrorCode != nil && *m.ErrorCode != 0 {
		msg.ErrorCode = strconv.Itoa(*m.ErrorCode)
	}
	if m.ErrorMessage != nil {
		msg.ErrorMessage = *m.ErrorMessage
	}
	return msg
}
