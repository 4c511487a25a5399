package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// WhatsAppGateway sends a single outbound WhatsApp message through Twilio.
type WhatsAppGateway struct {
	config *twilioConfig
	client *twilio.RestClient
	logger *zerolog.Logger
}

// NewWhatsAppGateway creates a WhatsAppGateway configured from the environment.
func NewWhatsAppGateway(logger *zerolog.Logger) *WhatsAppGateway {
	cfg := newTwilioConfig(logger)

	if err := cfg.validate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to validate Twilio configuration")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	client.Client.SetTimeout(10 * time.Second)

	return &WhatsAppGateway{
		config: cfg,
		client: client,
		logger: logger,
	}
}

// Send delivers body to the given phone number over WhatsApp. The Twilio SDK
// does not take a context, so ctx is only consulted before the request.
func (g *WhatsAppGateway) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetFrom("whatsapp:" + g.config.From)
	params.SetTo("whatsapp:" + to)
	params.SetBody(body)

	msg, err := g.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("send whatsapp message to %s: %w", to, err)
	}

	if msg.Sid != nil {
		g.logger.Info().Str("to", to).Str("sid", *msg.Sid).Msg("whatsapp message sent")
	}

	return nil
}

// twilioConfig holds Twilio credentials and the WhatsApp sender number.
type twilioConfig struct {
	AccountSID string `env:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	From       string `env:"TWILIO_NUMBER"`
}

func newTwilioConfig(logger *zerolog.Logger) *twilioConfig {
	cfg, err := env.ParseAs[twilioConfig]()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment variables")
	}

	return &cfg
}

func (c *twilioConfig) validate() error {
	if c.AccountSID == "" {
		return fmt.Errorf("missing TWILIO_ACCOUNT_SID environment variable")
	}
	if c.AuthToken == "" {
		return fmt.Errorf("missing TWILIO_AUTH_TOKEN environment variable")
	}
	if c.From == "" {
		return fmt.Errorf("missing TWILIO_NUMBER environment variable")
	}

	return nil
}
