package gateway

import (
	"log/slog"

	"github.com/go-notify-nosql/internal/config"
	"github.com/go-notify-nosql/internal/domain"
	"github.com/go-notify-nosql/internal/infrastructure/sns"
)

// New wires the providers selected in cfg. sms falls back to the mock provider
// when SNS is requested but no sender is available.
func New(cfg *config.Config, smsSender sns.SMSSender) Provider {
	bc := cfg.Breaker
	if bc.Timeout <= 0 {
		bc.Timeout = defaultBreakerTimeout
	}

	var sms Provider = NewMock()
	if cfg.DeliveryProvider == "sns" {
		if smsSender != nil {
			sms = NewSNS(smsSender)
		} else {
			slog.Warn("DELIVERY_PROVIDER=sns but no SNS sender available, using mock provider")
		}
	}
	var whatsapp Provider = NewMock()
	if cfg.WhatsAppProvider != "mock" {
		slog.Warn("unsupported WhatsApp provider, using mock provider", "provider", cfg.WhatsAppProvider)
	}

	return NewRouter(map[string]Provider{
		domain.MessageTypeSMS:      NewBreaker("sms", sms, bc),
		domain.MessageTypeWhatsApp: NewBreaker("whatsapp", whatsapp, bc),
	})
}
