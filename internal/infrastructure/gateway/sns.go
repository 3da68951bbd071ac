package gateway

import (
	"context"

	"github.com/go-notify-nosql/internal/infrastructure/sns"
)

// SNS sends SMS through AWS SNS. The provider id is the SNS message id.
type SNS struct {
	sender sns.SMSSender
}

func NewSNS(sender sns.SMSSender) *SNS { return &SNS{sender: sender} }

func (s *SNS) Send(ctx context.Context, msg Message) Result {
	if msg.To == "" {
		return failed("recipient has no phone number")
	}
	id, err := s.sender.SendSMS(ctx, msg.To, msg.Body)
	if err != nil {
		return failed(err.Error())
	}
	return Result{OK: true, ProviderID: id}
}
