package notify

import (
	"context"
	"log"
	"strconv"
	"strings"
)

// ChannelProvider delivers a rendered message to one recipient over
// one channel (SMS, push, webhook). Implementations report transient
// failures with an error; the worker handles retries and the DLQ.
type ChannelProvider interface {
	Name() string
	Send(ctx context.Context, recipient, message string) error
}

// LogProvider writes messages to the process log instead of an
// external gateway. It is the fallback when no real channel is
// configured, so called-customer events still leave a trace.
type LogProvider struct{}

func (LogProvider) Name() string { return "log" }

func (LogProvider) Send(_ context.Context, recipient, message string) error {
	log.Printf("notify channel=log recipient=%s message=%q", recipient, message)
	return nil
}

// DefaultTemplate is the called-customer message. Placeholders are
// replaced per event.
const DefaultTemplate = "{customer_name}, it's your turn at {business_name}! You were number {position}."

// RenderMessage fills the template placeholders. Unknown placeholders
// are left as-is.
func RenderMessage(template, customerName, businessName string, position int64) string {
	replacer := strings.NewReplacer(
		"{customer_name}", customerName,
		"{business_name}", businessName,
		"{position}", strconv.FormatInt(position, 10),
	)
	return replacer.Replace(template)
}
