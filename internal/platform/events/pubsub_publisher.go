package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/pubsub"

	domain "github.com/lens-advisor/api/internal/domain"
	"github.com/lens-advisor/api/internal/platform/textutil"
)

// PubSubQuotePublisher publishes quote events to a Pub/Sub topic.
type PubSubQuotePublisher struct {
	topic *pubsub.Topic
}

// NewPubSubQuotePublisher wraps an existing topic handle.
func NewPubSubQuotePublisher(topic *pubsub.Topic) (*PubSubQuotePublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub quote publisher: topic is required")
	}
	return &PubSubQuotePublisher{topic: topic}, nil
}

// PublishQuoteCalculated sends the event and waits for the server acknowledgement.
func (p *PubSubQuotePublisher) PublishQuoteCalculated(ctx context.Context, event domain.QuoteCalculatedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal quote event: %w", err)
	}

	offerTypes := make([]string, 0, len(event.OfferTypes))
	for _, t := range event.OfferTypes {
		offerTypes = append(offerTypes, string(t))
	}
	attrs := textutil.NormalizeStringMap(map[string]string{
		"eventType":    domain.QuoteCalculatedEventType,
		"quoteId":      event.QuoteID,
		"currency":     event.Currency,
		"finalPayable": strconv.FormatInt(event.FinalPayable, 10),
		"offerTypes":   strings.Join(offerTypes, ","),
		"couponCode":   event.CouponCode,
	})

	result := p.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish quote event %s: %w", event.QuoteID, err)
	}
	return nil
}

// Close flushes pending messages and stops the topic's background goroutines.
func (p *PubSubQuotePublisher) Close() {
	p.topic.Stop()
}
