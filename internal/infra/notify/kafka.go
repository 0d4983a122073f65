package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"staynest/internal/app/policies"
)

const noticeTopic = "notification.events.v1"

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// KafkaNotifier hands booking confirmations to the notification consumer.
// Best-effort by contract: callers log the returned error and move on.
type KafkaNotifier struct {
	Producer    Producer
	TopicPrefix string
	Logger      *slog.Logger
}

type confirmationMessage struct {
	SpecVersion     string           `json:"specversion"`
	ID              string           `json:"id"`
	Type            string           `json:"type"`
	Source          string           `json:"source"`
	Time            time.Time        `json:"time"`
	DataContentType string           `json:"datacontenttype"`
	Data            confirmationData `json:"data"`
}

type confirmationData struct {
	BookingID    string    `json:"booking_id"`
	GuestEmail   string    `json:"guest_email"`
	GuestName    string    `json:"guest_name"`
	ListingTitle string    `json:"listing_title"`
	Location     string    `json:"location"`
	CheckIn      time.Time `json:"check_in"`
	CheckOut     time.Time `json:"check_out"`
	Total        string    `json:"total"`
	Currency     string    `json:"currency"`
}

func (n *KafkaNotifier) BookingConfirmed(ctx context.Context, notice policies.ConfirmationNotice) error {
	msg := confirmationMessage{
		SpecVersion:     "1.0",
		ID:              uuid.NewString(),
		Type:            "notification.booking_confirmed.v1",
		Source:          "app://staynest",
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data: confirmationData{
			BookingID:    string(notice.BookingID),
			GuestEmail:   notice.GuestEmail,
			GuestName:    notice.GuestName,
			ListingTitle: notice.ListingTitle,
			Location:     notice.Location,
			CheckIn:      notice.CheckIn,
			CheckOut:     notice.CheckOut,
			Total:        notice.Total.Decimal(),
			Currency:     notice.Total.Currency,
		},
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	headers := map[string]string{"content-type": "application/cloudevents+json"}
	if err := n.Producer.Publish(ctx, n.TopicPrefix+noticeTopic, string(notice.BookingID), payload, headers); err != nil {
		return err
	}
	if n.Logger != nil {
		n.Logger.Info("confirmation notice queued", "booking_id", notice.BookingID, "guest", notice.GuestEmail)
	}
	return nil
}

// LogNotifier is the memory-mode stand-in: it writes the notice to the log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) BookingConfirmed(_ context.Context, notice policies.ConfirmationNotice) error {
	if n.Logger != nil {
		n.Logger.Info("booking confirmed",
			"booking_id", notice.BookingID,
			"guest", notice.GuestEmail,
			"listing", notice.ListingTitle,
			"total", notice.Total.Decimal())
	}
	return nil
}

var _ policies.Notifier = (*KafkaNotifier)(nil)
var _ policies.Notifier = LogNotifier{}
