package event

import (
	"fmt"

	"github.com/pusher/pusher-http-go/v5"
	"golang.org/x/exp/slog"

	"go-fairwheel/internal/lib/logger/sl"
)

// PusherClient is the hosted-transport alternative to WSClient.
type PusherClient struct {
	log    *slog.Logger
	pusher *pusher.Client
}

func NewPusherClient(log *slog.Logger, client *pusher.Client) *PusherClient {
	return &PusherClient{
		log:    log,
		pusher: client,
	}
}

func (p *PusherClient) TriggerEvent(m Message) error {
	const op = "event.pusher.TriggerEvent"

	data := make(map[string]interface{}, len(m.Data)+1)
	for k, v := range m.Data {
		data[k] = v
	}
	data["seq"] = m.Seq

	if err := p.pusher.Trigger(m.Channel, m.Event, data); err != nil {
		p.log.Error("failed to trigger pusher event", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
