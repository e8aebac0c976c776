package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

const ToastSubject = "rolecerto.toasts"

// Bridge keeps the toasters of several instances in step over NATS. Toasts created
// here and every local removal are published; events from other instances are
// applied to the local toaster.
type Bridge struct {
	conn    *nats.Conn
	toaster *Toaster
	logger  *slog.Logger
	sub     *nats.Subscription
	cancel  func()
}

func NewBridge(conn *nats.Conn, toaster *Toaster, logger *slog.Logger) *Bridge {
	return &Bridge{conn: conn, toaster: toaster, logger: logger}
}

func (b *Bridge) Start() error {
	sub, err := b.conn.Subscribe(ToastSubject, func(msg *nats.Msg) {
		b.receive(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", ToastSubject, err)
	}
	b.sub = sub

	b.cancel = b.toaster.Subscribe(func(ev ToastEvent) {
		data, ok := b.encode(ev)
		if !ok {
			return
		}
		if err := b.conn.Publish(ToastSubject, data); err != nil {
			b.logger.Warn("Failed to publish toast", "toast_id", ev.Toast.ID, "removed", ev.Removed, "error", err)
		}
	})
	return nil
}

// receive applies one relayed event. Our own adds come back from the subject and
// are skipped; a removal of an unknown toast is a no-op.
func (b *Bridge) receive(data []byte) {
	var ev ToastEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.Toast.ID == "" {
		b.logger.Warn("Dropping malformed toast event", "error", err)
		return
	}
	if ev.Removed {
		b.toaster.RemoveRelayed(ev.Toast.ID)
		return
	}
	if ev.Toast.Origin == b.toaster.Origin() {
		return
	}
	b.toaster.Deliver(ev.Toast)
}

// encode returns the message to publish for a local event, false when the event
// must not leave this instance.
func (b *Bridge) encode(ev ToastEvent) ([]byte, bool) {
	if ev.Relayed {
		return nil, false
	}
	if !ev.Removed && ev.Toast.Origin != b.toaster.Origin() {
		return nil, false
	}
	data, err := json.Marshal(ev)
	if err != nil {
		b.logger.Warn("Failed to encode toast event", "toast_id", ev.Toast.ID, "error", err)
		return nil, false
	}
	return data, true
}

func (b *Bridge) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
}
