package webhook

import (
	"context"
	"log"
	"sync"
	"time"

	domain "github.com/mohammadpnp/catalog-import/internal/domain/webhook"
)

type subscriptionStore interface {
	ListEnabledByEvent(ctx context.Context, event string) ([]domain.Subscription, error)
	RecordDelivery(ctx context.Context, log domain.DeliveryLog) error
}

type Sender interface {
	Send(ctx context.Context, url string, payload domain.Payload) (domain.DeliveryResult, error)
}

// Dispatcher delivers an event once to every enabled subscription of that
// event. Delivery failures are recorded and logged, never returned.
type Dispatcher struct {
	store  subscriptionStore
	sender Sender
	now    func() time.Time

	wg sync.WaitGroup
}

func NewDispatcher(store subscriptionStore, sender Sender) *Dispatcher {
	return &Dispatcher{
		store:  store,
		sender: sender,
		now:    time.Now,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, event string, data map[string]any) {
	subs, err := d.store.ListEnabledByEvent(ctx, event)
	if err != nil {
		log.Printf("webhook %s: list subscriptions failed: %v", event, err)
		return
	}
	if len(subs) == 0 {
		return
	}

	payload := domain.NewPayload(event, data, d.now())
	for _, sub := range subs {
		d.deliver(ctx, sub, payload)
	}
}

// DispatchAsync runs Dispatch in the background, detached from the
// caller's cancellation.
func (d *Dispatcher) DispatchAsync(ctx context.Context, event string, data map[string]any) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.Dispatch(ctx, event, data)
	}()
}

// Wait blocks until background deliveries started so far have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, sub domain.Subscription, payload domain.Payload) {
	entry := domain.DeliveryLog{
		SubscriptionID: sub.ID,
		EventType:      payload.Event,
		Payload:        payload,
	}

	result, err := d.sender.Send(ctx, sub.URL, payload)
	entry.StatusCode = result.StatusCode
	entry.ResponseText = result.Body
	entry.ResponseTime = result.Latency
	if err != nil {
		entry.Error = err.Error()
	}

	switch {
	case err != nil:
		log.Printf("webhook %d %s: delivery to %s failed after %s: %v", sub.ID, payload.Event, sub.URL, result.Latency, err)
	case !entry.Succeeded():
		log.Printf("webhook %d %s: %s rejected delivery with status %d in %s", sub.ID, payload.Event, sub.URL, result.StatusCode, result.Latency)
	default:
		log.Printf("webhook %d %s: sent to %s, status %d in %s", sub.ID, payload.Event, sub.URL, result.StatusCode, result.Latency)
	}

	if err := d.store.RecordDelivery(ctx, entry); err != nil {
		log.Printf("webhook %d %s: record delivery failed: %v", sub.ID, payload.Event, err)
	}
}
