package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	domain "github.com/mohammadpnp/catalog-import/internal/domain/importjob"
)

const notifyChannel = "import_progress"

// PGNotifier publishes progress through Postgres NOTIFY so a worker running
// in another process reaches the subscribers held by the API process.
type PGNotifier struct {
	pool *pgxpool.Pool
}

func NewPGNotifier(pool *pgxpool.Pool) *PGNotifier {
	return &PGNotifier{pool: pool}
}

func (n *PGNotifier) Publish(ctx context.Context, jobID string, ev domain.ProgressEvent) error {
	ev.JobID = jobID
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode progress event: %w", err)
	}
	if _, err := n.pool.Exec(ctx, "SELECT pg_notify($1, $2)", notifyChannel, string(body)); err != nil {
		return fmt.Errorf("notify progress: %w", err)
	}
	return nil
}

type localPublisher interface {
	Publish(ctx context.Context, jobID string, ev domain.ProgressEvent) error
}

// PGListener LISTENs on the progress channel with a dedicated connection
// and republishes every notification into the local hub.
type PGListener struct {
	connString string
	hub        localPublisher
	retryDelay time.Duration
}

func NewPGListener(connString string, hub localPublisher) *PGListener {
	return &PGListener{connString: connString, hub: hub, retryDelay: time.Second}
}

// Run blocks until ctx is done, reconnecting after connection errors.
func (l *PGListener) Run(ctx context.Context) {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Printf("progress relay: %v; reconnecting in %s", err, l.retryDelay)

		timer := time.NewTimer(l.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (l *PGListener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.connString)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		if err := l.relay(ctx, notification.Payload); err != nil {
			log.Printf("progress relay: %v", err)
		}
	}
}

// relay decodes one notification payload and hands it to the local hub.
func (l *PGListener) relay(ctx context.Context, payload string) error {
	var ev domain.ProgressEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return fmt.Errorf("drop malformed notification: %w", err)
	}
	if ev.JobID == "" {
		return nil
	}
	if err := l.hub.Publish(ctx, ev.JobID, ev); err != nil {
		return fmt.Errorf("publish %s event for job %s: %w", ev.Status, ev.JobID, err)
	}
	return nil
}
