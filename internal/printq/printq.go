package printq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"tokobesi/terminal/internal/xid"
)

const (
	DefaultQueue = "tokobesi.print.jobs"

	KindReceipt = "receipt"
	KindVoucher = "voucher"
)

// Job is picked up by the printer bridge attached to a terminal.
type Job struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	StoreID      string    `json:"store_id"`
	TerminalID   string    `json:"terminal_id"`
	Reference    string    `json:"reference"`
	EscposBase64 string    `json:"escpos_base64,omitempty"`
	HTML         string    `json:"html,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Publisher interface {
	Publish(ctx context.Context, job Job) error
	Close() error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, _ Job) error { return nil }

func (NoopPublisher) Close() error { return nil }

type AMQPPublisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func Dial(url string, queue string) (*AMQPPublisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare %s: %w", queue, err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, job Job) error {
	job = Prepare(job)
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal print job: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(pubCtx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Timestamp:    job.CreatedAt,
		Type:         job.Kind,
		Body:         body,
	})
	if err != nil {
		log.Printf("[printq] WARN: publish %s job %s failed: %v", job.Kind, job.ID, err)
		return err
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	chErr := p.ch.Close()
	connErr := p.conn.Close()
	if chErr != nil {
		return chErr
	}
	return connErr
}

// Prepare fills the id and timestamp of a job.
func Prepare(job Job) Job {
	if job.ID == "" {
		job.ID = xid.New("print")
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	return job
}
