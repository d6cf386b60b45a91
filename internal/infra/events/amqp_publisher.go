package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"storefront/internal/domain/model"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPPublisherは取込完了イベントをキューに送る。
// チャネルは並行利用できないのでmuで守る。
type AMQPPublisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	mu    sync.Mutex
}

// DI
func NewAMQPPublisher(uri string, queue string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp queue declare %s: %w", queue, err)
	}

	return &AMQPPublisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *AMQPPublisher) NotifyImported(ctx context.Context, ev model.ImportEvent) error {
	msg, err := encode(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	chErr := p.ch.Close()
	connErr := p.conn.Close()
	if chErr != nil {
		return chErr
	}
	return connErr
}

func encode(ev model.ImportEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode import event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         "products.imported",
		Timestamp:    ev.ImportedAt,
		Body:         body,
	}, nil
}

// RABBITMQ_URIが無い時の実装
type NopPublisher struct{}

func (NopPublisher) NotifyImported(context.Context, model.ImportEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
