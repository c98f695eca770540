package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/noah-isme/jobdrop-api/pkg/config"
)

// Publisher is a RabbitMQ client that only publishes to one exchange.
type Publisher struct {
	cfg    config.RabbitMQConfig
	logger *zap.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  chan *amqp.Error
}

// NewPublisher dials RabbitMQ, retrying per configuration, and declares the exchange.
func NewPublisher(cfg config.RabbitMQConfig, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Publisher{cfg: cfg, logger: logger.Named("rabbitmq")}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) dsn() string {
	vhost := p.cfg.VHost
	if vhost == "/" {
		vhost = ""
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d/%s", p.cfg.User, p.cfg.Password, p.cfg.Host, p.cfg.Port, vhost)
}

func (p *Publisher) connect() error {
	attempts := p.cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var (
		conn *amqp.Connection
		err  error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err = amqp.DialConfig(p.dsn(), amqp.Config{Heartbeat: p.cfg.Heartbeat, Locale: "en_US"})
		if err == nil {
			break
		}
		p.logger.Warn("rabbitmq dial failed", zap.Int("attempt", attempt), zap.Int("max_attempts", attempts), zap.Error(err))
		if attempt < attempts {
			time.Sleep(p.cfg.RetryInterval)
		}
	}
	if err != nil {
		return fmt.Errorf("connect rabbitmq after %d attempts: %w", attempts, err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open rabbitmq channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		p.cfg.Exchange,     // name
		p.cfg.ExchangeType, // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.cfg.Exchange, err)
	}

	p.conn = conn
	p.channel = channel
	p.closed = channel.NotifyClose(make(chan *amqp.Error, 1))
	p.logger.Info("rabbitmq publisher ready", zap.String("exchange", p.cfg.Exchange))
	return nil
}

// Publish sends body with the configured routing key suffixed by key, e.g.
// "approval.job.decided". The channel is re-opened once if it was closed.
func (p *Publisher) Publish(ctx context.Context, key string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case amqpErr, ok := <-p.closed:
		if ok || amqpErr != nil {
			p.logger.Warn("rabbitmq channel closed, reconnecting", zap.Any("reason", amqpErr))
		}
		p.release()
		if err := p.connect(); err != nil {
			return err
		}
	default:
	}

	routingKey := p.cfg.RoutingKey
	if key != "" {
		routingKey = routingKey + "." + key
	}

	err := p.channel.PublishWithContext(ctx,
		p.cfg.Exchange, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	p.logger.Debug("event published", zap.String("routing_key", routingKey), zap.Int("body_size", len(body)))
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.release()
	return nil
}

func (p *Publisher) release() {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Debug("close rabbitmq channel", zap.Error(err))
		}
		p.channel = nil
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.logger.Debug("close rabbitmq connection", zap.Error(err))
		}
		p.conn = nil
	}
}
