package rabbitmq_common

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Dialer открывает соединение с брокером.
type Dialer func(url string) (*amqp.Connection, error)

// ConnectionManager держит одно соединение RabbitMQ и восстанавливает его
// с экспоненциальной задержкой после разрыва.
type ConnectionManager struct {
	cfg        Config
	dial       Dialer
	newBackOff func() backoff.BackOff

	mutex      sync.RWMutex
	connection *amqp.Connection

	closed    chan struct{}
	closeOnce sync.Once

	background bool

	Logger Logger
}

type Option func(*ConnectionManager)

func WithDialer(dial Dialer) Option {
	return func(m *ConnectionManager) { m.dial = dial }
}

func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(m *ConnectionManager) { m.newBackOff = newBackOff }
}

// WithBackgroundConnect - не ждать первого соединения. Менеджер
// возвращается сразу, подключение идет в фоне до успеха или Close.
// Пока соединения нет, GetChannel возвращает ошибку.
func WithBackgroundConnect() Option {
	return func(m *ConnectionManager) { m.background = true }
}

// NewConnectionManager подключается к брокеру (с повторами) и запускает
// фоновое восстановление соединения.
func NewConnectionManager(ctx context.Context, cfg Config, logger Logger, opts ...Option) (*ConnectionManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewNoopLogger()
	}

	m := &ConnectionManager{
		cfg:    cfg,
		dial:   amqp.Dial,
		closed: make(chan struct{}),
		Logger: logger,
	}
	m.newBackOff = m.defaultBackOff
	for _, opt := range opts {
		opt(m)
	}

	if m.background {
		go m.connectInBackground()
		return m, nil
	}

	if err := m.connect(ctx); err != nil {
		logger.Error(err, "ConnectionManager: initial connection failed")
		return nil, fmt.Errorf("initial connection failed: %w", err)
	}

	go m.watch()
	return m, nil
}

func (m *ConnectionManager) connectInBackground() {
	ctx, cancel := m.closedContext()
	defer cancel()

	if err := m.connect(ctx); err != nil {
		if !m.isClosed() {
			m.Logger.Error(err, "ConnectionManager: background connection gave up")
		}
		return
	}
	m.watch()
}

// closedContext отменяется при Close.
func (m *ConnectionManager) closedContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-m.closed:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func (m *ConnectionManager) defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = m.cfg.ReconnectMaxElapsed
	return b
}

func (m *ConnectionManager) connect(ctx context.Context) error {
	operation := func() error {
		select {
		case <-m.closed:
			return backoff.Permanent(fmt.Errorf("connection manager is closed"))
		default:
		}

		m.Logger.Debug("ConnectionManager: connecting...")
		conn, err := m.dial(m.cfg.URL)
		if err != nil {
			return fmt.Errorf("failed to dial RabbitMQ: %w", err)
		}

		m.mutex.Lock()
		if m.isClosed() {
			m.mutex.Unlock()
			_ = conn.Close()
			return backoff.Permanent(fmt.Errorf("connection manager is closed"))
		}
		m.connection = conn
		m.mutex.Unlock()
		m.Logger.Info("ConnectionManager: connected")
		return nil
	}

	notify := func(err error, wait time.Duration) {
		m.Logger.Warn("ConnectionManager: connection attempt failed", "error", err.Error(), "retry_in", wait.String())
	}

	return backoff.RetryNotify(operation, backoff.WithContext(m.newBackOff(), ctx), notify)
}

// watch ждет разрыва текущего соединения и переподключается.
func (m *ConnectionManager) watch() {
	for {
		m.mutex.RLock()
		conn := m.connection
		m.mutex.RUnlock()
		if conn == nil {
			return
		}

		notifyClose := conn.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-m.closed:
			return
		case amqpErr, ok := <-notifyClose:
			if m.isClosed() {
				return
			}
			if ok && amqpErr != nil {
				m.Logger.Warn("ConnectionManager: connection lost, reconnecting", "reason", amqpErr.Reason, "code", amqpErr.Code)
			} else {
				m.Logger.Warn("ConnectionManager: connection closed, reconnecting")
			}
		}

		ctx, cancel := m.closedContext()
		err := m.connect(ctx)
		cancel()
		if err != nil {
			m.Logger.Error(err, "ConnectionManager: reconnect gave up")
			return
		}
	}
}

func (m *ConnectionManager) isClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}

// GetChannel открывает новый канал на общем соединении.
func (m *ConnectionManager) GetChannel() (*amqp.Connection, *amqp.Channel, error) {
	m.mutex.RLock()
	conn := m.connection
	m.mutex.RUnlock()

	if conn == nil || conn.IsClosed() {
		return nil, nil, fmt.Errorf("ConnectionManager: not connected")
	}
	ch, err := conn.Channel()
	if err != nil {
		return conn, nil, fmt.Errorf("ConnectionManager: failed to open a channel: %w", err)
	}
	return conn, ch, nil
}

// Close останавливает переподключение и закрывает соединение.
func (m *ConnectionManager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.closed)

		m.mutex.Lock()
		defer m.mutex.Unlock()
		if m.connection != nil && !m.connection.IsClosed() {
			m.Logger.Debug("ConnectionManager: closing the connection...")
			if err = m.connection.Close(); err != nil {
				m.Logger.Error(err, "ConnectionManager: failed to close connection properly")
			}
		}
	})
	return err
}
