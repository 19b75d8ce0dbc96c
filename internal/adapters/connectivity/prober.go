package connectivity

import (
	"context"
	"favorites-sync/internal/contextkeys"
	"favorites-sync/internal/core/port"
	"fmt"
	"sync"
	"time"
)

type probeState int

const (
	stateUnknown probeState = iota
	stateOffline
	stateOnline
)

func (s probeState) String() string {
	switch s {
	case stateOffline:
		return "offline"
	case stateOnline:
		return "online"
	default:
		return "unknown"
	}
}

// ProberConfig - параметры периодической проверки.
type ProberConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Prober - оракул, который периодически опрашивает HealthChecker.
// Пока не было ни одной проверки, сеть считается доступной.
// Подписчики вызываются на горутине опроса при переходах
// unknown -> online и offline -> online.
type Prober struct {
	checker port.HealthCheckerPort
	cfg     ProberConfig
	logger  port.LoggerPort

	mu    sync.RWMutex
	state probeState
	subs  *subscribers
}

func NewProber(checker port.HealthCheckerPort, cfg ProberConfig, logger port.LoggerPort) (*Prober, error) {
	if checker == nil {
		return nil, fmt.Errorf("health checker cannot be nil")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if logger == nil {
		logger = contextkeys.NoopLogger()
	}
	return &Prober{
		checker: checker,
		cfg:     cfg,
		logger:  logger.WithFields(port.Fields{"component": "ConnectivityProber"}),
		subs:    newSubscribers(),
	}, nil
}

func (p *Prober) IsOnline(ctx context.Context) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state != stateOffline
}

func (p *Prober) OnBecameOnline(callback func(ctx context.Context)) func() {
	return p.subs.add(callback)
}

// ProbeOnce выполняет одну проверку и возвращает текущее состояние.
func (p *Prober) ProbeOnce(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	err := p.checker.Check(checkCtx)
	cancel()

	next := stateOnline
	if err != nil {
		next = stateOffline
	}

	p.mu.Lock()
	prev := p.state
	p.state = next
	p.mu.Unlock()

	if prev != next {
		fields := port.Fields{"from": prev.String(), "to": next.String()}
		if err != nil {
			p.logger.Warn("Connectivity lost", port.Fields{"from": prev.String(), "error": err.Error()})
		} else {
			p.logger.Info("Connectivity state changed", fields)
		}
	}

	if next == stateOnline && prev != stateOnline {
		p.subs.notify(contextkeys.ContextWithLogger(ctx, p.logger))
	}
	return next == stateOnline
}

// Run опрашивает checker до отмены контекста. Первая проверка - сразу.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.logger.Info("Connectivity prober started", port.Fields{"interval": p.cfg.Interval.String()})
	for {
		p.ProbeOnce(ctx)
		select {
		case <-ctx.Done():
			p.logger.Info("Connectivity prober stopped", nil)
			return
		case <-ticker.C:
		}
	}
}
