package port

import "context"

// ConnectivityOraclePort сообщает о доступности сети.
type ConnectivityOraclePort interface {
	IsOnline(ctx context.Context) bool

	// OnBecameOnline подписывает callback на переход офлайн -> онлайн.
	// Возвращает функцию отписки.
	OnBecameOnline(callback func(ctx context.Context)) (unsubscribe func())
}

// HealthCheckerPort - одна проверка доступности удаленной стороны.
type HealthCheckerPort interface {
	Check(ctx context.Context) error
}
