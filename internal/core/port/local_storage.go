package port

import "context"

// LocalStoragePort - персистентное key-value хранилище устройства.
type LocalStoragePort interface {
	// Get возвращает ok=false, если ключа нет.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
