package rabbitmq_adapter

import (
	"favorites-sync/internal/core/port"
	"favorites-sync/pkg/rabbitmq/rabbitmq_common"
	"fmt"
)

// pkgLoggerBridge пишет логи пакетов pkg/rabbitmq (пары ключ-значение)
// через LoggerPort приложения.
type pkgLoggerBridge struct {
	logger port.LoggerPort
}

func NewPkgLoggerBridge(logger port.LoggerPort) rabbitmq_common.Logger {
	return &pkgLoggerBridge{logger: logger}
}

// fields превращает пары в port.Fields. Нестроковый ключ приводится к строке,
// значение без пары попадает под ключ "!BADKEY", как в slog.
func fields(keysAndValues []interface{}) port.Fields {
	if len(keysAndValues) == 0 {
		return nil
	}
	result := make(port.Fields, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 == len(keysAndValues) {
			result["!BADKEY"] = keysAndValues[i]
			break
		}
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		result[key] = keysAndValues[i+1]
	}
	return result
}

func (b *pkgLoggerBridge) Debug(msg string, keysAndValues ...interface{}) {
	b.logger.Debug(msg, fields(keysAndValues))
}

func (b *pkgLoggerBridge) Info(msg string, keysAndValues ...interface{}) {
	b.logger.Info(msg, fields(keysAndValues))
}

func (b *pkgLoggerBridge) Warn(msg string, keysAndValues ...interface{}) {
	b.logger.Warn(msg, fields(keysAndValues))
}

func (b *pkgLoggerBridge) Error(err error, msg string, keysAndValues ...interface{}) {
	b.logger.Error(msg, err, fields(keysAndValues))
}
