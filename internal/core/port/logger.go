package port

// Fields - структурированные поля записи лога.
type Fields map[string]interface{}

// LoggerPort - логгер, с которым работают ядро и адаптеры.
// Конкретная реализация (slog, Fluent Bit, их комбинация) выбирается в app.go.
type LoggerPort interface {
	Debug(msg string, fields Fields)
	Info(msg string, fields Fields)
	Warn(msg string, fields Fields)
	// Error пишет запись уровня error; err может быть nil.
	Error(msg string, err error, fields Fields)

	// WithFields возвращает логгер, добавляющий fields к каждой записи.
	WithFields(fields Fields) LoggerPort
}
