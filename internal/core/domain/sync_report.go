package domain

import "time"

// ReplayReport - результат одного прохода воспроизведения очереди.
type ReplayReport struct {
	UserID    string
	Total     int // длина очереди на момент старта
	Applied   int // успешно примененные шаги
	Remaining int // шаги, оставшиеся в очереди
}

// Drained - очередь полностью воспроизведена.
func (r ReplayReport) Drained() bool {
	return r.Remaining == 0
}

// SyncReport - событие "синхронизация завершена", публикуется после
// полного воспроизведения непустой очереди.
type SyncReport struct {
	UserID     string     `json:"user_id"`
	Applied    int        `json:"applied"`
	Favorites  []Favorite `json:"favorites"`
	FinishedAt time.Time  `json:"finished_at"`
}
