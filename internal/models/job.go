package models

import "time"

// ArchiveRequest описывает один входящий запрос на распаковку архива.
type ArchiveRequest struct {
	UserID   int64
	FileName string // Имя исходного архива
	FileSize int64  // Заявленный размер в байтах
	Source   string // Ссылка или ссылка-референс на файл у транспорта
	Password string // Пароль архива, пустая строка если не задан
}

// JobEvent событие жизненного цикла задания, публикуется в очередь.
type JobEvent struct {
	UserID    int64     `json:"user_id"`
	Filename  string    `json:"filename"`
	Status    string    `json:"status"`
	Delivered int       `json:"delivered"`
	Total     int       `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// ExpiryNotice уведомление об истекающем платном тарифе.
type ExpiryNotice struct {
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	Tier     string    `json:"tier"`
	Expiry   time.Time `json:"expiry"`
}
