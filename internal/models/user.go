// Package models содержит доменные структуры сервиса доставки архивов:
// пользователей, журнал скачиваний, коды активации, настройки и задания.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import (
	"time"

	"github.com/magabrotheeeer/archive-delivery/internal/tiers"
)

// User представляет зарегистрированного пользователя сервиса.
type User struct {
	ID            int64      // Идентификатор пользователя на чат-платформе
	Username      string     // Имя пользователя
	FirstName     string     // Отображаемое имя
	JoinDate      time.Time  // Дата регистрации
	Tier          tiers.Tier // Текущий тарифный уровень
	PremiumExpiry *time.Time // Дата истечения платного тарифа, nil для free
	DailyCount    int        // Число обработанных файлов за текущие сутки
	LastReset     time.Time  // Момент последнего сброса суточного счетчика
	IsBanned      bool       // Флаг заблокированного пользователя
}

// DownloadLog одна запись журнала скачиваний.
type DownloadLog struct {
	UserID    int64
	Filename  string
	Size      int64
	Timestamp time.Time
}
