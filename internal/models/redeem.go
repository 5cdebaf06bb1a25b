package models

import (
	"time"

	"github.com/magabrotheeeer/archive-delivery/internal/tiers"
)

// RedeemCode одноразовый код активации платного тарифа.
// Код создается неиспользованным и переходит в использованное состояние
// ровно один раз, вместе с обновлением тарифа пользователя.
type RedeemCode struct {
	Code         string     // Шестисимвольный уникальный код
	PlanType     tiers.Tier // Тариф, который выдает код
	DurationDays int        // Длительность в днях
	IsUsed       bool
	UsedBy       *int64     // Кто активировал
	CreatedDate  time.Time
	UsedDate     *time.Time
}
