// Package tiers описывает закрытое перечисление тарифных уровней пользователя
// и статические таблицы лимитов и цен. Таблицы заданы кодом, а не конфигом:
// набор тарифов фиксирован и меняется только вместе с релизом.
package tiers

import "fmt"

// Tier представляет тарифный уровень пользователя.
type Tier string

const (
	// Free базовый бесплатный тариф.
	Free Tier = "free"
	// Premium платный тариф.
	Premium Tier = "premium"
	// UltraPremium расширенный платный тариф.
	UltraPremium Tier = "ultra_premium"
)

// Level возвращает числовой ранг тарифа для сравнения уровней.
// Неизвестный тариф считается бесплатным.
func (t Tier) Level() int {
	switch t {
	case Premium:
		return 1
	case UltraPremium:
		return 2
	default:
		return 0
	}
}

// Parse преобразует строку из хранилища в Tier.
func Parse(s string) (Tier, error) {
	switch Tier(s) {
	case Free, Premium, UltraPremium:
		return Tier(s), nil
	default:
		return Free, fmt.Errorf("tiers.Parse: unknown tier %q", s)
	}
}

// Limit описывает лимиты тарифа: число файлов в сутки и максимальный размер архива.
type Limit struct {
	DailyFiles   int
	MaxSizeBytes int64
}

const gib = 1 << 30

// LimitFor возвращает лимиты тарифа. Для неизвестного тарифа
// возвращаются лимиты бесплатного.
func LimitFor(t Tier) Limit {
	switch t {
	case Premium:
		return Limit{DailyFiles: 15, MaxSizeBytes: 2 * gib}
	case UltraPremium:
		return Limit{DailyFiles: 50, MaxSizeBytes: 2 * gib}
	default:
		return Limit{DailyFiles: 1, MaxSizeBytes: 1 * gib}
	}
}

// Price цена плана в двух валютах.
type Price struct {
	INR  int
	USDT float64
}

// PlanPrice возвращает цену тарифа на заданное число дней.
// Второе значение false, если такой план не продается.
func PlanPrice(t Tier, days int) (Price, bool) {
	type key struct {
		t    Tier
		days int
	}
	prices := map[key]Price{
		{Premium, 1}:       {INR: 5, USDT: 0.05},
		{Premium, 7}:       {INR: 30, USDT: 0.30},
		{Premium, 30}:      {INR: 90, USDT: 0.90},
		{UltraPremium, 1}:  {INR: 15, USDT: 0.15},
		{UltraPremium, 7}:  {INR: 50, USDT: 0.50},
		{UltraPremium, 30}: {INR: 140, USDT: 1.40},
	}
	p, ok := prices[key{t, days}]
	return p, ok
}

// PlanDurations допустимые длительности планов в днях.
func PlanDurations() []int {
	return []int{1, 7, 30}
}
