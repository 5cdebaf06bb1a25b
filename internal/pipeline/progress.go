package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/archive-delivery/internal/lib/format"
)

// progressReporter отправляет прогресс передачи не чаще одного раза за
// заданный интервал, независимо от размера чанков. Пропущенные промежуточные
// состояния не досылаются: очередное сообщение отражает последнее измеренное
// состояние на момент отправки. Скорость считается средней за всю передачу,
// а не по последнему интервалу, поэтому кратковременные провалы сети не
// раскачивают ETA.
type progressReporter struct {
	tr      Transport
	limiter *rate.Limiter
	action  string
	start   time.Time
}

func newProgressReporter(tr Transport, interval time.Duration, action string) *progressReporter {
	return &progressReporter{
		tr:      tr,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		action:  action,
		start:   time.Now(),
	}
}

// Update публикует текущее состояние, если интервал с прошлой публикации
// истек. Завершающий вызов (current == total) пропускается: финальное
// сообщение отправляет сама стадия.
func (r *progressReporter) Update(ctx context.Context, current, total int64) {
	if total > 0 && current == total {
		return
	}
	if !r.limiter.Allow() {
		return
	}

	elapsed := time.Since(r.start)
	var speed float64
	if elapsed > 0 {
		speed = float64(current) / elapsed.Seconds()
	}
	var eta time.Duration
	if speed > 0 {
		eta = time.Duration(float64(total-current)/speed) * time.Second
	}

	text := fmt.Sprintf("%s\n\n%s\nSize: %s / %s\nSpeed: %s/s\nETA: %s",
		r.action,
		format.ProgressBar(current, total, 15),
		format.Size(current), format.Size(total),
		format.Size(int64(speed)),
		format.Duration(eta))

	// Сбой отправки прогресса не влияет на задание.
	_ = r.tr.SendProgress(ctx, text)
}
