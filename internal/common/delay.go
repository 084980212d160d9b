package common

import (
	"context"
	"math/rand"
	"time"
)

// pauseStep ограничивает одно ожидание, чтобы отмена контекста замечалась быстро.
const pauseStep = time.Second

// Pause ждёт случайное время из [min, max] и прерывается при отмене ctx.
func Pause(ctx context.Context, bounds [2]time.Duration) error {
	delay := bounds[0]
	if spread := bounds[1] - bounds[0]; spread > 0 {
		delay += time.Duration(rand.Int63n(int64(spread) + 1))
	}
	for remaining := delay; remaining > 0; {
		step := min(remaining, pauseStep)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(step):
		}
		remaining -= step
	}
	return ctx.Err()
}
