package common

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPauseWaitsWithinBounds(t *testing.T) {
	start := time.Now()
	if err := Pause(context.Background(), [2]time.Duration{10 * time.Millisecond, 20 * time.Millisecond}); err != nil {
		t.Fatalf("пауза вернула ошибку: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Fatalf("пауза короче нижней границы: %v", elapsed)
	}
}

func TestPauseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	err := Pause(ctx, [2]time.Duration{time.Minute, time.Minute})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("ожидалась context.Canceled, получено %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("отмена замечена слишком поздно")
	}
}

func TestPauseZero(t *testing.T) {
	if err := Pause(context.Background(), [2]time.Duration{}); err != nil {
		t.Fatalf("нулевая пауза вернула ошибку: %v", err)
	}
}
