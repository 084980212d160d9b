package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type runFunc func(ctx context.Context) error

func (f runFunc) Run(ctx context.Context) error { return f(ctx) }

func TestBotFailureKeepsGroupRunning(t *testing.T) {
	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		return runBestEffort(ctx, runFunc(func(context.Context) error {
			return errors.New("bot auth: ACCESS_TOKEN_INVALID")
		}), zap.NewNop())
	})
	if err := g.Wait(); err != nil {
		t.Fatalf("сбой бота не должен возвращаться в группу: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatalf("сбой бота отменил общий контекст")
	}
}

func TestBotStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runBestEffort(ctx, runFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}), zap.NewNop())
	}()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("остановка по контексту вернула %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("бот не остановился")
	}
}
