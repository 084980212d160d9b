package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"roommate_go/models"

	"github.com/gotd/td/tg"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []*tg.MessagesSendMessageRequest
	err  error
}

func (f *fakeSender) MessagesSendMessage(_ context.Context, req *tg.MessagesSendMessageRequest) (tg.UpdatesClass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, req)
	return &tg.Updates{}, f.err
}

func TestBotDeliversQueuedMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bot := NewBot(BotConfig{}, nil)
	api := &fakeSender{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bot.serve(ctx, api)
	}()

	spans := []models.FormatSpan{{Option: models.SpanBold, Offset: 0, Length: 4}}
	if err := bot.Notify(ctx, 42, "Анна, привет", spans); err != nil {
		t.Fatalf("уведомление не отправлено: %v", err)
	}
	cancel()
	<-done

	if len(api.sent) != 1 {
		t.Fatalf("отправлено %d сообщений, ожидалось 1", len(api.sent))
	}
	req := api.sent[0]
	peer, ok := req.Peer.(*tg.InputPeerUser)
	if !ok || peer.UserID != 42 || req.Message != "Анна, привет" {
		t.Fatalf("неверный запрос: %+v", req)
	}
	if len(req.Entities) != 1 {
		t.Fatalf("разметка потеряна: %+v", req.Entities)
	}
}

func TestNotifyReportsSendError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bot := NewBot(BotConfig{}, nil)
	go func() { _ = bot.serve(ctx, &fakeSender{err: errors.New("FLOOD_WAIT")}) }()

	if err := bot.Notify(ctx, 1, "текст", nil); err == nil {
		t.Fatalf("ожидалась ошибка отправки")
	}
}

func TestNotifyHonoursContext(t *testing.T) {
	bot := NewBot(BotConfig{}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := bot.Notify(ctx, 1, "текст", nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("без обработчика очереди ожидался таймаут, получено %v", err)
	}
}

func TestEntitiesRoundTrip(t *testing.T) {
	spans := []models.FormatSpan{
		{Option: models.SpanBold, Offset: 0, Length: 3},
		{Option: models.SpanLink, Offset: 4, Length: 2, URL: "https://t.me"},
		{Option: models.SpanCode, Offset: 7, Length: 5, Language: "go"},
	}
	back := FromEntities(ToEntities(spans))
	if len(back) != len(spans) {
		t.Fatalf("получено %d фрагментов, ожидалось %d", len(back), len(spans))
	}
	for i := range spans {
		if back[i] != spans[i] {
			t.Fatalf("фрагмент %d: %+v != %+v", i, back[i], spans[i])
		}
	}
	if _, ok := SpanFromBotAPI("mention", 0, 1, "", ""); ok {
		t.Fatalf("mention не должен переводиться в разметку")
	}
}
