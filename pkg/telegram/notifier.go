package telegram

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"time"

	"roommate_go/internal/common"
	"roommate_go/models"

	"github.com/go-faster/errors"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

// ErrBotStopped — бот остановлен, сообщение не отправлено.
var ErrBotStopped = errors.New("telegram bot stopped")

// BotConfig — параметры MTProto-клиента бота.
type BotConfig struct {
	AppID   int
	AppHash string
	Token   string
	// Storage хранит сессию между запусками; nil означает сессию в памяти.
	Storage session.Storage
	// Pause — пауза между отправками, чтобы не упираться в лимиты Telegram.
	Pause [2]time.Duration
}

// sender — часть tg.Client, нужная для отправки.
type sender interface {
	MessagesSendMessage(ctx context.Context, request *tg.MessagesSendMessageRequest) (tg.UpdatesClass, error)
}

type outgoing struct {
	telegramID int64
	text       string
	spans      []models.FormatSpan
	done       chan error
}

// Bot отправляет уведомления пользователям через одну очередь.
type Bot struct {
	cfg    BotConfig
	log    *zap.Logger
	outbox chan outgoing
	stop   chan struct{}
}

// NewBot создаёт бота; без cfg.Storage сессия живёт только в памяти.
func NewBot(cfg BotConfig, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Storage == nil {
		cfg.Storage = &session.StorageMemory{}
	}
	return &Bot{cfg: cfg, log: log, outbox: make(chan outgoing), stop: make(chan struct{})}
}

// Notify ставит сообщение в очередь и ждёт результата отправки.
func (b *Bot) Notify(ctx context.Context, telegramID int64, text string, spans []models.FormatSpan) error {
	m := outgoing{telegramID: telegramID, text: text, spans: spans, done: make(chan error, 1)}
	select {
	case b.outbox <- m:
	case <-b.stop:
		return ErrBotStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-m.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run авторизует бота и обслуживает очередь до отмены ctx.
func (b *Bot) Run(ctx context.Context) error {
	defer close(b.stop)
	client := telegram.NewClient(b.cfg.AppID, b.cfg.AppHash, telegram.Options{
		SessionStorage: b.cfg.Storage,
		Logger:         b.log.Named("mtproto"),
	})
	return client.Run(ctx, func(ctx context.Context) error {
		status, err := client.Auth().Status(ctx)
		if err != nil {
			return errors.Wrap(err, "auth status")
		}
		if !status.Authorized {
			if _, err := client.Auth().Bot(ctx, b.cfg.Token); err != nil {
				return errors.Wrap(err, "bot auth")
			}
		}
		b.log.Info("[BOT] бот авторизован")
		return b.serve(ctx, client.API())
	})
}

func (b *Bot) serve(ctx context.Context, api sender) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-b.outbox:
			m.done <- deliver(ctx, api, m)
			if err := common.Pause(ctx, b.cfg.Pause); err != nil {
				return nil
			}
		}
	}
}

func deliver(ctx context.Context, api sender, m outgoing) error {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return errors.Wrap(err, "random id")
	}
	_, err := api.MessagesSendMessage(ctx, &tg.MessagesSendMessageRequest{
		Peer:     &tg.InputPeerUser{UserID: m.telegramID},
		Message:  m.text,
		Entities: ToEntities(m.spans),
		RandomID: int64(binary.LittleEndian.Uint64(buf[:])),
	})
	if err != nil {
		return errors.Wrapf(err, "send message to %d", m.telegramID)
	}
	return nil
}
