package maintenance

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// runTimeout ограничивает один запуск сверки.
const runTimeout = 10 * time.Minute

// Scheduler запускает сверку по расписанию cron.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

// NewScheduler регистрирует сверку с расписанием schedule, например "@every 6h".
// Пересекающиеся запуски пропускаются.
func NewScheduler(r *Reconciler, schedule string, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if _, err := r.Run(ctx); err != nil {
			log.Error("[MAINTENANCE] сверка завершилась ошибкой", zap.Error(err))
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "parse schedule %q", schedule)
	}
	return &Scheduler{cron: c, log: log}, nil
}

// Run работает до отмены ctx и дожидается текущего запуска.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.log.Info("[MAINTENANCE] планировщик запущен")
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}
