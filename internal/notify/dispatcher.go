package notify

import (
	"context"
	"sync"
	"time"

	"Portfolio/internal/apierr"
	"Portfolio/internal/logger"
	"Portfolio/internal/metrics"
)

const defaultSendTimeout = 30 * time.Second

// Dispatcher отправляет уведомления в фоне. Результат отправки никак не влияет
// на вызывающего: ошибка попадает в лог и метрики.
type Dispatcher struct {
	notifier Notifier
	log      *logger.Logger
	metrics  *metrics.Metrics
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewDispatcher(n Notifier, log *logger.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{notifier: n, log: log.With("component", "notify"), metrics: m, timeout: defaultSendTimeout}
}

// Dispatch ставит отправку в фон и сразу возвращается. Отмена ctx запроса
// не прерывает отправку, значения контекста сохраняются.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) {
	if d == nil || d.notifier == nil {
		return
	}
	sendCtx := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		_ = d.deliver(sendCtx, n)
	}()
}

// Deliver отправляет синхронно и возвращает apierr.Notification при неудаче.
func (d *Dispatcher) Deliver(ctx context.Context, n Notification) error {
	if d == nil || d.notifier == nil {
		return apierr.Notification(n.Kind, ErrNoChannels)
	}
	return d.deliver(ctx, n)
}

func (d *Dispatcher) deliver(ctx context.Context, n Notification) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := d.notifier.Send(ctx, n)
	d.metrics.Notification(n.Kind, err)
	if err != nil {
		d.log.Error("Уведомление не доставлено", "kind", n.Kind, "subject", n.Subject, "duration", time.Since(start), "error", err)
		return apierr.Notification(n.Kind, err)
	}
	d.log.Info("Уведомление отправлено", "kind", n.Kind, "duration", time.Since(start))
	return nil
}

// Wait ждет завершения фоновых отправок (используется при остановке сервиса).
func (d *Dispatcher) Wait() {
	if d != nil {
		d.wg.Wait()
	}
}
