package handlers

import (
	"context"

	"go.uber.org/zap"
)

// outbox копит исходящие сообщения одного перехода. Они уходят только после
// успешного коммита сессии; при ошибке обработчика всё выбрасывается.
type outbox struct {
	items []outgoing
}

type outgoing struct {
	name string
	fn   func(ctx context.Context) error
}

type outboxKey struct{}

func withOutbox(ctx context.Context) (context.Context, *outbox) {
	box := &outbox{}
	return context.WithValue(ctx, outboxKey{}, box), box
}

func outboxFrom(ctx context.Context) *outbox {
	box, _ := ctx.Value(outboxKey{}).(*outbox)
	return box
}

func (o *outbox) add(name string, fn func(ctx context.Context) error) {
	o.items = append(o.items, outgoing{name: name, fn: fn})
}

func (o *outbox) len() int { return len(o.items) }

// flush отправляет по порядку. Сессия уже закоммичена, поэтому ошибки только логируются.
func (o *outbox) flush(ctx context.Context, log *zap.SugaredLogger) int {
	failed := 0
	for _, it := range o.items {
		if err := it.fn(ctx); err != nil {
			failed++
			log.Warnf("[OUTBOX] Ошибка отправки %s: %v", it.name, err)
		}
	}
	o.items = nil
	return failed
}
