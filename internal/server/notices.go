package server

import (
	"context"
	"sync"

	"pmboard/internal/board"
)

type noticeKey struct{}

// noticeSink gathers the notices raised while serving one request so they
// can be returned with the response.
type noticeSink struct {
	mu      sync.Mutex
	notices []board.Notice
}

func (s *noticeSink) list() []board.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]board.Notice, len(s.notices))
	copy(out, s.notices)
	return out
}

func withNoticeSink(ctx context.Context) (context.Context, *noticeSink) {
	sink := &noticeSink{}
	return context.WithValue(ctx, noticeKey{}, sink), sink
}

// noticeCollector logs every notice, forwards it, and records it on the
// request's sink when there is one.
type noticeCollector struct {
	log  board.LogNotifier
	next board.Notifier
}

func (n *noticeCollector) Notify(ctx context.Context, notice board.Notice) {
	n.log.Notify(ctx, notice)
	if n.next != nil {
		n.next.Notify(ctx, notice)
	}
	if sink, ok := ctx.Value(noticeKey{}).(*noticeSink); ok {
		sink.mu.Lock()
		sink.notices = append(sink.notices, notice)
		sink.mu.Unlock()
	}
}
