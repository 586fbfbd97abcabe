package bptree

import (
	"log/slog"

	"github.com/ryogrid/go-bplustree-index/bufferpool"
	"github.com/ryogrid/go-bplustree-index/pageid"
)

// loggingPool wraps a bufferpool.Manager so that pool-exhaustion and
// corrupt-page errors get a slog.Warn before they propagate up through
// the tree's own error returns.
type loggingPool struct {
	bufferpool.Manager
	log *slog.Logger
}

func (p *loggingPool) warn(op string, id pageid.PageID, err error) {
	if err == bufferpool.ErrPoolExhausted || err == bufferpool.ErrCorruptPage {
		p.log.Warn("bptree: pool error", "op", op, "page", id.String(), "err", err)
	}
}

func (p *loggingPool) FetchRead(id pageid.PageID) (bufferpool.ReadGuard, error) {
	g, err := p.Manager.FetchRead(id)
	if err != nil {
		p.warn("FetchRead", id, err)
	}
	return g, err
}

func (p *loggingPool) FetchWrite(id pageid.PageID) (bufferpool.WriteGuard, error) {
	g, err := p.Manager.FetchWrite(id)
	if err != nil {
		p.warn("FetchWrite", id, err)
	}
	return g, err
}

func (p *loggingPool) NewPage() (bufferpool.WriteGuard, pageid.PageID, error) {
	g, id, err := p.Manager.NewPage()
	if err != nil {
		p.warn("NewPage", id, err)
	}
	return g, id, err
}
