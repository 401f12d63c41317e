package channel

import (
	"context"
	"sort"

	"github.com/golang/glog"

	"PaintBoard/internal/state"
	"PaintBoard/internal/store"
)

// Replay rebuilds the canvas from every persisted batch.
func (c *Channel) Replay(ctx context.Context) (int, error) {
	return c.LoadBatches(ctx, store.Query{Type: state.TypeLines}, 0, c.cfg.PageSize)
}

// LoadBatches emits the segments of every batch matching q, oldest first,
// starting at offset and reading pageSize documents per page. It reads at
// most ReplayCap documents and returns the number of batches emitted.
//
// A failed query ends the replay without retry; the canvas stays partially
// rebuilt and live edits still apply on top. A clear while a page is in
// flight makes its results stale and they are discarded.
func (c *Channel) LoadBatches(ctx context.Context, q store.Query, offset, pageSize int) (int, error) {
	if pageSize <= 0 {
		pageSize = c.cfg.PageSize
	}
	epoch := c.epoch.Current()
	emitted := 0

	for {
		if ctx.Err() != nil || c.isClosed() {
			glog.V(2).Infof("[replay] stopped at offset %d", offset)
			return emitted, nil
		}

		n, err := c.backend.Count(ctx, q)
		if err != nil {
			glog.Errorf("[replay] count: %v", err)
			return emitted, &PersistenceError{Op: "count", Err: err}
		}
		if n == 0 {
			return emitted, nil
		}

		size := pageSize
		if limit := min(n, c.cfg.ReplayCap); offset+size > limit {
			size = limit - offset
		}
		if size <= 0 {
			return emitted, nil
		}

		res, err := c.backend.Search(ctx, q, store.ByTimestamp, store.Page{From: offset, Size: size})
		if err != nil {
			glog.Errorf("[replay] search at offset %d: %v", offset, err)
			return emitted, &PersistenceError{Op: "search", Err: err}
		}
		if c.epoch.Stale(epoch) {
			glog.Infof("[replay] canvas cleared during replay, discarding page at offset %d", offset)
			return emitted, nil
		}
		if len(res.Documents) == 0 {
			return emitted, nil
		}

		drawn, stale := c.emitPage(res.Documents, epoch)
		emitted += drawn
		if stale {
			glog.Infof("[replay] canvas cleared while drawing page at offset %d", offset)
			return emitted, nil
		}

		if offset+pageSize >= min(res.Total, c.cfg.ReplayCap) {
			glog.V(2).Infof("[replay] done, %d batches", emitted)
			return emitted, nil
		}
		offset += pageSize
	}
}

// emitPage draws docs in timestamp order and stops at the first batch
// that a clear has made stale.
func (c *Channel) emitPage(docs []store.Document, epoch uint64) (int, bool) {
	batches := make([]state.Batch, 0, len(docs))
	for _, d := range docs {
		if d.Body.Type != state.TypeLines {
			continue
		}
		b, err := d.Body.Batch()
		if err != nil {
			glog.Warningf("[replay] skipping document %s: %v", d.ID, err)
			continue
		}
		batches = append(batches, b)
	}
	// Order comes from the persisted timestamp, never from arrival.
	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].Timestamp < batches[j].Timestamp
	})

	for i, b := range batches {
		if c.epoch.Stale(epoch) {
			return i, true
		}
		for _, seg := range b.Segments {
			c.sink.Draw(seg)
		}
	}
	return len(batches), false
}
