package server

import (
	"sync"

	"github.com/changchangw/prospector/model"
	"github.com/eapache/queue"
)

// archive keeps the move logs of evicted sessions, dropping the oldest once
// limit is reached.
type archive struct {
	mu    sync.RWMutex
	limit int
	byId  map[string]model.Recording
	order *queue.Queue
}

func newArchive(limit int) *archive {
	return &archive{
		limit: limit,
		byId:  make(map[string]model.Recording),
		order: queue.New(),
	}
}

func (a *archive) put(rec model.Recording) {
	if a.limit <= 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.byId[rec.GameId]; ok {
		return
	}
	a.byId[rec.GameId] = rec
	a.order.Add(rec.GameId)
	for a.order.Length() > a.limit {
		oldest := a.order.Remove().(string)
		delete(a.byId, oldest)
	}
}

func (a *archive) get(gameId string) (model.Recording, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	rec, ok := a.byId[gameId]
	return rec, ok
}

// summaries lists archived games oldest first.
func (a *archive) summaries() []model.RecordingSummary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]model.RecordingSummary, 0, a.order.Length())
	for i := 0; i < a.order.Length(); i++ {
		out = append(out, a.byId[a.order.Get(i).(string)].RecordingSummary)
	}
	return out
}
