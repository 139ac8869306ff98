package server

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/changchangw/prospector/model"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	MIN_PLAYERS = 2
	MAX_PLAYERS = 4
)

func NewRegistry(cfg Config, dir *Directory) *Registry {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := &Registry{
		sessions:    make(map[string]*GameSession),
		Directory:   dir,
		archive:     newArchive(cfg.MaxRecordings),
		idleTimeout: cfg.IdleTimeout,
		rnd:         rand.New(rand.NewSource(seed)),
		now:         time.Now,
		newId:       uuid.NewString,
	}
	r.Clock = NewTurnClock(cfg.TurnLimit, r.expire)
	return r
}

func (r *Registry) newGrid(size int) *model.Grid {
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return model.NewGrid(size, r.rnd)
}

// Create opens a session with the creator in the first seat.
func (r *Registry) Create(gridSize, numPlayers int, creator model.Player) (model.GameState, error) {
	if gridSize < model.MIN_GRID_SIZE || gridSize > model.MAX_GRID_SIZE {
		return model.GameState{}, model.ErrInvalidGridSize
	}
	if numPlayers < MIN_PLAYERS || numPlayers > MAX_PLAYERS {
		return model.GameState{}, model.ErrInvalidNumPlayers
	}
	gs := newGameSession(r.newId(), r.newGrid(gridSize), numPlayers, creator, r.Directory, r.now)
	state := gs.snapshot()

	r.mu.Lock()
	r.sessions[gs.Id] = gs
	r.mu.Unlock()

	if r.Directory != nil {
		r.Directory.Ensure(creator.Identity, creator.Name)
	}
	log.WithFields(log.Fields{
		"game":    gs.Id,
		"size":    gridSize,
		"players": numPlayers,
		"creator": creator.Name,
	}).Info("Registry game created")
	return state, nil
}

func (r *Registry) lookup(gameId string) (*GameSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gs, ok := r.sessions[gameId]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return gs, nil
}

// Mutate runs fn under the session's own lock and returns the resulting
// snapshot. It is the only way to read or change a session.
func (r *Registry) Mutate(gameId string, fn func(gs *GameSession) error) (model.GameState, error) {
	gs, err := r.lookup(gameId)
	if err != nil {
		return model.GameState{}, err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if gs.evicted {
		return model.GameState{}, model.ErrGameNotFound
	}
	if err := fn(gs); err != nil {
		return model.GameState{}, err
	}
	return gs.snapshot(), nil
}

func (r *Registry) Join(gameId string, p model.Player) (model.GameState, error) {
	state, err := r.Mutate(gameId, func(gs *GameSession) error {
		if err := gs.join(p); err != nil {
			return err
		}
		if gs.State == GS_PLAY {
			r.Clock.arm(gs)
		}
		return nil
	})
	if err != nil {
		return state, err
	}
	if r.Directory != nil {
		r.Directory.Ensure(p.Identity, p.Name)
	}
	return state, nil
}

func (r *Registry) PlaceFence(gameId, playerId string, x, y int, o model.Orientation) (model.GameState, bool, error) {
	var claimed bool
	state, err := r.Mutate(gameId, func(gs *GameSession) error {
		var err error
		claimed, err = gs.applyMove(playerId, x, y, o)
		if err != nil {
			return err
		}
		r.Clock.sync(gs)
		return nil
	})
	return state, claimed, err
}

// Leave frees playerId's seat. evicted reports that the session was removed
// because nobody is left in it.
func (r *Registry) Leave(gameId, playerId string) (state model.GameState, evicted bool, err error) {
	state, err = r.Mutate(gameId, func(gs *GameSession) error {
		holder := gs.currentPlayerId()
		empty, err := gs.leave(playerId)
		if err != nil {
			return err
		}
		switch {
		case empty:
			r.evictLocked(gs, "last player left")
			gs.Players = gs.Players[:0]
			evicted = true
		case gs.State != GS_PLAY:
			r.Clock.sync(gs)
		case gs.currentPlayerId() != holder:
			r.Clock.arm(gs)
		}
		return nil
	})
	return state, evicted, err
}

// ForceAdvance passes the current turn without a move.
func (r *Registry) ForceAdvance(gameId string) (model.GameState, error) {
	return r.Mutate(gameId, func(gs *GameSession) error {
		if gs.State == GS_OVER {
			return model.ErrGameOver
		}
		if !gs.forceAdvance() {
			return model.ErrNotStarted
		}
		r.Clock.arm(gs)
		return nil
	})
}

func (r *Registry) Snapshot(gameId string) (model.GameState, error) {
	return r.Mutate(gameId, func(*GameSession) error { return nil })
}

// expire is the TurnClock callback.
func (r *Registry) expire(gameId string, generation uint64) {
	var fired bool
	state, err := r.Mutate(gameId, func(gs *GameSession) error {
		fired = r.Clock.fire(gs, generation)
		return nil
	})
	if err != nil || !fired {
		return
	}
	if r.OnUpdate != nil {
		r.OnUpdate(state, "Turn timed out")
	}
}

func (r *Registry) Evict(gameId string) error {
	_, err := r.Mutate(gameId, func(gs *GameSession) error {
		r.evictLocked(gs, "evicted")
		return nil
	})
	return err
}

// evictLocked removes gs from the registry. Caller holds gs.mu; the map lock
// is always taken after a session lock, never before.
func (r *Registry) evictLocked(gs *GameSession, reason string) {
	gs.evicted = true
	r.Clock.cancel(gs)
	if len(gs.Moves) > 0 {
		r.archive.put(gs.recording())
	}
	r.mu.Lock()
	delete(r.sessions, gs.Id)
	r.mu.Unlock()
	log.WithFields(log.Fields{"game": gs.Id, "reason": reason}).Info("Registry game removed")
}

func (r *Registry) all() []*GameSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*GameSession, 0, len(r.sessions))
	for _, gs := range r.sessions {
		list = append(list, gs)
	}
	return list
}

// Sweep evicts every session idle for longer than the idle timeout and
// returns how many went.
func (r *Registry) Sweep(now time.Time) int {
	if r.idleTimeout <= 0 {
		return 0
	}
	evicted := 0
	for _, gs := range r.all() {
		gs.mu.Lock()
		if !gs.evicted && now.Sub(gs.LastActivity) > r.idleTimeout {
			r.evictLocked(gs, "inactive")
			evicted++
		}
		gs.mu.Unlock()
	}
	return evicted
}

// Loop sweeps idle sessions every interval until ctx is done.
func (r *Registry) Loop(ctx context.Context, interval time.Duration) {
	log.Printf("Registry.Loop starting, sweeping every %v", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("Registry.Loop stopped")
			return
		case t := <-ticker.C:
			if n := r.Sweep(t); n > 0 {
				log.Infof("Registry.Loop evicted %d idle games", n)
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ListRecordings lists archived games followed by live ones, oldest first.
func (r *Registry) ListRecordings() []model.RecordingSummary {
	list := r.archive.summaries()
	live := make([]model.RecordingSummary, 0)
	for _, gs := range r.all() {
		gs.mu.Lock()
		if !gs.evicted {
			live = append(live, gs.recording().RecordingSummary)
		}
		gs.mu.Unlock()
	}
	sort.Slice(live, func(i, j int) bool {
		return live[i].CreatedAt.Before(live[j].CreatedAt)
	})
	return append(list, live...)
}

func (r *Registry) Recording(gameId string) (model.Recording, error) {
	var rec model.Recording
	_, err := r.Mutate(gameId, func(gs *GameSession) error {
		rec = gs.recording()
		return nil
	})
	if err == nil {
		return rec, nil
	}
	if archived, ok := r.archive.get(gameId); ok {
		return archived, nil
	}
	return model.Recording{}, model.ErrRecordingNotFound
}
