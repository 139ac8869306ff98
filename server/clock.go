package server

import (
	"time"

	log "github.com/sirupsen/logrus"
)

const DEFAULT_TURN_LIMIT = 60 * time.Second

// TurnClock forces the turn forward when its holder stalls. It keeps no state
// of its own: the timer and its generation live on the session and are only
// touched under the session lock.
type TurnClock struct {
	Limit  time.Duration
	expire func(gameId string, generation uint64)
}

func NewTurnClock(limit time.Duration, expire func(gameId string, generation uint64)) *TurnClock {
	if limit <= 0 {
		limit = DEFAULT_TURN_LIMIT
	}
	return &TurnClock{Limit: limit, expire: expire}
}

// arm restarts the countdown for the current turn. Caller holds gs.mu.
func (c *TurnClock) arm(gs *GameSession) {
	gs.generation++
	if gs.timer != nil {
		gs.timer.Stop()
	}
	gs.TurnDeadline = gs.now().Add(c.Limit)
	gameId, generation := gs.Id, gs.generation
	gs.timer = time.AfterFunc(c.Limit, func() {
		c.expire(gameId, generation)
	})
}

// cancel stops the countdown for good. A callback already in flight sees a
// newer generation and does nothing. Caller holds gs.mu.
func (c *TurnClock) cancel(gs *GameSession) {
	gs.generation++
	if gs.timer != nil {
		gs.timer.Stop()
		gs.timer = nil
	}
	gs.TurnDeadline = time.Time{}
}

// sync arms or cancels to match the session state. Caller holds gs.mu.
func (c *TurnClock) sync(gs *GameSession) {
	if gs.State == GS_PLAY && !gs.evicted {
		c.arm(gs)
		return
	}
	if gs.timer != nil || !gs.TurnDeadline.IsZero() {
		c.cancel(gs)
	}
}

// fire is the expiry path, run under the session lock by Registry.Mutate.
func (c *TurnClock) fire(gs *GameSession, generation uint64) bool {
	if generation != gs.generation || gs.evicted {
		log.WithField("game", gs.Id).Debug("TurnClock stale timer ignored")
		return false
	}
	if !gs.forceAdvance() {
		c.cancel(gs)
		return false
	}
	c.arm(gs)
	return true
}
