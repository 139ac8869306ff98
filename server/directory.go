package server

import (
	"strings"
	"sync"

	"github.com/changchangw/prospector/model"
	log "github.com/sirupsen/logrus"
)

type Outcome int

const (
	OutcomeWin Outcome = iota + 1
	OutcomeLoss
	OutcomeDraw
)

func (o Outcome) Name() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	case OutcomeDraw:
		return "draw"
	default:
		return "n/a"
	}
}

// Directory keeps win/loss/draw tallies across sessions, keyed by durable
// identity rather than connection id.
type Directory struct {
	mu      sync.RWMutex
	entries map[string]*model.Stats
}

func NewDirectory() *Directory {
	return &Directory{entries: make(map[string]*model.Stats)}
}

// IdentityFor derives the durable key for a player: the normalised display
// name, or the connection id for anonymous players.
func IdentityFor(name, connectionId string) string {
	identity := strings.ToLower(strings.TrimSpace(name))
	if identity == "" {
		return connectionId
	}
	return identity
}

func (d *Directory) Ensure(identity, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entry(identity, name)
}

func (d *Directory) entry(identity, name string) *model.Stats {
	e, ok := d.entries[identity]
	if !ok {
		e = &model.Stats{Identity: identity, Name: name}
		d.entries[identity] = e
	}
	return e
}

func (d *Directory) RecordOutcome(identity, name string, outcome Outcome) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e := d.entry(identity, name)
	switch outcome {
	case OutcomeWin:
		e.Wins++
	case OutcomeLoss:
		e.Losses++
	case OutcomeDraw:
		e.Draws++
	default:
		log.Warnf("Directory.RecordOutcome unexpected outcome %d for %s", outcome, identity)
		return
	}
	log.WithFields(log.Fields{"identity": identity, "outcome": outcome.Name()}).Debug("outcome recorded")
}

func (d *Directory) Stats(identity string) (model.Stats, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[identity]
	if !ok {
		return model.Stats{}, model.ErrPlayerNotFound
	}
	return *e, nil
}
