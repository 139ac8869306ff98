package server

import (
	"time"

	"github.com/changchangw/prospector/model"
	log "github.com/sirupsen/logrus"
)

func newGameSession(id string, grid *model.Grid, numPlayers int, creator model.Player, dir *Directory, now func() time.Time) *GameSession {
	t := now()
	creator.Score = 0
	return &GameSession{
		Id:           id,
		State:        GS_WAIT,
		Grid:         grid,
		Players:      []model.Player{creator},
		NumPlayers:   numPlayers,
		CreatedAt:    t,
		LastActivity: t,
		Moves:        make([]model.Move, 0),
		directory:    dir,
		now:          now,
	}
}

func (gs *GameSession) seat(playerId string) int {
	for i, p := range gs.Players {
		if p.Id == playerId {
			return i
		}
	}
	return -1
}

// join seats p. Filling the last seat starts the match.
func (gs *GameSession) join(p model.Player) error {
	if gs.State == GS_OVER {
		return model.ErrGameOver
	}
	if len(gs.Players) >= gs.NumPlayers {
		return model.ErrGameFull
	}
	if gs.State != GS_WAIT {
		// seats freed by a leave stay empty
		return model.ErrGameStarted
	}
	if gs.seat(p.Id) >= 0 {
		return model.ErrAlreadyJoined
	}
	p.Score = 0
	gs.Players = append(gs.Players, p)
	gs.LastActivity = gs.now()
	if len(gs.Players) == gs.NumPlayers {
		gs.State = GS_PLAY
		gs.Current = 0
		log.WithField("game", gs.Id).Info("GameSession all seats taken, game starts")
	}
	return nil
}

// applyMove places one fence for playerId. It reports whether any cell was
// claimed; a claim keeps the turn with the mover.
func (gs *GameSession) applyMove(playerId string, x, y int, o model.Orientation) (bool, error) {
	switch gs.State {
	case GS_OVER:
		return false, model.ErrGameOver
	case GS_WAIT:
		return false, model.ErrNotStarted
	}
	if gs.Players[gs.Current].Id != playerId {
		return false, model.ErrNotYourTurn
	}
	if err := gs.Grid.PlaceFence(x, y, o); err != nil {
		return false, err
	}

	mover := &gs.Players[gs.Current]
	claimed := 0
	points := gs.Grid.Claim(x, y, mover.Id)
	if points > 0 {
		claimed++
	}
	// the mirrored fence can close the neighbour too
	if nx, ny, ok := gs.Grid.Neighbor(x, y, o); ok {
		if p := gs.Grid.Claim(nx, ny, mover.Id); p > 0 {
			points += p
			claimed++
		}
	}
	mover.Score += points

	t := gs.now()
	gs.Moves = append(gs.Moves, model.Move{
		PlayerId:    mover.Id,
		PlayerName:  mover.Name,
		Position:    model.Position{X: x, Y: y},
		Orientation: o,
		LandClaimed: claimed > 0,
		Claimed:     claimed,
		Timestamp:   t,
	})
	gs.LastActivity = t

	if claimed == 0 {
		gs.advance()
	}
	if gs.Grid.IsComplete() {
		gs.endGame()
	}
	return claimed > 0, nil
}

func (gs *GameSession) advance() {
	gs.Current = (gs.Current + 1) % len(gs.Players)
}

// forceAdvance passes the turn of a stalled player.
func (gs *GameSession) forceAdvance() bool {
	if gs.State != GS_PLAY {
		return false
	}
	log.WithFields(log.Fields{
		"game":   gs.Id,
		"player": gs.Players[gs.Current].Name,
	}).Info("GameSession turn timed out")
	gs.advance()
	gs.LastActivity = gs.now()
	return true
}

// endGame resolves the winner from scores and records every seated
// player's outcome.
func (gs *GameSession) endGame() {
	gs.State = GS_OVER
	best := -1
	var leaders []int
	for i, p := range gs.Players {
		switch {
		case p.Score > best:
			best = p.Score
			leaders = []int{i}
		case p.Score == best:
			leaders = append(leaders, i)
		}
	}
	if len(leaders) == 1 {
		gs.Winner = gs.Players[leaders[0]].Id
	} else {
		gs.Winner = model.WINNER_DRAW
	}
	for _, p := range gs.Players {
		switch {
		case gs.Winner == model.WINNER_DRAW:
			gs.record(p, OutcomeDraw)
		case p.Id == gs.Winner:
			gs.record(p, OutcomeWin)
		default:
			gs.record(p, OutcomeLoss)
		}
	}
	log.WithFields(log.Fields{"game": gs.Id, "winner": gs.Winner}).Info("GameSession over")
}

func (gs *GameSession) record(p model.Player, outcome Outcome) {
	if gs.directory != nil {
		gs.directory.RecordOutcome(p.Identity, p.Name, outcome)
	}
}

// leave removes playerId's seat. It returns true when the session is empty
// and must be evicted.
func (gs *GameSession) leave(playerId string) (bool, error) {
	i := gs.seat(playerId)
	if i < 0 {
		return false, model.ErrPlayerNotInGame
	}
	if len(gs.Players) == 1 {
		// the seat stays until eviction so the archived recording names it
		return true, nil
	}

	wasPlaying := gs.State == GS_PLAY
	leaver := gs.Players[i]
	if wasPlaying {
		gs.record(leaver, OutcomeLoss)
	}
	if gs.State != GS_WAIT {
		// the cells they claimed stay owned, so their score stays on record
		gs.Departed = append(gs.Departed, leaver)
	}
	gs.Players = append(gs.Players[:i], gs.Players[i+1:]...)
	if i < gs.Current {
		gs.Current--
	}
	if gs.Current >= len(gs.Players) {
		gs.Current = 0
	}
	gs.LastActivity = gs.now()

	if len(gs.Players) == 1 && gs.State != GS_OVER {
		gs.State = GS_OVER
		gs.Winner = gs.Players[0].Id
		if wasPlaying {
			gs.record(gs.Players[0], OutcomeWin)
		}
		log.WithFields(log.Fields{"game": gs.Id, "winner": gs.Winner}).Info("GameSession won by forfeit")
	}
	return false, nil
}

func (gs *GameSession) currentPlayerId() string {
	if gs.Current < len(gs.Players) {
		return gs.Players[gs.Current].Id
	}
	return ""
}

func (gs *GameSession) snapshot() model.GameState {
	players := make([]model.Player, len(gs.Players))
	copy(players, gs.Players)
	moves := make([]model.Move, len(gs.Moves))
	copy(moves, gs.Moves)
	var departed []model.Player
	if len(gs.Departed) > 0 {
		departed = make([]model.Player, len(gs.Departed))
		copy(departed, gs.Departed)
	}
	state := model.GameState{
		GameId:             gs.Id,
		State:              gs.State.Name(),
		GridSize:           gs.Grid.Size,
		NumPlayers:         gs.NumPlayers,
		Players:            players,
		Departed:           departed,
		CurrentPlayerIndex: gs.Current,
		Grid:               gs.Grid.Rows(),
		GameOver:           gs.State == GS_OVER,
		Winner:             gs.Winner,
		CreatedAt:          gs.CreatedAt,
		LastActivity:       gs.LastActivity,
		Moves:              moves,
	}
	if gs.State == GS_PLAY && !gs.TurnDeadline.IsZero() {
		deadline := gs.TurnDeadline
		state.TurnDeadline = &deadline
	}
	return state
}

func (gs *GameSession) recording() model.Recording {
	names := make([]string, 0, len(gs.Players))
	for _, p := range gs.Players {
		names = append(names, p.Name)
	}
	moves := make([]model.Move, len(gs.Moves))
	copy(moves, gs.Moves)
	return model.Recording{
		RecordingSummary: model.RecordingSummary{
			GameId:    gs.Id,
			CreatedAt: gs.CreatedAt,
			Players:   names,
		},
		Moves: moves,
	}
}
