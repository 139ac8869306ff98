package server

import (
	"math/rand"
	"testing"
	"time"

	"github.com/changchangw/prospector/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ann = model.Player{Id: "c-ann", Identity: "ann", Name: "Ann"}
	bob = model.Player{Id: "c-bob", Identity: "bob", Name: "Bob"}
	cyd = model.Player{Id: "c-cyd", Identity: "cyd", Name: "Cyd"}
)

func fixedNow() time.Time { return time.Unix(1700000000, 0) }

func newTestSession(t *testing.T, size, seats int, players ...model.Player) (*GameSession, *Directory) {
	t.Helper()
	dir := NewDirectory()
	grid := model.NewGrid(size, rand.New(rand.NewSource(3)))
	gs := newGameSession("g1", grid, seats, players[0], dir, fixedNow)
	for _, p := range players[1:] {
		require.NoError(t, gs.join(p))
	}
	return gs, dir
}

func move(t *testing.T, gs *GameSession, p model.Player, x, y int, o model.Orientation) bool {
	t.Helper()
	claimed, err := gs.applyMove(p.Id, x, y, o)
	require.NoError(t, err)
	return claimed
}

func TestJoinFillsSeatsAndStarts(t *testing.T) {
	gs, _ := newTestSession(t, 3, 3, ann)
	assert.Equal(t, GS_WAIT, gs.State)

	require.NoError(t, gs.join(bob))
	assert.Equal(t, GS_WAIT, gs.State)
	assert.ErrorIs(t, gs.join(bob), model.ErrAlreadyJoined)

	require.NoError(t, gs.join(cyd))
	assert.Equal(t, GS_PLAY, gs.State)
	assert.Equal(t, 0, gs.Current)
	assert.ErrorIs(t, gs.join(model.Player{Id: "late"}), model.ErrGameFull)
}

func TestMoveBeforeStartRejected(t *testing.T) {
	gs, _ := newTestSession(t, 2, 2, ann)
	_, err := gs.applyMove(ann.Id, 0, 0, model.NORTH)
	assert.ErrorIs(t, err, model.ErrNotStarted)
	assert.Empty(t, gs.Moves)
}

func TestClaimKeepsTurn(t *testing.T) {
	gs, _ := newTestSession(t, 2, 2, ann, bob)

	assert.False(t, move(t, gs, ann, 0, 0, model.NORTH))
	assert.False(t, move(t, gs, bob, 1, 1, model.SOUTH))
	assert.False(t, move(t, gs, ann, 0, 0, model.EAST))
	assert.False(t, move(t, gs, bob, 1, 1, model.EAST))
	assert.False(t, move(t, gs, ann, 0, 0, model.SOUTH))
	assert.False(t, move(t, gs, bob, 1, 0, model.NORTH))
	assert.Equal(t, 0, gs.Players[0].Score)

	assert.True(t, move(t, gs, ann, 0, 0, model.WEST))
	assert.Equal(t, gs.Grid.Cell(0, 0).Land.Value(), gs.Players[0].Score)
	assert.Equal(t, ann.Id, gs.Grid.Cell(0, 0).Owner)
	assert.Equal(t, 0, gs.Current, "claim grants another move")
	assert.Equal(t, GS_PLAY, gs.State)

	require.Len(t, gs.Moves, 7)
	last := gs.Moves[6]
	assert.Equal(t, ann.Id, last.PlayerId)
	assert.Equal(t, model.Position{X: 0, Y: 0}, last.Position)
	assert.Equal(t, model.WEST, last.Orientation)
	assert.True(t, last.LandClaimed)
}

func TestMirroredFenceClaimsNeighbour(t *testing.T) {
	gs, _ := newTestSession(t, 2, 2, ann, bob)
	// close (1,0) on three sides without touching its west wall
	move(t, gs, ann, 1, 0, model.NORTH)
	move(t, gs, bob, 1, 0, model.EAST)
	move(t, gs, ann, 1, 0, model.SOUTH)

	// bob's fence east of (0,0) is the west wall of (1,0)
	assert.True(t, move(t, gs, bob, 0, 0, model.EAST))
	assert.Equal(t, bob.Id, gs.Grid.Cell(1, 0).Owner)
	assert.Empty(t, gs.Grid.Cell(0, 0).Owner)
	assert.Equal(t, gs.Grid.Cell(1, 0).Land.Value(), gs.Players[1].Score)
	assert.Equal(t, 1, gs.Current)
}

func TestNotYourTurnLeavesStateUnchanged(t *testing.T) {
	gs, _ := newTestSession(t, 3, 2, ann, bob)
	before := gs.snapshot()

	_, err := gs.applyMove(bob.Id, 1, 1, model.NORTH)
	assert.ErrorIs(t, err, model.ErrNotYourTurn)
	assert.Equal(t, model.KIND_TURN_VIOLATION, model.KindOf(err))

	_, err = gs.applyMove("stranger", 1, 1, model.NORTH)
	assert.ErrorIs(t, err, model.ErrNotYourTurn)
	assert.Equal(t, before, gs.snapshot())
}

func TestGridErrorsPropagate(t *testing.T) {
	gs, _ := newTestSession(t, 2, 2, ann, bob)
	_, err := gs.applyMove(ann.Id, 5, 0, model.NORTH)
	assert.ErrorIs(t, err, model.ErrOutOfBounds)
	_, err = gs.applyMove(ann.Id, 0, 0, model.Orientation(7))
	assert.ErrorIs(t, err, model.ErrInvalidOrientation)

	move(t, gs, ann, 0, 0, model.NORTH)
	move(t, gs, bob, 1, 1, model.NORTH)
	_, err = gs.applyMove(ann.Id, 0, 0, model.NORTH)
	assert.ErrorIs(t, err, model.ErrFenceExists)
	assert.Equal(t, 0, gs.Current, "rejected move keeps the turn")
	assert.Len(t, gs.Moves, 2)
}

func TestTurnRotation(t *testing.T) {
	gs, _ := newTestSession(t, 5, 3, ann, bob, cyd)
	for i := 0; i < 6; i++ {
		holder := gs.Players[gs.Current]
		before := gs.Current
		claimed := move(t, gs, holder, i%5, 2+i/5, model.NORTH)
		require.False(t, claimed)
		assert.Equal(t, (before+1)%3, gs.Current)
	}
}

// playOut finishes the game with random legal moves and checks the score
// and enclosure invariants after every move.
func playOut(t *testing.T, gs *GameSession, rnd *rand.Rand) {
	t.Helper()
	for gs.State == GS_PLAY {
		type wall struct {
			x, y int
			o    model.Orientation
		}
		var open []wall
		for _, c := range gs.Grid.Cells {
			for o := model.NORTH; o <= model.WEST; o++ {
				if !c.Fences[o] {
					open = append(open, wall{c.X, c.Y, o})
				}
			}
		}
		require.NotEmpty(t, open)
		w := open[rnd.Intn(len(open))]
		before := gs.Current
		holder := gs.Players[gs.Current]
		claimed := move(t, gs, holder, w.x, w.y, w.o)
		if gs.State == GS_PLAY {
			if claimed {
				assert.Equal(t, before, gs.Current)
			} else {
				assert.Equal(t, (before+1)%len(gs.Players), gs.Current)
			}
		}

		owned := 0
		for _, v := range gs.Grid.OwnedValue() {
			owned += v
		}
		scores := 0
		for _, p := range gs.Players {
			scores += p.Score
		}
		require.Equal(t, owned, scores)
		for _, c := range gs.Grid.Cells {
			if c.Fenced() {
				require.NotEmpty(t, c.Owner, "cell (%d,%d) fenced without owner", c.X, c.Y)
			}
		}
	}
}

func TestRandomGamesKeepInvariants(t *testing.T) {
	rnd := rand.New(rand.NewSource(99))
	for i := 0; i < 25; i++ {
		size := 2 + rnd.Intn(5)
		gs, dir := newTestSession(t, size, 3, ann, bob, cyd)
		playOut(t, gs, rnd)

		require.Equal(t, GS_OVER, gs.State)
		assert.True(t, gs.Grid.IsComplete())
		best, leaders := -1, 0
		for _, p := range gs.Players {
			if p.Score > best {
				best, leaders = p.Score, 1
			} else if p.Score == best {
				leaders++
			}
		}
		if leaders == 1 {
			assert.Equal(t, best, gs.Players[gs.seat(gs.Winner)].Score)
		} else {
			assert.Equal(t, model.WINNER_DRAW, gs.Winner)
		}

		for _, p := range gs.Players {
			s, err := dir.Stats(p.Identity)
			require.NoError(t, err)
			assert.Equal(t, 1, s.Wins+s.Losses+s.Draws, "one outcome per player")
		}

		_, err := gs.applyMove(gs.Players[gs.Current].Id, 0, 0, model.NORTH)
		assert.ErrorIs(t, err, model.ErrGameOver)
	}
}

func TestEndGameWinnerAndDraw(t *testing.T) {
	gs, dir := newTestSession(t, 2, 3, ann, bob, cyd)
	gs.Players[0].Score, gs.Players[1].Score, gs.Players[2].Score = 4, 2, 1
	gs.endGame()
	assert.Equal(t, ann.Id, gs.Winner)
	s, _ := dir.Stats("ann")
	assert.Equal(t, 1, s.Wins)
	s, _ = dir.Stats("bob")
	assert.Equal(t, 1, s.Losses)

	gs, dir = newTestSession(t, 2, 3, ann, bob, cyd)
	gs.Players[0].Score, gs.Players[1].Score, gs.Players[2].Score = 3, 3, 1
	gs.endGame()
	assert.Equal(t, model.WINNER_DRAW, gs.Winner)
	for _, id := range []string{"ann", "bob", "cyd"} {
		s, _ := dir.Stats(id)
		assert.Equal(t, 1, s.Draws, id)
	}
}

func TestForceAdvance(t *testing.T) {
	gs, _ := newTestSession(t, 2, 2, ann)
	assert.False(t, gs.forceAdvance(), "not active yet")

	require.NoError(t, gs.join(bob))
	grid := gs.Grid.Clone()
	assert.True(t, gs.forceAdvance())
	assert.Equal(t, 1, gs.Current)
	assert.Equal(t, grid, gs.Grid)
	assert.Empty(t, gs.Moves)
	assert.True(t, gs.forceAdvance())
	assert.Equal(t, 0, gs.Current)
}

func TestLeaveForfeit(t *testing.T) {
	gs, dir := newTestSession(t, 3, 2, ann, bob)
	empty, err := gs.leave(bob.Id)
	require.NoError(t, err)
	assert.False(t, empty)
	assert.Equal(t, GS_OVER, gs.State)
	assert.Equal(t, ann.Id, gs.Winner)

	s, _ := dir.Stats("ann")
	assert.Equal(t, 1, s.Wins)
	s, _ = dir.Stats("bob")
	assert.Equal(t, 1, s.Losses)

	_, err = gs.leave(bob.Id)
	assert.ErrorIs(t, err, model.ErrPlayerNotInGame)

	empty, err = gs.leave(ann.Id)
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestLeaveKeepsTurnHolder(t *testing.T) {
	gs, _ := newTestSession(t, 3, 3, ann, bob, cyd)
	gs.Current = 2
	_, err := gs.leave(ann.Id)
	require.NoError(t, err)
	assert.Equal(t, GS_PLAY, gs.State)
	assert.Equal(t, cyd.Id, gs.currentPlayerId())

	_, err = gs.leave(cyd.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, gs.Current)
	assert.Equal(t, GS_OVER, gs.State)
	assert.Equal(t, bob.Id, gs.Winner)
}

func TestLeaveWrapsTurnPointer(t *testing.T) {
	gs, _ := newTestSession(t, 3, 3, ann, bob, cyd)
	gs.Current = 2
	_, err := gs.leave(cyd.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, gs.Current)
}

func TestLeaveWhileJoining(t *testing.T) {
	gs, dir := newTestSession(t, 3, 3, ann, bob)
	_, err := gs.leave(ann.Id)
	require.NoError(t, err)
	assert.Equal(t, GS_OVER, gs.State)
	assert.Equal(t, bob.Id, gs.Winner)
	_, err = dir.Stats("bob")
	assert.ErrorIs(t, err, model.ErrPlayerNotFound, "no outcome for a match that never started")
}

func TestSnapshotIsDetached(t *testing.T) {
	gs, _ := newTestSession(t, 2, 2, ann, bob)
	snap := gs.snapshot()
	move(t, gs, ann, 0, 0, model.NORTH)
	assert.Empty(t, snap.Moves)
	assert.False(t, snap.Grid[0][0].North)
	assert.Equal(t, "active", snap.State)
	assert.Equal(t, 2, snap.NumPlayers)
}

func TestJoinRejectedOnceStarted(t *testing.T) {
	dan := model.Player{Id: "c-dan", Identity: "dan", Name: "Dan"}
	gs, _ := newTestSession(t, 3, 3, ann, bob, cyd)
	move(t, gs, ann, 0, 0, model.NORTH)
	move(t, gs, bob, 1, 1, model.NORTH)
	require.Equal(t, cyd.Id, gs.currentPlayerId())

	_, err := gs.leave(ann.Id)
	require.NoError(t, err)
	require.Equal(t, cyd.Id, gs.currentPlayerId())

	err = gs.join(dan)
	assert.ErrorIs(t, err, model.ErrGameStarted)
	assert.Equal(t, model.KIND_CONFLICT, model.KindOf(err))
	assert.Len(t, gs.Players, 2)
	assert.Equal(t, GS_PLAY, gs.State)
	assert.Equal(t, cyd.Id, gs.currentPlayerId(), "a rejected join keeps the turn holder")
}

func TestLeaveKeepsDepartedScore(t *testing.T) {
	gs, _ := newTestSession(t, 2, 3, ann, bob, cyd)
	move(t, gs, ann, 0, 0, model.NORTH)
	move(t, gs, bob, 0, 0, model.EAST)
	move(t, gs, cyd, 0, 0, model.SOUTH)
	require.True(t, move(t, gs, ann, 0, 0, model.WEST))
	value := gs.Grid.Cell(0, 0).Land.Value()

	_, err := gs.leave(ann.Id)
	require.NoError(t, err)
	assert.Equal(t, bob.Id, gs.currentPlayerId())

	state := gs.snapshot()
	require.Len(t, state.Departed, 1)
	assert.Equal(t, ann.Id, state.Departed[0].Id)
	assert.Equal(t, value, state.Departed[0].Score)

	scores, owned := 0, 0
	for _, p := range append(state.Players, state.Departed...) {
		scores += p.Score
	}
	for _, v := range gs.Grid.OwnedValue() {
		owned += v
	}
	assert.Equal(t, owned, scores)
}

func TestLeaveWhileJoiningNotDeparted(t *testing.T) {
	gs, _ := newTestSession(t, 3, 3, ann, bob)
	_, err := gs.leave(bob.Id)
	require.NoError(t, err)
	assert.Empty(t, gs.snapshot().Departed)
}
