package model

import "time"

const (
	STATUS_SUCCESS = "success"
	STATUS_ERROR   = "error"
	STATUS_UPDATE  = "update"

	// WINNER_DRAW is the winner value of a game that ended on a tied score.
	WINNER_DRAW = "draw"
)

type ServerMessage struct {
	Status      string             `json:"status"`
	Message     string             `json:"message"`
	Action      string             `json:"action,omitempty"`
	PlayerId    string             `json:"player_id,omitempty"`
	GameId      string             `json:"game_id,omitempty"`
	GameState   *GameState         `json:"game_state,omitempty"`
	LandClaimed *bool              `json:"land_claimed,omitempty"`
	Stats       *Stats             `json:"stats,omitempty"`
	Recordings  []RecordingSummary `json:"recordings,omitempty"`
	Recording   *Recording         `json:"recording,omitempty"`
}

func Success(action, message string) ServerMessage {
	return ServerMessage{Status: STATUS_SUCCESS, Action: action, Message: message}
}

func Failure(action string, err error) ServerMessage {
	return ServerMessage{Status: STATUS_ERROR, Action: action, Message: err.Error()}
}

func Update(state GameState, message string) ServerMessage {
	return ServerMessage{
		Status:    STATUS_UPDATE,
		Message:   message,
		GameId:    state.GameId,
		GameState: &state,
	}
}

type CellState struct {
	North bool     `json:"north"`
	East  bool     `json:"east"`
	South bool     `json:"south"`
	West  bool     `json:"west"`
	Owner string   `json:"owner,omitempty"`
	Type  LandType `json:"type"`
	Value int      `json:"value"`
}

type GameState struct {
	GameId             string        `json:"game_id"`
	State              string        `json:"state"`
	GridSize           int           `json:"grid_size"`
	NumPlayers         int           `json:"num_players"`
	Players            []Player      `json:"players"`
	Departed           []Player      `json:"departed,omitempty"`
	CurrentPlayerIndex int           `json:"current_player_index"`
	Grid               [][]CellState `json:"grid"`
	GameOver           bool          `json:"game_over"`
	Winner             string        `json:"winner,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	LastActivity       time.Time     `json:"last_activity"`
	TurnDeadline       *time.Time    `json:"turn_deadline,omitempty"`
	Moves              []Move        `json:"moves"`
}

// CurrentPlayer is the turn holder, nil before anyone is seated.
func (s GameState) CurrentPlayer() *Player {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return &s.Players[s.CurrentPlayerIndex]
}

type Stats struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Draws    int    `json:"draws"`
}

type RecordingSummary struct {
	GameId    string    `json:"game_id"`
	CreatedAt time.Time `json:"created_at"`
	Players   []string  `json:"players"`
}

type Recording struct {
	RecordingSummary
	Moves []Move `json:"moves"`
}
