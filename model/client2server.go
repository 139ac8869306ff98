package model

import (
	"encoding/json"
	"fmt"
)

const (
	ACTION_CREATE_GAME        = "create_game"
	ACTION_JOIN_GAME          = "join_game"
	ACTION_PLACE_FENCE        = "place_fence"
	ACTION_LEAVE_GAME         = "leave_game"
	ACTION_GET_STATS          = "get_stats"
	ACTION_LIST_RECORDINGS    = "list_recordings"
	ACTION_GET_GAME_RECORDING = "get_game_recording"

	DEFAULT_GRID_SIZE   = 5
	DEFAULT_NUM_PLAYERS = 2
)

// Request is one decoded client message. The set of implementations is
// closed: only this package can add one.
type Request interface {
	Action() string
	isRequest()
}

type CreateGame struct {
	PlayerName string `json:"player_name"`
	GridSize   int    `json:"grid_size"`
	NumPlayers int    `json:"num_players"`
}

type JoinGame struct {
	GameId     string `json:"game_id"`
	PlayerName string `json:"player_name"`
}

type PlaceFence struct {
	GameId      string      `json:"game_id"`
	Position    Position    `json:"position"`
	Orientation Orientation `json:"orientation"`
}

type LeaveGame struct {
	GameId string `json:"game_id"`
}

// GetStats looks up PlayerName when set, the caller's own identity otherwise.
type GetStats struct {
	PlayerName string `json:"player_name,omitempty"`
}

type ListRecordings struct{}

type GetGameRecording struct {
	GameId string `json:"game_id"`
}

func (CreateGame) Action() string       { return ACTION_CREATE_GAME }
func (JoinGame) Action() string         { return ACTION_JOIN_GAME }
func (PlaceFence) Action() string       { return ACTION_PLACE_FENCE }
func (LeaveGame) Action() string        { return ACTION_LEAVE_GAME }
func (GetStats) Action() string         { return ACTION_GET_STATS }
func (ListRecordings) Action() string   { return ACTION_LIST_RECORDINGS }
func (GetGameRecording) Action() string { return ACTION_GET_GAME_RECORDING }

func (CreateGame) isRequest()       {}
func (JoinGame) isRequest()         {}
func (PlaceFence) isRequest()       {}
func (LeaveGame) isRequest()        {}
func (GetStats) isRequest()         {}
func (ListRecordings) isRequest()   {}
func (GetGameRecording) isRequest() {}

type envelope struct {
	Action string `json:"action"`
}

type createGameWire struct {
	PlayerName string `json:"player_name"`
	GridSize   *int   `json:"grid_size"`
	NumPlayers *int   `json:"num_players"`
}

type placeFenceWire struct {
	GameId   string `json:"game_id"`
	Position *struct {
		X *int `json:"x"`
		Y *int `json:"y"`
	} `json:"position"`
	Orientation string `json:"orientation"`
}

// DecodeRequest parses one text frame. Every failure is a KIND_DECODE or
// KIND_VALIDATION *Error, so callers can answer it and keep reading.
func DecodeRequest(data []byte) (Request, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrInvalidJSON
	}
	switch env.Action {
	case ACTION_CREATE_GAME:
		var w createGameWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, ErrInvalidJSON
		}
		req := CreateGame{PlayerName: w.PlayerName, GridSize: DEFAULT_GRID_SIZE, NumPlayers: DEFAULT_NUM_PLAYERS}
		if w.GridSize != nil {
			req.GridSize = *w.GridSize
		}
		if w.NumPlayers != nil {
			req.NumPlayers = *w.NumPlayers
		}
		return req, nil
	case ACTION_JOIN_GAME:
		var req JoinGame
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, ErrInvalidJSON
		}
		if req.GameId == "" {
			return nil, ErrMissingGameId
		}
		return req, nil
	case ACTION_PLACE_FENCE:
		var w placeFenceWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, ErrInvalidJSON
		}
		if w.GameId == "" {
			return nil, ErrMissingGameId
		}
		if w.Position == nil || w.Position.X == nil || w.Position.Y == nil {
			return nil, ErrInvalidPosition
		}
		o, err := ParseOrientation(w.Orientation)
		if err != nil {
			return nil, err
		}
		return PlaceFence{
			GameId:      w.GameId,
			Position:    Position{X: *w.Position.X, Y: *w.Position.Y},
			Orientation: o,
		}, nil
	case ACTION_LEAVE_GAME:
		var req LeaveGame
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, ErrInvalidJSON
		}
		if req.GameId == "" {
			return nil, ErrMissingGameId
		}
		return req, nil
	case ACTION_GET_STATS:
		var req GetStats
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, ErrInvalidJSON
		}
		return req, nil
	case ACTION_LIST_RECORDINGS:
		return ListRecordings{}, nil
	case ACTION_GET_GAME_RECORDING:
		var req GetGameRecording
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, ErrInvalidJSON
		}
		if req.GameId == "" {
			return nil, ErrRecordingNotFound
		}
		return req, nil
	default:
		return nil, ErrUnknownAction
	}
}

// EncodeRequest renders r with its action tag, the inverse of DecodeRequest.
func EncodeRequest(r Request) ([]byte, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.Action(), err)
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.Action(), err)
	}
	fields["action"], _ = json.Marshal(r.Action())
	return json.Marshal(fields)
}
