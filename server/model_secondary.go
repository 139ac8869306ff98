package server

import (
	"fmt"

	"github.com/changchangw/prospector/model"
)

const HTTP_SUCCESS = 200
const HTTP_BAD_REQUEST = 400
const HTTP_NOT_FOUND = 404
const HTTP_CONFLICT = 409
const HTTP_SERVER_ERR = 503

type ResponseCode int

const (
	GAME_READY ResponseCode = iota
	GAME_NOT_FOUND
	GAME_INVALIDE
	GAME_CONFLICT
	GAME_UNAVAILABLE
)

// ResponseCodeOf classifies err for the HTTP surface.
func ResponseCodeOf(err error) ResponseCode {
	if err == nil {
		return GAME_READY
	}
	switch model.KindOf(err) {
	case model.KIND_NOT_FOUND:
		return GAME_NOT_FOUND
	case model.KIND_CONFLICT, model.KIND_TURN_VIOLATION:
		return GAME_CONFLICT
	case model.KIND_UNKNOWN:
		return GAME_UNAVAILABLE
	default:
		return GAME_INVALIDE
	}
}

func (h ResponseCode) ToHttp() int {
	switch h {
	case GAME_READY:
		return HTTP_SUCCESS
	case GAME_NOT_FOUND:
		return HTTP_NOT_FOUND
	case GAME_INVALIDE:
		return HTTP_BAD_REQUEST
	case GAME_CONFLICT:
		return HTTP_CONFLICT
	case GAME_UNAVAILABLE:
		return HTTP_SERVER_ERR
	default:
		panic(h)
	}
}

func (gss GameSessionState) Name() string {
	switch gss {
	case GS_WAIT:
		return "joining"
	case GS_PLAY:
		return "active"
	case GS_OVER:
		return "game_over"
	default:
		return fmt.Sprintf("n/a:%d", gss)
	}
}

func (ps PlayerSessionState) Name() string {
	switch ps {
	case PS_NEW:
		return "NEW"
	case PS_PLAY:
		return "PLAY"
	case PS_OVER:
		return "OVER"
	case PS_ERR:
		return "ERR"
	default:
		return "N/A"
	}
}
