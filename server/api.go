package server

import (
	"encoding/json"
	"net/http"

	"github.com/changchangw/prospector/model"
	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("writeJSON %v", err)
	}
}

func writeErr(w http.ResponseWriter, action string, err error) {
	writeJSON(w, ResponseCodeOf(err).ToHttp(), model.Failure(action, err))
}

// HandleListRecordings serves GET /recordings.
func (s *GameServer) HandleListRecordings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := model.Success(model.ACTION_LIST_RECORDINGS, "Recordings list retrieved")
		resp.Recordings = s.Registry.ListRecordings()
		writeJSON(w, HTTP_SUCCESS, resp)
	}
}

// HandleGetRecording serves GET /recordings/:id.
func (s *GameServer) HandleGetRecording() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameId := way.Param(r.Context(), "id")
		rec, err := s.Registry.Recording(gameId)
		if err != nil {
			writeErr(w, model.ACTION_GET_GAME_RECORDING, err)
			return
		}
		resp := model.Success(model.ACTION_GET_GAME_RECORDING, "Game recording retrieved")
		resp.GameId, resp.Recording = gameId, &rec
		writeJSON(w, HTTP_SUCCESS, resp)
	}
}

// HandleGetStats serves GET /stats/:identity.
func (s *GameServer) HandleGetStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFor(way.Param(r.Context(), "identity"), "")
		stats, err := s.Directory.Stats(identity)
		if err != nil {
			writeErr(w, model.ACTION_GET_STATS, err)
			return
		}
		resp := model.Success(model.ACTION_GET_STATS, "Player statistics")
		resp.Stats = &stats
		writeJSON(w, HTTP_SUCCESS, resp)
	}
}
