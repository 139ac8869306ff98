package main

import (
	"github.com/matryer/way"
)

const URI_WS = "/play"
const URI_RECORDINGS = "/recordings"
const URI_RECORDING = "/recordings/:id"
const URI_STATS = "/stats/:identity"

func (s *Server) routes() {
	s.router = way.NewRouter()
	s.router.HandleFunc("GET", URI_WS, s.GameServer.HandleHttpCall())
	s.router.HandleFunc("GET", URI_RECORDINGS, s.GameServer.HandleListRecordings())
	s.router.HandleFunc("GET", URI_RECORDING, s.GameServer.HandleGetRecording())
	s.router.HandleFunc("GET", URI_STATS, s.GameServer.HandleGetStats())
}
