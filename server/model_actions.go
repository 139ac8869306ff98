package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/changchangw/prospector/model"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

func NewGameServer(cfg Config, registry *Registry, dir *Directory) *GameServer {
	s := &GameServer{
		Registry:       registry,
		Directory:      dir,
		Upgrader:       &websocket.Upgrader{},
		Config:         cfg,
		PlayerSessions: make(map[string]*PlayerSession),
	}
	registry.OnUpdate = func(state model.GameState, message string) {
		s.broadcast(state, message)
	}
	return s
}

// HandleHttpCall upgrades the request to a websocket and serves one
// participant until the connection drops.
func (s *GameServer) HandleHttpCall() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Printf("HandleHttpCall - connection received from %s", r.RemoteAddr)
		con, err := s.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already answered the request
			log.Warnf("HandleHttpCall websocket upgrade err %v", err)
			return
		}
		defer con.Close()

		ps := s.addPlayer(con)
		defer s.removePlayer(ps)

		go ps.LoopChannelWrite()
		ps.send(model.ServerMessage{
			Status:   model.STATUS_SUCCESS,
			Action:   "welcome",
			Message:  "Connected to Prospector",
			PlayerId: ps.Id,
		})
		ps.LoopChannelRead()
	}
}

func (s *GameServer) addPlayer(conn *websocket.Conn) *PlayerSession {
	ps := &PlayerSession{
		Id:             uuid.NewString(),
		Conn:           conn,
		state:          PS_NEW,
		server:         s,
		limiter:        rate.NewLimiter(rate.Limit(s.Config.MessageRate), s.Config.MessageBurst),
		games:          make(map[string]struct{}),
		done:           make(chan struct{}),
		MessagesToSend: make(chan model.ServerMessage, s.Config.SendBuffer),
	}
	ps.Name = "Player_" + ps.Id[:8]
	ps.Identity = ps.Id
	conn.SetPingHandler(func(message string) error {
		ps.DebugLastPing = time.Now()
		ps.DebugPings++
		err := conn.WriteControl(websocket.PongMessage, []byte(message), time.Now().Add(time.Second))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})
	s.mu.Lock()
	s.PlayerSessions[ps.Id] = ps
	s.mu.Unlock()
	log.WithField("player", ps.Id).Info("GameServer.addPlayer")
	return ps
}

// removePlayer runs once per connection: it leaves every game the player is
// seated in and stops the writer.
func (s *GameServer) removePlayer(ps *PlayerSession) {
	for gameId := range ps.games {
		s.leave(ps, gameId)
	}
	s.mu.Lock()
	delete(s.PlayerSessions, ps.Id)
	s.mu.Unlock()
	final := ps.state
	ps.close()
	log.WithFields(log.Fields{
		"player": ps.Id,
		"state":  final.Name(),
		"in":     ps.DebugInMessages,
	}).Info("GameServer.removePlayer")
}

func (s *GameServer) player(id string) *PlayerSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.PlayerSessions[id]
}

// broadcast pushes state to every seated player except those in skip.
func (s *GameServer) broadcast(state model.GameState, message string, skip ...string) {
	update := model.Update(state, message)
players:
	for _, p := range state.Players {
		for _, id := range skip {
			if p.Id == id {
				continue players
			}
		}
		if ps := s.player(p.Id); ps != nil {
			ps.send(update)
		}
	}
}

func (s *GameServer) leave(ps *PlayerSession, gameId string) (model.GameState, error) {
	delete(ps.games, gameId)
	state, evicted, err := s.Registry.Leave(gameId, ps.Id)
	if err != nil {
		return state, err
	}
	if !evicted {
		s.broadcast(state, fmt.Sprintf("%s left the game", ps.Name), ps.Id)
	}
	return state, nil
}

// Handle answers one decoded request from ps. Broadcasts to other players
// happen here too, after the registry has released the session.
func (s *GameServer) Handle(ps *PlayerSession, req model.Request) model.ServerMessage {
	switch r := req.(type) {
	case model.CreateGame:
		p := ps.asPlayer(r.PlayerName)
		state, err := s.Registry.Create(r.GridSize, r.NumPlayers, p)
		if err != nil {
			return model.Failure(r.Action(), err)
		}
		ps.Name, ps.Identity = p.Name, p.Identity
		ps.games[state.GameId] = struct{}{}
		resp := model.Success(r.Action(), "Game created successfully")
		resp.GameId, resp.GameState = state.GameId, &state
		return resp

	case model.JoinGame:
		p := ps.asPlayer(r.PlayerName)
		state, err := s.Registry.Join(r.GameId, p)
		if err != nil {
			return model.Failure(r.Action(), err)
		}
		ps.Name, ps.Identity = p.Name, p.Identity
		ps.games[state.GameId] = struct{}{}
		s.broadcast(state, fmt.Sprintf("%s joined the game", ps.Name), ps.Id)
		resp := model.Success(r.Action(), "Game joined successfully")
		resp.GameId, resp.GameState = state.GameId, &state
		return resp

	case model.PlaceFence:
		state, claimed, err := s.Registry.PlaceFence(r.GameId, ps.Id, r.Position.X, r.Position.Y, r.Orientation)
		if err != nil {
			return model.Failure(r.Action(), err)
		}
		s.broadcast(state, fmt.Sprintf("%s placed a fence", ps.Name), ps.Id)
		resp := model.Success(r.Action(), "Fence placed successfully")
		resp.GameId, resp.GameState, resp.LandClaimed = state.GameId, &state, &claimed
		return resp

	case model.LeaveGame:
		state, err := s.leave(ps, r.GameId)
		if err != nil {
			return model.Failure(r.Action(), err)
		}
		resp := model.Success(r.Action(), "Player left game")
		resp.GameId = r.GameId
		if len(state.Players) > 0 {
			resp.GameState = &state
		}
		return resp

	case model.GetStats:
		identity := ps.Identity
		if r.PlayerName != "" {
			identity = IdentityFor(r.PlayerName, ps.Id)
		}
		stats, err := s.Directory.Stats(identity)
		if err != nil {
			return model.Failure(r.Action(), err)
		}
		resp := model.Success(r.Action(), "Player statistics")
		resp.Stats = &stats
		return resp

	case model.ListRecordings:
		resp := model.Success(r.Action(), "Recordings list retrieved")
		resp.Recordings = s.Registry.ListRecordings()
		return resp

	case model.GetGameRecording:
		rec, err := s.Registry.Recording(r.GameId)
		if err != nil {
			return model.Failure(r.Action(), err)
		}
		resp := model.Success(r.Action(), "Game recording retrieved")
		resp.GameId, resp.Recording = r.GameId, &rec
		return resp

	default:
		// DecodeRequest only produces the cases above
		panic(fmt.Sprintf("unhandled request %T", req))
	}
}

// asPlayer is the seat ps would take under name. The connection keeps its
// current name until the registry accepts the seat.
func (ps *PlayerSession) asPlayer(name string) model.Player {
	p := model.Player{Id: ps.Id, Identity: ps.Identity, Name: ps.Name}
	if name != "" {
		p.Name = name
		p.Identity = IdentityFor(name, ps.Id)
	}
	return p
}

// send queues a message for the writer. A full buffer drops the message
// rather than blocking the caller.
func (ps *PlayerSession) send(m model.ServerMessage) {
	select {
	case <-ps.done:
		return
	default:
	}
	select {
	case ps.MessagesToSend <- m:
	case <-ps.done:
	default:
		log.Warnf("PlayerSession %s outbound buffer full, dropping %q", ps.Id, m.Message)
	}
}

func (ps *PlayerSession) close() {
	ps.doneOnce.Do(func() {
		ps.state = PS_OVER
		close(ps.done)
	})
}

func (ps *PlayerSession) LoopChannelRead() {
	log.Printf("LoopChannelRead STARTED %s", ps.Id)
	ps.state = PS_PLAY
	for {
		messageType, data, err := ps.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("LoopChannelRead err reading message from Conn %v", err)
				ps.state = PS_ERR
			}
			break
		}
		ps.DebugLastMessage = time.Now()
		ps.DebugInMessages++
		if messageType != websocket.TextMessage {
			ps.send(model.Failure("", model.ErrInvalidJSON))
			continue
		}
		if !ps.limiter.Allow() {
			ps.send(model.Failure("", model.ErrRateLimited))
			continue
		}
		req, err := model.DecodeRequest(data)
		if err != nil {
			log.WithField("player", ps.Id).Warnf("cant decode: %v", err)
			ps.send(model.Failure("", err))
			continue
		}
		resp := ps.server.Handle(ps, req)
		log.WithFields(log.Fields{
			"player": ps.Id,
			"action": req.Action(),
			"status": resp.Status,
		}).Debug(resp.Message)
		ps.send(resp)
	}
	log.Printf("LoopChannelRead ENDED %s", ps.Id)
}

// LoopChannelWrite is the only goroutine writing to the connection.
func (ps *PlayerSession) LoopChannelWrite() {
	log.Printf("PlayerSession.LoopChannelWrite STARTED %s", ps.Id)
	ticker := time.NewTicker(ps.server.Config.PingInterval)
	defer ticker.Stop()
	timeout := ps.server.Config.WriteTimeout
loop:
	for {
		select {
		case mes := <-ps.MessagesToSend:
			_ = ps.Conn.SetWriteDeadline(time.Now().Add(timeout))
			if err := ps.Conn.WriteJSON(mes); err != nil {
				log.Warnf("PlayerSession.LoopChannelWrite cant write %v", err)
				break loop
			}
			ps.DebugOutMessages++
		case <-ticker.C:
			if err := ps.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout)); err != nil {
				log.Warnf("PlayerSession.LoopChannelWrite ping failed %v", err)
				break loop
			}
		case <-ps.done:
			break loop
		}
	}
	// unblock the reader if the writer gave up first
	_ = ps.Conn.Close()
	log.WithFields(log.Fields{
		"player": ps.Id,
		"out":    ps.DebugOutMessages,
	}).Info("LoopChannelWrite ENDED")
}
