package server

import (
	"math/rand"
	"sync"
	"time"

	"github.com/changchangw/prospector/model"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

type GameServer struct {
	Registry  *Registry
	Directory *Directory
	Upgrader  *websocket.Upgrader
	Config    Config

	mu             sync.RWMutex
	PlayerSessions map[string]*PlayerSession
}

type GameSessionState int

const (
	GS_WAIT GameSessionState = iota
	GS_PLAY
	GS_OVER
)

// GameSession is one match. Every field is guarded by mu; the only way in is
// Registry.Mutate.
type GameSession struct {
	mu sync.Mutex

	Id           string
	State        GameSessionState
	Grid         *model.Grid
	Players      []model.Player
	Departed     []model.Player
	Current      int
	Winner       string
	NumPlayers   int
	CreatedAt    time.Time
	LastActivity time.Time
	TurnDeadline time.Time
	Moves        []model.Move

	directory *Directory
	now       func() time.Time

	// turn clock bookkeeping
	generation uint64
	timer      *time.Timer
	evicted    bool
}

type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*GameSession

	Directory *Directory
	Clock     *TurnClock
	archive   *archive

	idleTimeout time.Duration

	rndMu sync.Mutex
	rnd   *rand.Rand

	now   func() time.Time
	newId func() string

	// OnUpdate receives snapshots produced outside a participant request,
	// such as a turn timeout. It is called with no lock held.
	OnUpdate func(model.GameState, string)
}

type PlayerSessionState int

const (
	PS_NEW PlayerSessionState = iota + 1
	PS_PLAY
	PS_OVER
	PS_ERR
)

type PlayerSession struct {
	Id       string
	Identity string
	Name     string
	Conn     *websocket.Conn

	state    PlayerSessionState
	server   *GameServer
	limiter  *rate.Limiter
	games    map[string]struct{}
	done     chan struct{}
	doneOnce sync.Once

	MessagesToSend chan model.ServerMessage

	DebugInMessages  int
	DebugOutMessages int
	DebugLastMessage time.Time
	DebugLastPing    time.Time
	DebugPings       int
}
