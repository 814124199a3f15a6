// Package session provides the player registry and the lobby, countdown,
// active, game-over phase machine for one run of the quiz game server.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridquiz/internal/game/world"
)

// Phase is the session lifecycle state.
type Phase int

// Session phases in transition order. PhaseGameOver is terminal.
const (
	PhaseLobby Phase = iota
	PhaseCountdown
	PhaseActive
	PhaseGameOver
)

// String returns the phase name for logging.
func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseCountdown:
		return "countdown"
	case PhaseActive:
		return "active"
	case PhaseGameOver:
		return "game_over"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ErrSessionFull is returned by AddPlayer when the player capacity is reached.
var ErrSessionFull = errors.New("session is at player capacity")

// Player is one registered player's state. Values returned by Session
// accessors are copies; the canonical state lives inside the Session.
type Player struct {
	ID    int
	X     int
	Y     int
	Score int
	Ready bool
}

// Session owns the player registry, the current phase, and the wall-clock
// game timer. All methods are safe for concurrent use; every mutation goes
// through the session's coarse lock.
type Session struct {
	mu     sync.RWMutex
	logger *zap.Logger

	grid     *world.Grid
	capacity int

	phase       Phase
	players     map[int]*Player
	nextID      int
	timeLimit   time.Duration
	activeStart time.Time
}

// New creates a session in the lobby phase with an empty registry.
//
// Precondition: grid and logger must be non-nil; capacity must be >= 1;
// timeLimit must be positive.
func New(grid *world.Grid, capacity int, timeLimit time.Duration, logger *zap.Logger) *Session {
	return &Session{
		logger:    logger,
		grid:      grid,
		capacity:  capacity,
		phase:     PhaseLobby,
		players:   make(map[int]*Player),
		nextID:    1,
		timeLimit: timeLimit,
	}
}

// AddPlayer registers a new player at their deterministic spawn position and
// returns a copy of the created record.
//
// Postcondition: The player is registered with the next sequential id, or
// ErrSessionFull is returned and the registry is unchanged.
func (s *Session) AddPlayer() (Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.players) >= s.capacity {
		return Player{}, ErrSessionFull
	}

	id := s.nextID
	s.nextID++

	spawn := s.grid.SpawnPosition(id)
	p := &Player{ID: id, X: spawn.X, Y: spawn.Y}
	s.players[id] = p

	s.logger.Info("player registered",
		zap.Int("player_id", id),
		zap.Int("x", spawn.X),
		zap.Int("y", spawn.Y),
	)
	return *p, nil
}

// RemovePlayer removes a player from the registry.
//
// Postcondition: The player is gone; returns an error if the id is unknown.
func (s *Session) RemovePlayer(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[id]; !ok {
		return fmt.Errorf("player %d not found", id)
	}
	delete(s.players, id)

	s.logger.Info("player removed", zap.Int("player_id", id))
	return nil
}

// ToggleReady flips a player's lobby ready flag and reports whether every
// currently registered player is now ready. Outside the lobby phase the
// toggle is ignored and allReady is false.
//
// Postcondition: allReady is false whenever the registry is empty.
func (s *Session) ToggleReady(id int) (allReady bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseLobby {
		return false, false
	}
	p, exists := s.players[id]
	if !exists {
		return false, false
	}

	p.Ready = !p.Ready

	if len(s.players) == 0 {
		return false, true
	}
	for _, other := range s.players {
		if !other.Ready {
			return false, true
		}
	}
	return true, true
}

// ReadyRoster returns each registered player's ready flag.
func (s *Session) ReadyRoster() map[int]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roster := make(map[int]bool, len(s.players))
	for id, p := range s.players {
		roster[id] = p.Ready
	}
	return roster
}

// MovePlayer applies a one-cell move if the destination is passable.
//
// Postcondition: Returns true and the new position if the move was applied;
// the position is unchanged on a blocked or out-of-bounds move.
func (s *Session) MovePlayer(id int, direction string) (world.Cell, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.players[id]
	if !exists {
		return world.Cell{}, false
	}

	nx, ny := world.Step(p.X, p.Y, direction)
	if nx == p.X && ny == p.Y {
		return world.Cell{}, false
	}
	if !s.grid.Passable(nx, ny) {
		return world.Cell{}, false
	}

	p.X, p.Y = nx, ny
	return world.Cell{X: nx, Y: ny}, true
}

// Position returns a player's current cell.
func (s *Session) Position(id int) (world.Cell, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.players[id]
	if !exists {
		return world.Cell{}, false
	}
	return world.Cell{X: p.X, Y: p.Y}, true
}

// AddScore increments a player's score by one.
//
// Postcondition: Score increases by exactly one; unknown ids are a no-op.
func (s *Session) AddScore(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, exists := s.players[id]; exists {
		p.Score++
	}
}

// Players returns a copy of every registered player's state.
func (s *Session) Players() map[int]Player {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int]Player, len(s.players))
	for id, p := range s.players {
		out[id] = *p
	}
	return out
}

// PlayerCount returns the number of registered players.
func (s *Session) PlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// Phase returns the current session phase.
func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// BeginCountdown moves the session from the lobby into the countdown.
//
// Postcondition: Returns true iff the transition happened; from any phase
// other than the lobby this is a no-op.
func (s *Session) BeginCountdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseLobby {
		return false
	}
	s.phase = PhaseCountdown
	s.logger.Info("phase transition", zap.Stringer("phase", s.phase))
	return true
}

// Activate moves the session from the countdown into the active phase and
// records the phase-start timestamp used by the wall-clock timer.
//
// Postcondition: Returns true iff the transition happened.
func (s *Session) Activate(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseCountdown {
		return false
	}
	s.phase = PhaseActive
	s.activeStart = now
	s.logger.Info("phase transition",
		zap.Stringer("phase", s.phase),
		zap.Duration("time_limit", s.timeLimit),
	)
	return true
}

// End moves the session into the terminal game-over phase.
//
// Postcondition: Returns true exactly once; later calls return false.
func (s *Session) End() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseGameOver {
		return false
	}
	s.phase = PhaseGameOver
	s.logger.Info("phase transition", zap.Stringer("phase", s.phase))
	return true
}

// TimeLeft returns the remaining active-phase time at the given instant,
// clamped to zero. Before the active phase it returns the full limit.
func (s *Session) TimeLeft(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.activeStart.IsZero() {
		return s.timeLimit
	}
	remaining := s.timeLimit - now.Sub(s.activeStart)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expired reports whether the active-phase time limit has elapsed.
func (s *Session) Expired(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.phase != PhaseActive || s.activeStart.IsZero() {
		return false
	}
	return now.Sub(s.activeStart) >= s.timeLimit
}
