package station

import (
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridquiz/internal/game/world"
	"github.com/cory-johannsen/gridquiz/internal/quiz"
)

// SubmitResult reports everything the caller needs after an answer
// submission: the outcome, the station appended from the bank on a correct
// answer (nil otherwise), and whether the pool is now complete.
type SubmitResult struct {
	Outcome AnswerOutcome
	// Replenished is the view of the newly placed station, if any.
	Replenished *View
	// Complete is true when every station is answered and the bank is empty.
	Complete bool
}

// Manager owns the station pool. Stations are appended, never removed or
// repositioned. The manager's lock guards only the pool slice; each
// station's claim state is guarded by its own mutex.
type Manager struct {
	mu       sync.RWMutex
	stations []*Station
	nextID   int

	bank   *quiz.Bank
	grid   *world.Grid
	rng    *rand.Rand
	grace  time.Duration
	logger *zap.Logger
}

// NewManager creates the pool, placing one station per initial question at a
// uniformly chosen obstacle-free cell. Overlap between stations is permitted.
//
// Precondition: grid, bank, rng, and logger must be non-nil; grace >= 0.
// Postcondition: Returns a Manager with len(initial) stations.
func NewManager(grid *world.Grid, initial []quiz.Question, bank *quiz.Bank, grace time.Duration, rng *rand.Rand, logger *zap.Logger) *Manager {
	m := &Manager{
		bank:   bank,
		grid:   grid,
		rng:    rng,
		grace:  grace,
		logger: logger,
		nextID: 1,
	}
	for _, q := range initial {
		m.place(q)
	}
	return m
}

// place appends a station for q at a random free cell.
// Caller must not hold m.mu.
func (m *Manager) place(q quiz.Question) *Station {
	m.mu.Lock()
	defer m.mu.Unlock()

	cell, ok := m.grid.RandomFreeCell(m.rng)
	if !ok {
		// A grid with no free cell is rejected at construction time by the
		// world package; fall back to the origin rather than panic.
		cell = world.Cell{}
	}

	st := newStation(m.nextID, cell.X, cell.Y, q)
	m.nextID++
	m.stations = append(m.stations, st)

	m.logger.Info("station placed",
		zap.Int("station_id", st.id),
		zap.Int("x", st.x),
		zap.Int("y", st.y),
	)
	return st
}

// byID returns the station with the given id.
func (m *Manager) byID(id int) *Station {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, st := range m.stations {
		if st.id == id {
			return st
		}
	}
	return nil
}

// Claim attempts to claim the station at the caller's cell. Preconditions
// are checked in order: a station occupies the cell and is not answered, the
// caller's cooldown has expired, and no other player holds the claim. The
// acquisition itself is non-blocking: of two simultaneous claimants exactly
// one observes ClaimGranted and the other ClaimBusy.
//
// Postcondition: On ClaimGranted the claimed station's id and the question
// payload (text and options, never the correct index) are returned for
// delivery to the claimant only; otherwise the id is 0.
func (m *Manager) Claim(playerID int, pos world.Cell, now time.Time) (ClaimResult, int, quiz.Question) {
	m.mu.RLock()
	candidates := make([]*Station, 0, 1)
	for _, st := range m.stations {
		if st.x == pos.X && st.y == pos.Y {
			candidates = append(candidates, st)
		}
	}
	m.mu.RUnlock()

	result := ClaimRejected
	for _, st := range candidates {
		switch r := st.tryClaim(playerID, now); r {
		case ClaimGranted:
			m.logger.Debug("claim granted",
				zap.Int("player_id", playerID),
				zap.Int("station_id", st.id),
			)
			return ClaimGranted, st.id, st.question
		case ClaimBusy, ClaimOnCooldown:
			// Stations may overlap on one cell; keep the most specific
			// refusal seen while trying the rest.
			result = r
		}
	}
	return result, 0, quiz.Question{}
}

// SubmitAnswer resolves an answer from playerID for the given station.
// Rejected when the station is unknown, already answered, or the caller is
// not the current claimant. On a correct answer the station is answered
// permanently, and if the bank is non-empty the next question (FIFO) is
// placed as a new station. On an incorrect answer the claim is released and
// a cooldown of now+grace applies to this (player, station) pair.
func (m *Manager) SubmitAnswer(playerID, stationID, option int, now time.Time) SubmitResult {
	st := m.byID(stationID)
	if st == nil {
		return SubmitResult{Outcome: AnswerRejected}
	}

	outcome := st.submit(playerID, option, now.Add(m.grace))
	if outcome != AnswerCorrect {
		return SubmitResult{Outcome: outcome}
	}

	m.logger.Info("station answered",
		zap.Int("player_id", playerID),
		zap.Int("station_id", stationID),
	)

	res := SubmitResult{Outcome: AnswerCorrect}
	if q, ok := m.bank.Pop(); ok {
		v := m.place(q).view()
		res.Replenished = &v
	}
	res.Complete = m.Complete()
	return res
}

// Cancel voluntarily releases playerID's claim on the station, applying the
// same cooldown as an incorrect answer but without scoring.
//
// Postcondition: Returns true iff the caller held the claim; otherwise the
// call is a no-op.
func (m *Manager) Cancel(playerID, stationID int, now time.Time) bool {
	st := m.byID(stationID)
	if st == nil {
		return false
	}
	return st.cancel(playerID, now.Add(m.grace))
}

// ReleaseAll releases every claim held by playerID with no cooldown.
// Used when a player disconnects.
//
// Postcondition: playerID holds no claims and has no cooldown entries.
func (m *Manager) ReleaseAll(playerID int) {
	m.mu.RLock()
	stations := make([]*Station, len(m.stations))
	copy(stations, m.stations)
	m.mu.RUnlock()

	for _, st := range stations {
		if st.releaseFor(playerID) {
			m.logger.Info("claim released on disconnect",
				zap.Int("player_id", playerID),
				zap.Int("station_id", st.id),
			)
		}
	}
}

// Views returns the public snapshot rows for every station.
func (m *Manager) Views() []View {
	m.mu.RLock()
	stations := make([]*Station, len(m.stations))
	copy(stations, m.stations)
	m.mu.RUnlock()

	views := make([]View, 0, len(stations))
	for _, st := range stations {
		views = append(views, st.view())
	}
	return views
}

// Complete reports whether every station is answered and the bank is empty.
// A pool that never had stations (empty content) is complete by definition.
func (m *Manager) Complete() bool {
	if m.bank.Len() > 0 {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, st := range m.stations {
		if !st.isAnswered() {
			return false
		}
	}
	return true
}

// Count returns the number of stations in the pool.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.stations)
}
