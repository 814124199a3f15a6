// Package station provides the quiz station pool: the claim, answer, cancel,
// and release protocol that decides who may answer which station, and the
// bank-driven replenishment of answered stations.
package station

import (
	"sync"
	"time"

	"github.com/cory-johannsen/gridquiz/internal/quiz"
)

// ClaimResult is the outcome of a claim attempt.
type ClaimResult int

const (
	// ClaimGranted means the caller now holds the station's exclusive claim.
	ClaimGranted ClaimResult = iota
	// ClaimBusy means another player holds the claim right now.
	ClaimBusy
	// ClaimOnCooldown means the caller's cooldown for this station has not
	// expired yet.
	ClaimOnCooldown
	// ClaimRejected means there is no claimable station (none at the cell,
	// or it is already answered).
	ClaimRejected
)

// AnswerOutcome is the outcome of an answer submission.
type AnswerOutcome int

const (
	// AnswerCorrect means the station is now permanently answered and the
	// caller scored.
	AnswerCorrect AnswerOutcome = iota
	// AnswerIncorrect means the claim was released and a cooldown applies.
	AnswerIncorrect
	// AnswerRejected means the station is unknown, already answered, or the
	// caller is not the current claimant.
	AnswerRejected
)

// View is the public snapshot row for one station. It never exposes the
// claimant, cooldowns, or question content.
type View struct {
	ID       int
	X        int
	Y        int
	Answered bool
}

// Station is one quiz interaction point. Claim state, the answered flag, and
// the per-player cooldown map are guarded by the station's own mutex so that
// contention on one station never serializes against another.
type Station struct {
	id       int
	x        int
	y        int
	question quiz.Question

	mu        sync.Mutex
	activeBy  int // claimant player id; 0 means unclaimed
	answered  bool
	cooldowns map[int]time.Time // player id -> claim allowed at/after
}

func newStation(id, x, y int, q quiz.Question) *Station {
	return &Station{
		id:        id,
		x:         x,
		y:         y,
		question:  q,
		cooldowns: make(map[int]time.Time),
	}
}

// ID returns the station identifier.
func (s *Station) ID() int { return s.id }

// tryClaim attempts the exclusive, non-blocking claim acquisition.
// Exactly one of several concurrent callers observes ClaimGranted.
func (s *Station) tryClaim(playerID int, now time.Time) ClaimResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.answered {
		return ClaimRejected
	}
	if until, ok := s.cooldowns[playerID]; ok {
		if now.Before(until) {
			return ClaimOnCooldown
		}
		delete(s.cooldowns, playerID)
	}
	if s.activeBy != 0 {
		return ClaimBusy
	}
	s.activeBy = playerID
	return ClaimGranted
}

// submit resolves an answer from the current claimant. A correct answer
// marks the station answered forever and releases the claim; an incorrect
// one releases the claim and records a cooldown until the given expiry.
func (s *Station) submit(playerID, option int, cooldownUntil time.Time) AnswerOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.answered || s.activeBy != playerID {
		return AnswerRejected
	}

	s.activeBy = 0
	if option == s.question.CorrectIndex {
		s.answered = true
		return AnswerCorrect
	}
	s.cooldowns[playerID] = cooldownUntil
	return AnswerIncorrect
}

// cancel releases the claim and records a cooldown iff the caller holds the
// claim; otherwise it is a no-op.
func (s *Station) cancel(playerID int, cooldownUntil time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeBy != playerID || s.answered {
		return false
	}
	s.activeBy = 0
	s.cooldowns[playerID] = cooldownUntil
	return true
}

// releaseFor unconditionally releases the claim if held by the given player,
// with no cooldown. Used on disconnect.
func (s *Station) releaseFor(playerID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cooldowns, playerID)
	if s.activeBy != playerID {
		return false
	}
	s.activeBy = 0
	return true
}

// isAnswered reads the answered flag under the station lock.
func (s *Station) isAnswered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answered
}

// claimant returns the current claimant id, 0 if unclaimed.
func (s *Station) claimant() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeBy
}

// view builds the public snapshot row.
func (s *Station) view() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{ID: s.id, X: s.x, Y: s.y, Answered: s.answered}
}
