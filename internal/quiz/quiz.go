// Package quiz provides the question model, the YAML question-bank loader,
// and the FIFO bank that replenishes stations during a session.
package quiz

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// Question is one quiz entry: prompt text, ordered options, and the index of
// the correct option. The correct index never leaves the server.
type Question struct {
	Text         string
	Options      []string
	CorrectIndex int
}

// Validate checks the question invariants.
//
// Postcondition: Returns nil if the question is well formed.
func (q Question) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("question text must not be empty")
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("question %q must have at least 2 options, got %d", q.Text, len(q.Options))
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("question %q correct index %d out of range [0,%d)", q.Text, q.CorrectIndex, len(q.Options))
	}
	return nil
}

// Bank is the pool of questions not yet assigned to any station.
// Questions are consumed in FIFO order. Safe for concurrent use.
type Bank struct {
	mu    sync.Mutex
	queue []Question
}

// NewBank creates a bank over the given questions in order.
func NewBank(questions []Question) *Bank {
	queue := make([]Question, len(questions))
	copy(queue, questions)
	return &Bank{queue: queue}
}

// Pop removes and returns the oldest question.
//
// Postcondition: Returns (question, true), or (zero, false) when empty.
func (b *Bank) Pop() (Question, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.queue) == 0 {
		return Question{}, false
	}
	q := b.queue[0]
	b.queue = b.queue[1:]
	return q, true
}

// Len returns the number of remaining questions.
func (b *Bank) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Split shuffles the questions and divides them into the initial station set
// and the replenishment bank.
//
// Precondition: rng must be non-nil; initial must be >= 0.
// Postcondition: Returns at most initial questions plus a Bank holding the
// remainder; the input slice is not modified.
func Split(questions []Question, initial int, rng *rand.Rand) ([]Question, *Bank) {
	shuffled := make([]Question, len(questions))
	copy(shuffled, questions)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if initial > len(shuffled) {
		initial = len(shuffled)
	}
	return shuffled[:initial], NewBank(shuffled[initial:])
}
