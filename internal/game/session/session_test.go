package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/gridquiz/internal/game/world"
)

func testSession(t *testing.T, capacity int) *Session {
	t.Helper()
	grid, err := world.New(50, 40, world.DefaultObstacles())
	require.NoError(t, err)
	return New(grid, capacity, 3*time.Minute, zap.NewNop())
}

func TestAddPlayerSequentialIDs(t *testing.T) {
	s := testSession(t, 4)

	for want := 1; want <= 4; want++ {
		p, err := s.AddPlayer()
		require.NoError(t, err)
		assert.Equal(t, want, p.ID)
		assert.Zero(t, p.Score)
		assert.False(t, p.Ready)
	}
	assert.Equal(t, 4, s.PlayerCount())
}

func TestAddPlayerSpawnCorners(t *testing.T) {
	s := testSession(t, 6)

	expected := []world.Cell{
		{X: 0, Y: 2}, {X: 49, Y: 2}, {X: 0, Y: 39}, {X: 49, Y: 39}, {X: 0, Y: 0},
	}
	for _, want := range expected {
		p, err := s.AddPlayer()
		require.NoError(t, err)
		assert.Equal(t, want, world.Cell{X: p.X, Y: p.Y})
	}
}

func TestAddPlayerCapacity(t *testing.T) {
	s := testSession(t, 2)
	_, err := s.AddPlayer()
	require.NoError(t, err)
	_, err = s.AddPlayer()
	require.NoError(t, err)

	_, err = s.AddPlayer()
	assert.ErrorIs(t, err, ErrSessionFull)
	assert.Equal(t, 2, s.PlayerCount())
}

func TestIDsNotReusedAfterRemove(t *testing.T) {
	s := testSession(t, 4)
	p1, _ := s.AddPlayer()
	require.NoError(t, s.RemovePlayer(p1.ID))

	p2, err := s.AddPlayer()
	require.NoError(t, err)
	assert.Equal(t, 2, p2.ID)
}

func TestRemovePlayerUnknown(t *testing.T) {
	s := testSession(t, 4)
	assert.Error(t, s.RemovePlayer(99))
}

func TestToggleReadyAllReady(t *testing.T) {
	s := testSession(t, 4)
	p1, _ := s.AddPlayer()
	p2, _ := s.AddPlayer()

	all, ok := s.ToggleReady(p1.ID)
	require.True(t, ok)
	assert.False(t, all)

	all, ok = s.ToggleReady(p2.ID)
	require.True(t, ok)
	assert.True(t, all)
}

func TestToggleReadyIsAToggle(t *testing.T) {
	s := testSession(t, 4)
	p1, _ := s.AddPlayer()

	all, _ := s.ToggleReady(p1.ID)
	assert.True(t, all, "single ready player means all ready")

	all, _ = s.ToggleReady(p1.ID)
	assert.False(t, all, "second toggle clears the flag")
	assert.False(t, s.ReadyRoster()[p1.ID])
}

func TestToggleReadyIgnoredOutsideLobby(t *testing.T) {
	s := testSession(t, 4)
	p1, _ := s.AddPlayer()
	require.True(t, s.BeginCountdown())

	_, ok := s.ToggleReady(p1.ID)
	assert.False(t, ok)
}

func TestMovePlayer(t *testing.T) {
	s := testSession(t, 4)
	p, _ := s.AddPlayer() // spawns at (0,2)

	cell, moved := s.MovePlayer(p.ID, "right")
	require.True(t, moved)
	assert.Equal(t, world.Cell{X: 1, Y: 2}, cell)

	_, moved = s.MovePlayer(p.ID, "sideways")
	assert.False(t, moved)
}

func TestMovePlayerBlockedAtEdge(t *testing.T) {
	s := testSession(t, 4)
	p, _ := s.AddPlayer() // (0,2)

	_, moved := s.MovePlayer(p.ID, "left")
	assert.False(t, moved)

	pos, ok := s.Position(p.ID)
	require.True(t, ok)
	assert.Equal(t, world.Cell{X: 0, Y: 2}, pos)
}

func TestMovePlayerBlockedByObstacle(t *testing.T) {
	s := testSession(t, 4)
	p, _ := s.AddPlayer()

	// Walk to (14,5), immediately left of the default wall.
	for i := 0; i < 14; i++ {
		_, moved := s.MovePlayer(p.ID, "right")
		require.True(t, moved)
	}
	for i := 0; i < 3; i++ {
		_, moved := s.MovePlayer(p.ID, "down")
		require.True(t, moved)
	}
	pos, _ := s.Position(p.ID)
	require.Equal(t, world.Cell{X: 14, Y: 5}, pos)

	_, moved := s.MovePlayer(p.ID, "right")
	assert.False(t, moved, "wall cell (15,5) must block")
}

func TestPhaseTransitions(t *testing.T) {
	s := testSession(t, 4)
	assert.Equal(t, PhaseLobby, s.Phase())

	assert.False(t, s.Activate(time.Now()), "cannot activate from lobby")

	require.True(t, s.BeginCountdown())
	assert.Equal(t, PhaseCountdown, s.Phase())
	assert.False(t, s.BeginCountdown(), "countdown is not re-enterable")

	require.True(t, s.Activate(time.Now()))
	assert.Equal(t, PhaseActive, s.Phase())

	assert.True(t, s.End())
	assert.Equal(t, PhaseGameOver, s.Phase())
	assert.False(t, s.End(), "game over is terminal and reported once")
}

func TestTimeLeft(t *testing.T) {
	s := testSession(t, 4)
	start := time.Now()

	assert.Equal(t, 3*time.Minute, s.TimeLeft(start), "full limit before active")

	require.True(t, s.BeginCountdown())
	require.True(t, s.Activate(start))

	assert.Equal(t, 3*time.Minute, s.TimeLeft(start))
	assert.Equal(t, 2*time.Minute, s.TimeLeft(start.Add(time.Minute)))
	assert.Equal(t, time.Duration(0), s.TimeLeft(start.Add(time.Hour)))

	assert.False(t, s.Expired(start.Add(time.Minute)))
	assert.True(t, s.Expired(start.Add(3*time.Minute)))
}

func TestTimeLeftClampedAndNonIncreasing(t *testing.T) {
	grid, err := world.New(50, 40, world.DefaultObstacles())
	require.NoError(t, err)

	rapid.Check(t, func(t *rapid.T) {
		s := New(grid, 4, 3*time.Minute, zap.NewNop())
		start := time.Unix(1_700_000_000, 0)
		require.True(t, s.BeginCountdown())
		require.True(t, s.Activate(start))

		prev := s.TimeLeft(start)
		elapsed := time.Duration(0)
		steps := rapid.IntRange(1, 20).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			elapsed += time.Duration(rapid.Int64Range(0, int64(time.Minute)).Draw(t, "delta"))
			left := s.TimeLeft(start.Add(elapsed))
			assert.GreaterOrEqual(t, left, time.Duration(0))
			assert.LessOrEqual(t, left, prev)
			prev = left
		}
	})
}

func TestScoreMonotonic(t *testing.T) {
	s := testSession(t, 4)
	p, _ := s.AddPlayer()

	for i := 1; i <= 5; i++ {
		s.AddScore(p.ID)
		assert.Equal(t, i, s.Players()[p.ID].Score)
	}

	s.AddScore(999) // unknown id is a no-op
	assert.Equal(t, 5, s.Players()[p.ID].Score)
}

func TestPlayersReturnsCopies(t *testing.T) {
	s := testSession(t, 4)
	p, _ := s.AddPlayer()

	snapshot := s.Players()
	entry := snapshot[p.ID]
	entry.Score = 100
	snapshot[p.ID] = entry

	assert.Zero(t, s.Players()[p.ID].Score)
}

func TestConcurrentAddRemove(t *testing.T) {
	s := testSession(t, 200)
	const n = 100
	var wg sync.WaitGroup

	ids := make(chan int, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			p, err := s.AddPlayer()
			if err == nil {
				ids <- p.ID
			}
		}()
	}
	wg.Wait()
	close(ids)
	assert.Equal(t, n, s.PlayerCount())

	seen := map[int]bool{}
	for id := range ids {
		require.False(t, seen[id], fmt.Sprintf("duplicate id %d", id))
		seen[id] = true
	}

	var wg2 sync.WaitGroup
	for id := range seen {
		wg2.Add(1)
		go func(id int) {
			defer wg2.Done()
			_ = s.RemovePlayer(id)
		}(id)
	}
	wg2.Wait()
	assert.Zero(t, s.PlayerCount())
}
