package server

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridquiz/internal/game/session"
	"github.com/cory-johannsen/gridquiz/internal/protocol"
)

// sendTo delivers a message to a single player. A client whose outbound
// buffer is full is evicted by closing its socket; its own read loop then
// runs the standard disconnect cleanup.
func (s *Server) sendTo(playerID int, msg protocol.Message) {
	data, err := frame(msg)
	if err != nil {
		s.logger.Error("encoding message",
			zap.String("msg_type", msg.MsgType()),
			zap.Error(err),
		)
		return
	}

	s.mu.Lock()
	c, ok := s.clients[playerID]
	if ok && !c.enqueue(data) {
		s.logger.Warn("client too slow, evicting",
			zap.Int("player_id", playerID),
		)
		_ = c.conn.Close()
	}
	s.mu.Unlock()
}

// broadcast fans a message out to every connected client. The encoded frame
// is built once; enqueueing is non-blocking, so a stalled connection can
// never block other players' progress.
func (s *Server) broadcast(msg protocol.Message) {
	data, err := frame(msg)
	if err != nil {
		s.logger.Error("encoding broadcast",
			zap.String("msg_type", msg.MsgType()),
			zap.Error(err),
		)
		return
	}

	s.mu.Lock()
	for id, c := range s.clients {
		if !c.enqueue(data) {
			s.logger.Warn("client too slow, evicting",
				zap.Int("player_id", id),
			)
			_ = c.conn.Close()
		}
	}
	s.mu.Unlock()
}

// buildState copies the public state out from under the session and station
// locks and assembles the snapshot. Claimants, cooldowns, and question
// content never appear here.
func (s *Server) buildState(now time.Time) protocol.State {
	return protocol.NewState(
		playerStates(s.sess.Players()),
		stationStates(s.stations.Views()),
		int(s.sess.TimeLeft(now).Seconds()),
		s.sess.Phase() == session.PhaseGameOver,
	)
}

// broadcastState publishes a fresh snapshot to all clients. Every broadcast
// reflects a state at least as new as the mutation that triggered it.
func (s *Server) broadcastState(now time.Time) {
	s.broadcast(s.buildState(now))
}

// syncLoop publishes a snapshot once per second during the active phase so
// client-side timers stay synchronized, and ends the game when the time
// limit elapses.
func (s *Server) syncLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			return
		case now := <-ticker.C:
			if s.sess.Phase() != session.PhaseActive {
				continue
			}
			if s.sess.Expired(now) {
				s.endGame()
				continue
			}
			s.broadcastState(now)
		}
	}
}

// runCountdown broadcasts the remaining count once per second and then
// unconditionally activates the session. Ready toggles arriving during the
// countdown are ignored by the session phase machine.
func (s *Server) runCountdown() {
	defer s.wg.Done()

	remaining := int(s.countdown.Seconds())
	s.logger.Info("countdown started", zap.Int("seconds", remaining))

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for ; remaining > 0; remaining-- {
		s.broadcast(protocol.NewCountdown(remaining))
		select {
		case <-s.quit:
			return
		case <-ticker.C:
		}
	}

	now := time.Now()
	if !s.sess.Activate(now) {
		return
	}
	s.broadcast(protocol.NewGameStart())
	s.broadcastState(now)
}

// endGame performs the terminal transition exactly once: the session enters
// the game-over phase, a final snapshot goes out, and the final scoreboard
// is broadcast.
func (s *Server) endGame() {
	s.gameOverOnce.Do(func() {
		s.sess.End()

		now := time.Now()
		s.broadcastState(now)

		scores := make(map[int]protocol.FinalScore)
		for id, p := range s.sess.Players() {
			scores[id] = protocol.FinalScore{Score: p.Score}
		}
		s.broadcast(protocol.NewGameOver(scores))

		s.logger.Info("game over", zap.Int("players", len(scores)))
	})
}
