package server

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridquiz/internal/game/session"
	"github.com/cory-johannsen/gridquiz/internal/game/station"
	"github.com/cory-johannsen/gridquiz/internal/protocol"
)

// Informational texts sent for refused claim attempts.
const (
	msgStationBusy     = "Station is currently in use by another player."
	msgStationCooldown = "You must wait before trying this station again."
	msgNoStation       = "There is no quiz station here."
)

// handleMessage dispatches one client message against the current phase.
// Gameplay messages outside their phase are ignored; the game-over phase
// ignores everything.
func (s *Server) handleMessage(c *client, msg protocol.Message) {
	phase := s.sess.Phase()
	if phase == session.PhaseGameOver {
		return
	}

	switch m := msg.(type) {
	case protocol.PlayerReady:
		if phase == session.PhaseLobby {
			s.handleReady(c)
		}
	case protocol.Move:
		if phase == session.PhaseActive {
			s.handleMove(c, m)
		}
	case protocol.Interact:
		if phase == session.PhaseActive {
			s.handleInteract(c)
		}
	case protocol.Answer:
		if phase == session.PhaseActive {
			s.handleAnswer(c, m)
		}
	case protocol.CancelQuiz:
		if phase == session.PhaseActive {
			s.stations.Cancel(c.playerID, m.StationID, time.Now())
		}
	default:
		s.logger.Debug("ignoring message",
			zap.String("msg_type", msg.MsgType()),
			zap.Int("player_id", c.playerID),
		)
	}
}

// handleReady toggles the sender's ready flag, republishes the lobby roster,
// and starts the countdown when every registered player is ready.
func (s *Server) handleReady(c *client) {
	allReady, ok := s.sess.ToggleReady(c.playerID)
	if !ok {
		return
	}
	s.broadcast(protocol.NewLobbyState(s.sess.ReadyRoster()))

	if allReady && s.sess.BeginCountdown() {
		s.wg.Add(1)
		go s.runCountdown()
	}
}

// handleMove applies a movement request and, if the player actually moved,
// publishes a snapshot.
func (s *Server) handleMove(c *client, m protocol.Move) {
	if _, moved := s.sess.MovePlayer(c.playerID, m.Direction); moved {
		s.broadcastState(time.Now())
	}
}

// handleInteract attempts to claim the station at the player's cell. The
// question goes to the claimant only; every refusal is surfaced as an info
// message so the client can explain the failed attempt.
func (s *Server) handleInteract(c *client) {
	pos, ok := s.sess.Position(c.playerID)
	if !ok {
		return
	}

	now := time.Now()
	result, stationID, q := s.stations.Claim(c.playerID, pos, now)
	switch result {
	case station.ClaimGranted:
		s.sendTo(c.playerID, protocol.NewQuestion(stationID, q.Text, q.Options))
	case station.ClaimBusy:
		s.sendTo(c.playerID, protocol.NewInfo(msgStationBusy))
	case station.ClaimOnCooldown:
		s.sendTo(c.playerID, protocol.NewInfo(msgStationCooldown))
	case station.ClaimRejected:
		s.sendTo(c.playerID, protocol.NewInfo(msgNoStation))
	}
}

// handleAnswer resolves an answer submission. A correct answer scores,
// becomes visible to everyone through a snapshot, and may end the game; an
// incorrect answer is reported to the sender only.
func (s *Server) handleAnswer(c *client, m protocol.Answer) {
	now := time.Now()
	res := s.stations.SubmitAnswer(c.playerID, m.StationID, m.Answer, now)

	switch res.Outcome {
	case station.AnswerCorrect:
		s.sess.AddScore(c.playerID)
		s.sendTo(c.playerID, protocol.NewAnswerResult(true))
		s.broadcastState(now)
		if res.Complete {
			s.endGame()
		}
	case station.AnswerIncorrect:
		s.sendTo(c.playerID, protocol.NewAnswerResult(false))
	case station.AnswerRejected:
		s.sendTo(c.playerID, protocol.NewInfo("Answer rejected."))
	}
}
