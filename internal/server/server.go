// Package server provides the TCP front of the quiz game: the connection
// acceptor, the per-connection receive loops, message dispatch into the
// session and station pool, and the broadcast engine that keeps every
// client's view synchronized.
package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridquiz/internal/config"
	"github.com/cory-johannsen/gridquiz/internal/game/session"
	"github.com/cory-johannsen/gridquiz/internal/game/station"
	"github.com/cory-johannsen/gridquiz/internal/protocol"
)

// Server accepts player connections and drives one quiz game session from
// lobby to game over.
type Server struct {
	cfg       config.ServerConfig
	countdown time.Duration
	logger    *zap.Logger

	sess     *session.Session
	stations *station.Manager

	listener net.Listener
	wg       sync.WaitGroup
	quit     chan struct{}

	mu      sync.Mutex
	clients map[int]*client
	running bool

	gameOverOnce sync.Once
}

// New creates a server over the given session and station pool.
//
// Precondition: sess, stations, and logger must be non-nil; countdown must
// be positive.
// Postcondition: Returns a Server ready to be started with ListenAndServe.
func New(cfg config.ServerConfig, countdown time.Duration, sess *session.Session, stations *station.Manager, logger *zap.Logger) *Server {
	return &Server{
		cfg:       cfg,
		countdown: countdown,
		logger:    logger,
		sess:      sess,
		stations:  stations,
		quit:      make(chan struct{}),
		clients:   make(map[int]*client),
	}
}

// ListenAndServe starts the TCP listener and accepts connections until Stop
// is called. This method blocks until the server is stopped.
//
// Precondition: The server must not already be running.
// Postcondition: The listener is closed when this method returns.
func (s *Server) ListenAndServe() error {
	start := time.Now()

	listener, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr(), err)
	}

	s.mu.Lock()
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	s.logger.Info("server listening",
		zap.String("addr", listener.Addr().String()),
		zap.Int("max_players", s.cfg.MaxPlayers),
		zap.Duration("startup", time.Since(start)),
	)

	s.wg.Add(1)
	go s.syncLoop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return nil
			default:
				s.logger.Error("accepting connection", zap.Error(err))
				continue
			}
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// Stop gracefully stops the server: the listener is closed, every client
// connection is closed, and all connection goroutines are waited for.
//
// Postcondition: All connections are closed and goroutines have exited.
func (s *Server) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false

	close(s.quit)
	if s.listener != nil {
		_ = s.listener.Close()
	}
	for _, c := range s.clients {
		_ = c.conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("server stopped")
}

// Addr returns the actual listening address, or empty string if not yet
// listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// handleConn performs the handshake for one accepted socket and then runs
// its receive loop. It is the connection's sole reader, and its return is
// the sole trigger for the player's disconnect cleanup.
func (s *Server) handleConn(raw net.Conn) {
	defer s.wg.Done()

	c := newClient(raw, s.cfg.WriteTimeout)
	logger := s.logger.With(
		zap.String("conn_id", c.connID.String()),
		zap.String("remote_addr", raw.RemoteAddr().String()),
	)
	logger.Info("client connected")

	if s.sess.Phase() == session.PhaseGameOver {
		_ = protocol.WriteMessage(raw, protocol.NewInfo("Game is over."))
		_ = raw.Close()
		return
	}

	player, err := s.sess.AddPlayer()
	if errors.Is(err, session.ErrSessionFull) {
		logger.Warn("connection rejected, session full")
		_ = protocol.WriteMessage(raw, protocol.NewInfo("Server full"))
		_ = raw.Close()
		return
	}
	if err != nil {
		logger.Error("registering player", zap.Error(err))
		_ = raw.Close()
		return
	}

	c.playerID = player.ID
	logger = logger.With(zap.Int("player_id", player.ID))

	s.mu.Lock()
	s.clients[player.ID] = c
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		c.writeLoop()
	}()

	now := time.Now()
	s.sendTo(player.ID, protocol.NewInit(
		player.ID,
		playerStates(s.sess.Players()),
		stationStates(s.stations.Views()),
		int(s.sess.TimeLeft(now).Seconds()),
	))

	switch s.sess.Phase() {
	case session.PhaseLobby:
		s.broadcast(protocol.NewLobbyState(s.sess.ReadyRoster()))
	case session.PhaseActive:
		s.broadcastState(now)
	}

	s.readLoop(c, logger)
	s.disconnect(c, logger)
}

// readLoop processes frames from one client until end of stream or a
// malformed read. Messages with an unrecognized type are dropped silently.
func (s *Server) readLoop(c *client, logger *zap.Logger) {
	for {
		msg, err := protocol.ReadMessage(c.conn)
		if err != nil {
			if errors.Is(err, protocol.ErrUnknownType) {
				logger.Debug("dropping unknown message", zap.Error(err))
				continue
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				logger.Debug("read failed", zap.Error(err))
			}
			return
		}
		s.handleMessage(c, msg)
	}
}

// disconnect runs the departing player's cleanup: any held claim is released
// with no cooldown, the player leaves the registry, and the remaining
// clients get an updated view if the game is still running.
func (s *Server) disconnect(c *client, logger *zap.Logger) {
	s.stations.ReleaseAll(c.playerID)
	_ = s.sess.RemovePlayer(c.playerID)

	s.mu.Lock()
	if _, ok := s.clients[c.playerID]; ok {
		delete(s.clients, c.playerID)
		close(c.outbound)
	}
	s.mu.Unlock()

	_ = c.conn.Close()
	logger.Info("client disconnected")

	switch s.sess.Phase() {
	case session.PhaseActive:
		s.broadcastState(time.Now())
	case session.PhaseLobby:
		s.broadcast(protocol.NewLobbyState(s.sess.ReadyRoster()))
	}
}

// frame encodes a message into its length-prefixed wire form.
func frame(msg protocol.Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := protocol.WriteMessage(&buf, msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// playerStates converts registry entries to their public wire form.
func playerStates(players map[int]session.Player) map[int]protocol.PlayerState {
	out := make(map[int]protocol.PlayerState, len(players))
	for id, p := range players {
		out[id] = protocol.PlayerState{X: p.X, Y: p.Y, Score: p.Score}
	}
	return out
}

// stationStates converts station views to their public wire form.
func stationStates(views []station.View) []protocol.StationState {
	out := make([]protocol.StationState, 0, len(views))
	for _, v := range views {
		out = append(out, protocol.StationState{ID: v.ID, X: v.X, Y: v.Y, Answered: v.Answered})
	}
	return out
}
