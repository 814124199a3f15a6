// Package protocol defines the wire messages exchanged between the quiz game
// server and its clients, a flat JSON codec keyed on the "type" field, and
// the length-prefixed framing used on the TCP stream.
package protocol

// Message type discriminators, server to client.
const (
	TypeInit         = "init"
	TypeLobbyState   = "lobby_state"
	TypeCountdown    = "countdown"
	TypeGameStart    = "game_start"
	TypeState        = "state"
	TypeQuestion     = "question"
	TypeAnswerResult = "answer_result"
	TypeInfo         = "info"
	TypeGameOver     = "game_over"
)

// Message type discriminators, client to server.
const (
	TypePlayerReady = "player_ready"
	TypeMove        = "move"
	TypeInteract    = "interact"
	TypeAnswer      = "answer"
	TypeCancelQuiz  = "cancel_quiz"
)

// Movement directions accepted in Move messages.
const (
	DirUp    = "up"
	DirDown  = "down"
	DirLeft  = "left"
	DirRight = "right"
)

// Message is implemented by every wire message.
type Message interface {
	// MsgType returns the value of the "type" discriminator field.
	MsgType() string
}

// PlayerState is the public view of one player inside a snapshot.
type PlayerState struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Score int `json:"score"`
}

// StationState is the public view of one station inside a snapshot.
// Claimant identity, cooldowns, and question content are never included.
type StationState struct {
	ID       int  `json:"id"`
	X        int  `json:"x"`
	Y        int  `json:"y"`
	Answered bool `json:"answered"`
}

// FinalScore is one player's entry in the game-over scoreboard.
type FinalScore struct {
	Score int `json:"score"`
}

// Init is the handshake snapshot sent once to a newly accepted player.
type Init struct {
	Type     string              `json:"type"`
	PlayerID int                 `json:"player_id"`
	Players  map[int]PlayerState `json:"players"`
	Stations []StationState      `json:"stations"`
	TimeLeft int                 `json:"time_left"`
}

func (Init) MsgType() string { return TypeInit }

// LobbyState reports each registered player's ready flag during the lobby.
type LobbyState struct {
	Type    string       `json:"type"`
	Players map[int]bool `json:"players"`
}

func (LobbyState) MsgType() string { return TypeLobbyState }

// Countdown carries the remaining whole seconds before the game starts.
type Countdown struct {
	Type string `json:"type"`
	Time int    `json:"time"`
}

func (Countdown) MsgType() string { return TypeCountdown }

// GameStart marks the transition into the active phase.
type GameStart struct {
	Type string `json:"type"`
}

func (GameStart) MsgType() string { return TypeGameStart }

// State is the public snapshot broadcast to all clients.
type State struct {
	Type     string              `json:"type"`
	Players  map[int]PlayerState `json:"players"`
	Stations []StationState      `json:"stations"`
	TimeLeft int                 `json:"time_left"`
	GameOver bool                `json:"game_over,omitempty"`
}

func (State) MsgType() string { return TypeState }

// Question delivers a claimed station's question to the claimant only.
// The correct option index is never sent.
type Question struct {
	Type      string   `json:"type"`
	StationID int      `json:"station_id"`
	Question  string   `json:"question"`
	Options   []string `json:"options"`
}

func (Question) MsgType() string { return TypeQuestion }

// AnswerResult reports the outcome of an answer submission to the claimant.
type AnswerResult struct {
	Type    string `json:"type"`
	Correct bool   `json:"correct"`
}

func (AnswerResult) MsgType() string { return TypeAnswerResult }

// Info is a free-form informational message for a single client.
type Info struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (Info) MsgType() string { return TypeInfo }

// GameOver carries the final scoreboard, broadcast exactly once.
type GameOver struct {
	Type    string             `json:"type"`
	Players map[int]FinalScore `json:"players"`
}

func (GameOver) MsgType() string { return TypeGameOver }

// PlayerReady toggles the sender's lobby ready flag.
type PlayerReady struct {
	Type string `json:"type"`
}

func (PlayerReady) MsgType() string { return TypePlayerReady }

// Move requests a one-cell move in the given direction.
type Move struct {
	Type      string `json:"type"`
	Direction string `json:"direction"`
}

func (Move) MsgType() string { return TypeMove }

// Interact attempts to claim the station at the sender's current cell.
type Interact struct {
	Type string `json:"type"`
}

func (Interact) MsgType() string { return TypeInteract }

// Answer submits an option index for a claimed station.
type Answer struct {
	Type      string `json:"type"`
	StationID int    `json:"station_id"`
	Answer    int    `json:"answer"`
}

func (Answer) MsgType() string { return TypeAnswer }

// CancelQuiz voluntarily releases a claim without answering.
type CancelQuiz struct {
	Type      string `json:"type"`
	StationID int    `json:"station_id"`
}

func (CancelQuiz) MsgType() string { return TypeCancelQuiz }

// NewInit builds a handshake message for the given player.
func NewInit(playerID int, players map[int]PlayerState, stations []StationState, timeLeft int) Init {
	return Init{Type: TypeInit, PlayerID: playerID, Players: players, Stations: stations, TimeLeft: timeLeft}
}

// NewLobbyState builds a lobby roster message.
func NewLobbyState(players map[int]bool) LobbyState {
	return LobbyState{Type: TypeLobbyState, Players: players}
}

// NewCountdown builds a countdown tick message.
func NewCountdown(seconds int) Countdown {
	return Countdown{Type: TypeCountdown, Time: seconds}
}

// NewGameStart builds the active-phase transition message.
func NewGameStart() GameStart {
	return GameStart{Type: TypeGameStart}
}

// NewState builds a public snapshot message.
func NewState(players map[int]PlayerState, stations []StationState, timeLeft int, gameOver bool) State {
	return State{Type: TypeState, Players: players, Stations: stations, TimeLeft: timeLeft, GameOver: gameOver}
}

// NewQuestion builds a private question delivery for a claimant.
func NewQuestion(stationID int, question string, options []string) Question {
	return Question{Type: TypeQuestion, StationID: stationID, Question: question, Options: options}
}

// NewAnswerResult builds an answer outcome message.
func NewAnswerResult(correct bool) AnswerResult {
	return AnswerResult{Type: TypeAnswerResult, Correct: correct}
}

// NewInfo builds an informational message.
func NewInfo(message string) Info {
	return Info{Type: TypeInfo, Message: message}
}

// NewGameOver builds the final scoreboard message.
func NewGameOver(players map[int]FinalScore) GameOver {
	return GameOver{Type: TypeGameOver, Players: players}
}

// NewPlayerReady builds a ready toggle message.
func NewPlayerReady() PlayerReady {
	return PlayerReady{Type: TypePlayerReady}
}

// NewMove builds a movement request.
func NewMove(direction string) Move {
	return Move{Type: TypeMove, Direction: direction}
}

// NewInteract builds a claim attempt.
func NewInteract() Interact {
	return Interact{Type: TypeInteract}
}

// NewAnswer builds an answer submission.
func NewAnswer(stationID, option int) Answer {
	return Answer{Type: TypeAnswer, StationID: stationID, Answer: option}
}

// NewCancelQuiz builds a voluntary claim release.
func NewCancelQuiz(stationID int) CancelQuiz {
	return CancelQuiz{Type: TypeCancelQuiz, StationID: stationID}
}
