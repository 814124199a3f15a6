package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownType reports a message whose "type" discriminator is not in the
// catalogue. Receivers drop such messages without closing the connection.
var ErrUnknownType = errors.New("unknown message type")

// envelope is the minimal shape decoded to pick the concrete message type.
type envelope struct {
	Type string `json:"type"`
}

// Encode serializes a message to its JSON wire form.
//
// Precondition: msg must carry a non-empty type discriminator.
// Postcondition: Returns the JSON bytes or a non-nil error.
func Encode(msg Message) ([]byte, error) {
	if msg == nil || msg.MsgType() == "" {
		return nil, errors.New("encoding message with empty type")
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshalling %s message: %w", msg.MsgType(), err)
	}
	return data, nil
}

// Decode parses a JSON frame into its concrete message type.
//
// Postcondition: Returns a concrete Message, ErrUnknownType for a type not in
// the catalogue, or another non-nil error for malformed JSON.
func Decode(data []byte) (Message, error) {
	if len(data) == 0 {
		return nil, errors.New("decoding empty frame")
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding message envelope: %w", err)
	}

	switch env.Type {
	case TypeInit:
		return decodeAs[Init](data, env.Type)
	case TypeLobbyState:
		return decodeAs[LobbyState](data, env.Type)
	case TypeCountdown:
		return decodeAs[Countdown](data, env.Type)
	case TypeGameStart:
		return decodeAs[GameStart](data, env.Type)
	case TypeState:
		return decodeAs[State](data, env.Type)
	case TypeQuestion:
		return decodeAs[Question](data, env.Type)
	case TypeAnswerResult:
		return decodeAs[AnswerResult](data, env.Type)
	case TypeInfo:
		return decodeAs[Info](data, env.Type)
	case TypeGameOver:
		return decodeAs[GameOver](data, env.Type)
	case TypePlayerReady:
		return decodeAs[PlayerReady](data, env.Type)
	case TypeMove:
		return decodeAs[Move](data, env.Type)
	case TypeInteract:
		return decodeAs[Interact](data, env.Type)
	case TypeAnswer:
		return decodeAs[Answer](data, env.Type)
	case TypeCancelQuiz:
		return decodeAs[CancelQuiz](data, env.Type)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func decodeAs[T Message](data []byte, msgType string) (Message, error) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decoding %s message: %w", msgType, err)
	}
	return msg, nil
}
