package push

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bsi-games/bsi/internal/model"
)

var (
	ErrUnknownEvent = errors.New("unknown event type")
	ErrMalformed    = errors.New("malformed message")
)

type envelope struct {
	Type model.EventType `json:"type"`
}

// DecodeEvent parses an inbound push message
func DecodeEvent(data []byte) (model.Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var ev model.Event
	var err error
	switch env.Type {
	case model.EventAuthorization:
		var e model.AuthorizationResult
		err = json.Unmarshal(data, &e)
		ev = e
	case model.EventPlayerOnline:
		var e model.PlayerOnline
		err = json.Unmarshal(data, &e)
		ev = e
	case model.EventPlayerOffline:
		var e model.PlayerOffline
		err = json.Unmarshal(data, &e)
		ev = e
	case model.EventGameCreated:
		var e model.GameCreated
		err = json.Unmarshal(data, &e)
		ev = e
	case model.EventGameUpdated:
		ev = model.GameUpdated{}
	case model.EventGameActive:
		var e model.GameActive
		err = json.Unmarshal(data, &e)
		ev = e
	case model.EventGameInactive:
		var e model.GameInactive
		err = json.Unmarshal(data, &e)
		ev = e
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return ev, nil
}
