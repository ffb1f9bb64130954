package kafka

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// UserEvent is the payload published on the users topic.
type UserEvent struct {
	Username string `json:"username"`
}

// UserCreator registers a user if it does not exist yet.
type UserCreator interface {
	CreateFromEvent(ctx context.Context, username string) (bool, error)
}

// ErrMalformedEvent is returned for payloads that carry no username.
var ErrMalformedEvent = errors.New("malformed user event")

// DecodeUserEvent accepts the JSON object form and, for older producers,
// a bare JSON string.
func DecodeUserEvent(value []byte) (UserEvent, error) {
	value = bytes.TrimSpace(value)
	var ev UserEvent
	if len(value) > 0 && value[0] == '"' {
		if err := json.Unmarshal(value, &ev.Username); err != nil {
			return ev, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
	} else if err := json.Unmarshal(value, &ev); err != nil {
		return ev, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.Username == "" {
		return ev, ErrMalformedEvent
	}
	return ev, nil
}

// UsersHandler returns a Handler that creates users announced on the topic.
func UsersHandler(creator UserCreator, logger *slog.Logger) Handler {
	return func(ctx context.Context, topic string, _, value []byte) error {
		ev, err := DecodeUserEvent(value)
		if err != nil {
			return err
		}
		created, err := creator.CreateFromEvent(ctx, ev.Username)
		if err != nil {
			return fmt.Errorf("create user %q: %w", ev.Username, err)
		}
		if created {
			logger.InfoContext(ctx, "User created from event",
				slog.String("topic", topic),
				slog.String("username", ev.Username),
			)
		} else {
			logger.DebugContext(ctx, "User already exists", slog.String("username", ev.Username))
		}
		return nil
	}
}
