package remote

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Actions understood on the command topic.
const (
	ActionNext  = "next"
	ActionPrev  = "prev"
	ActionFirst = "first"
	ActionLast  = "last"
	ActionGoTo  = "goto"
)

// Command is a navigation request from a remote. Slide is 1-based and only
// used by goto.
type Command struct {
	Action string `json:"action"`
	Slide  int    `json:"slide,omitempty"`
}

// Navigator is the part of the presenter a command drives.
type Navigator interface {
	Next()
	Prev()
	First()
	Last()
	GoTo(index int) error
}

// ParseCommand decodes a command payload.
func ParseCommand(payload []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	cmd.Action = strings.ToLower(strings.TrimSpace(cmd.Action))

	switch cmd.Action {
	case ActionNext, ActionPrev, ActionFirst, ActionLast:
	case ActionGoTo:
		if cmd.Slide < 1 {
			return Command{}, fmt.Errorf("%w: goto needs a slide number, got %d", ErrInvalidCommand, cmd.Slide)
		}
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
	}
	return cmd, nil
}

// Apply performs the command on nav.
func (c Command) Apply(nav Navigator) error {
	switch c.Action {
	case ActionNext:
		nav.Next()
	case ActionPrev:
		nav.Prev()
	case ActionFirst:
		nav.First()
	case ActionLast:
		nav.Last()
	case ActionGoTo:
		return nav.GoTo(c.Slide - 1)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, c.Action)
	}
	return nil
}
