package changefeed

import (
	"encoding/json"
	"fmt"

	"github.com/jask/entitypages/internal/page"
)

// Encode renders ev as the JSON message body.
func Encode(ev page.ChangeEvent) ([]byte, error) {
	if err := check(ev); err != nil {
		return nil, err
	}
	return json.Marshal(ev)
}

// Decode parses a message body.
func Decode(payload []byte) (page.ChangeEvent, error) {
	var ev page.ChangeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return page.ChangeEvent{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if err := check(ev); err != nil {
		return page.ChangeEvent{}, err
	}
	return ev, nil
}

func check(ev page.ChangeEvent) error {
	switch {
	case ev.Kind == "":
		return fmt.Errorf("%w: kind is empty", ErrInvalidEvent)
	case ev.ID == "":
		return fmt.Errorf("%w: id is empty", ErrInvalidEvent)
	case ev.Action != page.ActionSaved && ev.Action != page.ActionDeleted:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidEvent, ev.Action)
	}
	return nil
}
