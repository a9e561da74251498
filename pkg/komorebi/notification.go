package komorebi

import (
	"codeberg.org/miketth/komoboard/pkg/rules"
	"encoding/json"
	"fmt"
)

type Window struct {
	Exe   *string `json:"exe"`
	Title *string `json:"title"`
}

type Event struct {
	Type    *string         `json:"type"`
	Content json.RawMessage `json:"content"`
}

// Notification is the envelope komorebi writes to every subscriber.
type Notification struct {
	Event *Event `json:"event"`
}

func ParseNotification(data []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("unmarshal notification: %w", err)
	}
	return &n, nil
}

// Window returns the window the event refers to, the second element of
// the event content.
func (n *Notification) Window() (Window, bool) {
	if n.Event == nil {
		return Window{}, false
	}

	var content []json.RawMessage
	if err := json.Unmarshal(n.Event.Content, &content); err != nil || len(content) < 2 {
		return Window{}, false
	}

	var w Window
	if err := json.Unmarshal(content[1], &w); err != nil {
		return Window{}, false
	}
	return w, true
}

// RuleEvent extracts the event the resolver cares about. It returns false
// for notifications without a kind or process, and for kinds other than
// Show and FocusChange.
func (n *Notification) RuleEvent() (rules.Event, bool) {
	if n.Event == nil || n.Event.Type == nil {
		return rules.Event{}, false
	}

	window, ok := n.Window()
	if !ok || window.Exe == nil {
		return rules.Event{}, false
	}

	kind, ok := rules.ParseEventKind(*n.Event.Type)
	if !ok {
		return rules.Event{}, false
	}

	return rules.Event{
		Kind:  kind,
		Exe:   *window.Exe,
		Title: window.Title,
	}, true
}
