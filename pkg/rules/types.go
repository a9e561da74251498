package rules

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"strings"
)

type Strategy int

const (
	Equals Strategy = iota
	StartsWith
	EndsWith
	Contains
)

var strategyNames = map[Strategy]string{
	Equals:     "equals",
	StartsWith: "starts_with",
	EndsWith:   "ends_with",
	Contains:   "contains",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// Match compares value against pattern byte for byte.
func (s Strategy) Match(value, pattern string) bool {
	switch s {
	case StartsWith:
		return strings.HasPrefix(value, pattern)
	case EndsWith:
		return strings.HasSuffix(value, pattern)
	case Contains:
		return strings.Contains(value, pattern)
	default:
		return value == pattern
	}
}

func ParseStrategy(raw string) (Strategy, error) {
	normalized := strings.ToLower(strings.ReplaceAll(raw, "_", ""))
	for strategy, name := range strategyNames {
		if strings.ReplaceAll(name, "_", "") == normalized {
			return strategy, nil
		}
	}
	return Equals, fmt.Errorf("unknown strategy %q", raw)
}

func (s *Strategy) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("decode strategy: %w", err)
	}

	parsed, err := ParseStrategy(raw)
	if err != nil {
		return err
	}

	*s = parsed
	return nil
}

func (s Strategy) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

type TitleOverride struct {
	Title       string   `yaml:"title"`
	Strategy    Strategy `yaml:"strategy"`
	TargetLayer string   `yaml:"target_layer"`
}

type VirtualKeyOverride struct {
	VirtualKeyCode int32  `yaml:"virtual_key_code"`
	TargetLayer    string `yaml:"target_layer"`
}

func (o *VirtualKeyOverride) UnmarshalYAML(value *yaml.Node) error {
	// older configuration files spell the layer key "targer_layer"
	var raw struct {
		VirtualKeyCode int32  `yaml:"virtual_key_code"`
		TargetLayer    string `yaml:"target_layer"`
		TargerLayer    string `yaml:"targer_layer"`
	}
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("decode virtual key override: %w", err)
	}

	o.VirtualKeyCode = raw.VirtualKeyCode
	o.TargetLayer = raw.TargetLayer
	if o.TargetLayer == "" {
		o.TargetLayer = raw.TargerLayer
	}

	return nil
}

type Rule struct {
	Exe                 string               `yaml:"exe"`
	Strategy            *Strategy            `yaml:"strategy,omitempty"`
	TargetLayer         string               `yaml:"target_layer"`
	TitleOverrides      []TitleOverride      `yaml:"title_overrides,omitempty"`
	VirtualKeyOverrides []VirtualKeyOverride `yaml:"virtual_key_overrides,omitempty"`
	VirtualKeyIgnores   []int32              `yaml:"virtual_key_ignores,omitempty"`
}

// ExeStrategy returns the strategy used to match the process name, Equals when unset.
func (r Rule) ExeStrategy() Strategy {
	if r.Strategy == nil {
		return Equals
	}
	return *r.Strategy
}

func (r Rule) MatchesExe(exe string) bool {
	return r.ExeStrategy().Match(exe, r.Exe)
}

// Configuration is evaluated in order, later rules override earlier ones.
type Configuration []Rule

type EventKind int

const (
	Show EventKind = iota
	FocusChange
)

func (k EventKind) String() string {
	switch k {
	case Show:
		return "Show"
	case FocusChange:
		return "FocusChange"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

func ParseEventKind(raw string) (EventKind, bool) {
	switch raw {
	case "Show":
		return Show, true
	case "FocusChange":
		return FocusChange, true
	}
	return 0, false
}

type Event struct {
	Kind  EventKind
	Exe   string
	Title *string
}

// KeyProbe reports the state of a virtual key. A negative value means the key is down.
type KeyProbe interface {
	KeyState(code int32) int16
}

type KeyProbeFunc func(code int32) int16

func (f KeyProbeFunc) KeyState(code int32) int16 {
	return f(code)
}
