package rules

type Resolver struct {
	config Configuration
	probe  KeyProbe
}

// NewResolver creates a resolver over config. probe may be nil when the
// platform cannot report key state, virtual key rules are skipped then.
func NewResolver(config Configuration, probe KeyProbe) *Resolver {
	return &Resolver{
		config: config,
		probe:  probe,
	}
}

// Resolve computes the layer to switch to for ev. defaultLayer is only
// consulted for FocusChange events, an empty defaultLayer means there is none.
// The second return value is false when no layer change should be sent.
func (r *Resolver) Resolve(ev Event, defaultLayer string) (string, bool) {
	var (
		layer string
		found bool
	)

	set := func(l string) {
		layer, found = l, true
	}

	if ev.Kind == FocusChange && defaultLayer != "" {
		set(defaultLayer)
	}

	for _, rule := range r.config {
		if !rule.MatchesExe(ev.Exe) {
			continue
		}

		if ev.Kind == FocusChange {
			set(rule.TargetLayer)
		}

		if ev.Title != nil && len(rule.TitleOverrides) > 0 {
			for _, override := range rule.TitleOverrides {
				if override.Strategy.Match(*ev.Title, override.Title) {
					set(override.TargetLayer)
				}
			}

			// a rule with title overrides always falls back to its own layer
			if !found {
				set(rule.TargetLayer)
			}
		}

		if ev.Kind != FocusChange || r.probe == nil {
			continue
		}

		for _, override := range rule.VirtualKeyOverrides {
			if r.pressed(override.VirtualKeyCode) {
				set(override.TargetLayer)
			}
		}

		for _, code := range rule.VirtualKeyIgnores {
			if r.pressed(code) {
				layer, found = "", false
			}
		}
	}

	return layer, found
}

func (r *Resolver) pressed(code int32) bool {
	return r.probe.KeyState(code) < 0
}
