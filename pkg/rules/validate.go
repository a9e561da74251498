package rules

import (
	"fmt"
	"github.com/hashicorp/go-multierror"
)

func (c Configuration) Validate() error {
	var result *multierror.Error

	for i, rule := range c {
		if rule.Exe == "" {
			result = multierror.Append(result, fmt.Errorf("rule %d: exe is empty", i))
		}
		if rule.TargetLayer == "" {
			result = multierror.Append(result, fmt.Errorf("rule %d (%s): target_layer is empty", i, rule.Exe))
		}

		for j, override := range rule.TitleOverrides {
			if override.Title == "" {
				result = multierror.Append(result, fmt.Errorf("rule %d (%s): title override %d: title is empty", i, rule.Exe, j))
			}
			if override.TargetLayer == "" {
				result = multierror.Append(result, fmt.Errorf("rule %d (%s): title override %d: target_layer is empty", i, rule.Exe, j))
			}
		}

		for j, override := range rule.VirtualKeyOverrides {
			if override.TargetLayer == "" {
				result = multierror.Append(result, fmt.Errorf("rule %d (%s): virtual key override %d: target_layer is empty", i, rule.Exe, j))
			}
		}
	}

	return result.ErrorOrNil()
}
