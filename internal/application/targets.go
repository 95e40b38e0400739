package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/adshift/adshift/internal/domain"
)

// Target bundles the rules and the submitter of one target platform.
type Target struct {
	Rules     domain.TargetRules
	Submitter domain.TargetSubmitter
}

// TargetSet resolves targets by platform. Rules are validated on construction.
type TargetSet struct {
	targets map[string]Target
}

func NewTargetSet(targets ...Target) (*TargetSet, error) {
	set := &TargetSet{targets: make(map[string]Target, len(targets))}
	var errs []error
	for _, t := range targets {
		if err := t.Rules.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if t.Submitter == nil {
			errs = append(errs, fmt.Errorf("target %q has no submitter", t.Rules.Platform))
			continue
		}
		key := strings.ToLower(t.Rules.Platform)
		if _, dup := set.targets[key]; dup {
			errs = append(errs, fmt.Errorf("target %q defined twice", t.Rules.Platform))
			continue
		}
		set.targets[key] = t
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return set, nil
}

// Get returns the target for platform.
func (s *TargetSet) Get(platform string) (Target, error) {
	t, ok := s.targets[strings.ToLower(strings.TrimSpace(platform))]
	if !ok {
		return Target{}, &domain.UnsupportedPlatformError{Platform: platform, Role: "target"}
	}
	return t, nil
}

// Platforms returns the configured target platforms, sorted.
func (s *TargetSet) Platforms() []string {
	out := make([]string, 0, len(s.targets))
	for p := range s.targets {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
