package flows

import (
	"fmt"
)

// Compose merges every sub-flow registry into one namespace keyed by
// unique node name. The Q&A registry is selected by login state: anonymous
// callers get a stub explaining login is required. A duplicate node name
// is an implementer error and fails the build rather than surfacing at
// runtime.
func Compose(deps Deps, authenticated bool) (Registry, error) {
	if deps.Forms == nil {
		return nil, fmt.Errorf("flows: form context is required")
	}
	if deps.Tickets == nil {
		return nil, fmt.Errorf("flows: ticket client is required")
	}
	if authenticated && deps.Query == nil {
		return nil, fmt.Errorf("flows: query client is required for authenticated flows")
	}

	registries := []Registry{MenuNodes(deps)}
	if authenticated {
		registries = append(registries, QANodes(deps))
	} else {
		registries = append(registries, LoginStubNodes(deps))
	}
	registries = append(registries, TicketNodes(deps), SecurityNodes(deps))

	merged, err := mergeRegistries(registries)
	if err != nil {
		return nil, err
	}

	// Catch-all: a stray reference to `loop` from older state must not
	// dead-end when the Q&A handler is available.
	if authenticated {
		if _, ok := merged[NodeLoop]; !ok {
			merged[NodeLoop] = LoopNode(deps)
		}
	}

	// Fallback recovery node for hosts that route hard failures somewhere.
	if _, ok := merged[NodeError]; !ok {
		merged[NodeError] = ErrorNode()
	}

	return merged, nil
}

// mergeRegistries folds the sub-flow registries into one namespace. Node
// names are globally unique; a collision fails the merge rather than
// letting one registry shadow another.
func mergeRegistries(registries []Registry) (Registry, error) {
	merged := Registry{}
	for _, reg := range registries {
		for name, node := range reg {
			if _, dup := merged[name]; dup {
				return nil, fmt.Errorf("flows: duplicate node name %q", name)
			}
			merged[name] = node
		}
	}
	return merged, nil
}
