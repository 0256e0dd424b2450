package mutation

import "fmt"

// Kind names a user-triggered change the executor knows how to run.
type Kind string

const (
	KindToggleLike  Kind = "toggle-like"
	KindCreatePost  Kind = "create-post"
	KindCreateReply Kind = "create-reply"
	KindDeletePost  Kind = "delete-post"
	KindDeleteReply Kind = "delete-reply"
)

// Mode says when the local change is applied relative to the remote call.
type Mode string

const (
	// Optimistic applies locally first and reverts if the remote call fails.
	Optimistic Mode = "optimistic"
	// Pessimistic waits for the remote call and applies only on success.
	Pessimistic Mode = "pessimistic"
)

// Policy maps each mutation kind to its mode.
type Policy map[Kind]Mode

// DefaultPolicy makes likes optimistic; deletes are irreversible and creates need a
// server-assigned identity, so they wait for the authoritative result.
func DefaultPolicy() Policy {
	return Policy{
		KindToggleLike:  Optimistic,
		KindCreatePost:  Pessimistic,
		KindCreateReply: Pessimistic,
		KindDeletePost:  Pessimistic,
		KindDeleteReply: Pessimistic,
	}
}

// Mode returns the mode for k. Kinds missing from the table are pessimistic.
func (p Policy) Mode(k Kind) Mode {
	if m, ok := p[k]; ok && m == Optimistic {
		return Optimistic
	}
	return Pessimistic
}

// WithOverrides returns a copy of p with the named kinds set to the given modes.
// Unknown kinds and modes are rejected.
func (p Policy) WithOverrides(overrides map[string]string) (Policy, error) {
	out := make(Policy, len(p))
	for k, m := range p {
		out[k] = m
	}
	for kind, mode := range overrides {
		k := Kind(kind)
		if _, known := DefaultPolicy()[k]; !known {
			return nil, fmt.Errorf("unknown mutation kind %q", kind)
		}
		switch m := Mode(mode); m {
		case Optimistic, Pessimistic:
			out[k] = m
		default:
			return nil, fmt.Errorf("unknown mode %q for %s", mode, kind)
		}
	}
	return out, nil
}
