package sky

import (
	"errors"
	"fmt"
	"time"
)

// Ephemeris is the source of apparent body positions. Implementations are
// loaded once at startup and must be safe for concurrent use.
type Ephemeris interface {
	Name() string
	Apparent(id BodyID, obs Observer, at time.Time, refraction bool) (Position, error)
}

// Resolver builds Snapshots from an injected Ephemeris.
type Resolver struct {
	ephem  Ephemeris
	bodies []BodyID
}

// NewResolver creates a Resolver for the configured body set.
func NewResolver(ephem Ephemeris) *Resolver {
	return &Resolver{
		ephem:  ephem,
		bodies: Bodies(),
	}
}

// Resolve computes the position of every configured body for obs at the
// given instant. The observer is validated before the ephemeris is consulted.
func (r *Resolver) Resolve(obs Observer, at time.Time, refraction bool) (Snapshot, error) {
	if err := obs.Validate(); err != nil {
		return Snapshot{}, err
	}
	if r.ephem == nil {
		return Snapshot{}, fmt.Errorf("%w: ephemeris not loaded", ErrInternal)
	}

	at = at.UTC()
	snap := Snapshot{
		Observer:   obs,
		Time:       at,
		Refraction: refraction,
		Engine:     r.ephem.Name(),
		Bodies:     make([]BodyPosition, 0, len(r.bodies)),
	}

	for _, id := range r.bodies {
		pos, err := r.ephem.Apparent(id, obs, at, refraction)
		if err != nil {
			if errors.Is(err, ErrInternal) {
				return Snapshot{}, err
			}
			return Snapshot{}, fmt.Errorf("%w: resolve %s: %v", ErrInternal, id, err)
		}
		snap.Bodies = append(snap.Bodies, BodyPosition{
			ID:       id,
			Name:     id.Name(),
			Position: pos,
		})
	}

	return snap, nil
}
