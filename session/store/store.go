// Package store persists session credentials across two lifetime tiers:
// a persistent store surviving restarts and an ephemeral store scoped to
// the process. Exactly one tier holds live tokens at any time.
package store

import (
	"errors"
	"time"
)

var NoSessionErr = errors.New("no stored session")

// Tier tags where a session record lives. The tag is stored inside the
// record itself so restoring never has to infer the tier from which store
// happened to be non-empty.
type Tier string

const (
	TierPersistent Tier = "persistent"
	TierEphemeral  Tier = "ephemeral"
)

// Record is the token triple written at login and rotated on refresh.
type Record struct {
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"tokenExpires"`
	Tier         Tier      `json:"tier"`
}

func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// Store is a single storage tier.
type Store interface {
	Load() (*Record, error)
	Save(record *Record) error
	Clear() error
}

// Tiers bundles both storage tiers and enforces the one-live-tier
// invariant on writes.
type Tiers struct {
	Persistent Store
	Ephemeral  Store
}

// Write clears both tiers, then saves the record to the tier named by its
// tag. Clearing first means a crash mid-write leaves the client logged
// out rather than holding two token sets.
func (t Tiers) Write(record *Record) error {
	if err := t.ClearAll(); err != nil {
		return err
	}
	switch record.Tier {
	case TierPersistent:
		return t.Persistent.Save(record)
	case TierEphemeral:
		return t.Ephemeral.Save(record)
	}
	return errors.New("unknown storage tier: " + string(record.Tier))
}

// Read returns whichever tier holds a session, preferring persistent.
func (t Tiers) Read() (*Record, error) {
	if record, err := t.Persistent.Load(); err == nil {
		return record, nil
	} else if !errors.Is(err, NoSessionErr) {
		return nil, err
	}
	return t.Ephemeral.Load()
}

func (t Tiers) ClearAll() error {
	if err := t.Persistent.Clear(); err != nil {
		return err
	}
	return t.Ephemeral.Clear()
}
