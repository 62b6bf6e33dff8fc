package events

import (
	"encoding/hex"

	"lockstream/core/types"
	"lockstream/crypto"
)

const (
	TypeSnapshotRootAsserted  = "snapshot.root_asserted"
	TypeSnapshotRootResolved  = "snapshot.root_resolved"
	TypeSnapshotRootDiscarded = "snapshot.root_discarded"
)

type SnapshotRootAsserted struct {
	AssertionID  [32]byte
	Campaign     [32]byte
	Root         [32]byte
	Asserter     [20]byte
	ResolveAfter uint64
}

func (SnapshotRootAsserted) EventType() string { return TypeSnapshotRootAsserted }

func (e SnapshotRootAsserted) Event() *types.Event {
	return &types.Event{
		Type: TypeSnapshotRootAsserted,
		Attributes: map[string]string{
			"assertion":    hex.EncodeToString(e.AssertionID[:]),
			"campaign":     hex.EncodeToString(e.Campaign[:]),
			"root":         hex.EncodeToString(e.Root[:]),
			"asserter":     crypto.NewAddress(crypto.LockerPrefix, e.Asserter[:]).String(),
			"resolveAfter": uintToString(e.ResolveAfter),
		},
	}
}

type SnapshotRootResolved struct {
	AssertionID [32]byte
	Campaign    [32]byte
	Root        [32]byte
}

func (SnapshotRootResolved) EventType() string { return TypeSnapshotRootResolved }

func (e SnapshotRootResolved) Event() *types.Event {
	return &types.Event{
		Type: TypeSnapshotRootResolved,
		Attributes: map[string]string{
			"assertion": hex.EncodeToString(e.AssertionID[:]),
			"campaign":  hex.EncodeToString(e.Campaign[:]),
			"root":      hex.EncodeToString(e.Root[:]),
		},
	}
}

type SnapshotRootDiscarded struct {
	AssertionID [32]byte
	Campaign    [32]byte
	Disputed    bool
}

func (SnapshotRootDiscarded) EventType() string { return TypeSnapshotRootDiscarded }

func (e SnapshotRootDiscarded) Event() *types.Event {
	disputed := "false"
	if e.Disputed {
		disputed = "true"
	}
	return &types.Event{
		Type: TypeSnapshotRootDiscarded,
		Attributes: map[string]string{
			"assertion": hex.EncodeToString(e.AssertionID[:]),
			"campaign":  hex.EncodeToString(e.Campaign[:]),
			"disputed":  disputed,
		},
	}
}
