package localstore

import (
	"context"
	"errors"
	"strings"
)

const identityScope = "identity"

// ErrEmptyName is returned when a display name is blank.
var ErrEmptyName = errors.New("display name must not be empty")

// Identity remembers the name a participant answered with for each event,
// so returning to an event restores their own responses.
type Identity struct {
	KV KV
}

// DisplayName returns the stored name for the event, or "" if none.
func (i Identity) DisplayName(ctx context.Context, eventID string) (string, error) {
	name, _, err := i.KV.Get(ctx, identityScope, eventID)
	return name, err
}

// SetDisplayName stores the trimmed name and returns it.
func (i Identity) SetDisplayName(ctx context.Context, eventID, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if err := i.KV.Set(ctx, identityScope, eventID, name); err != nil {
		return "", err
	}
	return name, nil
}

// Forget removes the stored name for the event.
func (i Identity) Forget(ctx context.Context, eventID string) error {
	return i.KV.Delete(ctx, identityScope, eventID)
}
