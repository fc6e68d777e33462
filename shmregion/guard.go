package shmregion

import "github.com/google/uuid"

// Mode selects which lock a Guard acquires.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
)

// Guard is an explicit scoped lock acquisition: Acquire takes the lock,
// Release gives it back. Callers defer Release immediately after a
// successful Acquire so the lock is released on every exit path,
// including error paths — the re-architecture guidance's replacement
// for an implicit context-manager lock.
//
// Guard carries a reentrancy token (a fresh google/uuid per
// acquisition), mirroring pyprometheus's UWSGIStorage.lock, which
// stamps a uuid4 hex string into the storage purely as a truthy marker
// that "this logical operation already holds the lock". Token is
// exposed so a caller that structures composite operations around a
// single Guard (rather than nested Acquire calls) can assert it never
// silently re-entered.
type Guard struct {
	region Region
	mode   Mode
	token  string
}

// Acquire takes region's read or write lock, depending on mode.
func Acquire(region Region, mode Mode) (*Guard, error) {
	var err error
	switch mode {
	case ModeRead:
		err = region.RLock()
	case ModeWrite:
		err = region.WLock()
	}
	if err != nil {
		return nil, err
	}
	return &Guard{region: region, mode: mode, token: uuid.New().String()}, nil
}

// Token returns the reentrancy token stamped at acquisition time.
func (g *Guard) Token() string { return g.token }

// Mode returns the lock mode this guard holds.
func (g *Guard) Mode() Mode { return g.mode }

// Release gives back the lock. Safe to call via defer.
func (g *Guard) Release() error {
	return g.region.Unlock()
}
