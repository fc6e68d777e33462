package sharedtable

import (
	"encoding/binary"
	"math"

	"github.com/coldglass/shmprom/key"
)

// reconcileWrite is the actuality protocol (spec.md §4.2) run under the
// write lock: if the region has never been touched (used == 0), this
// process is the first attacher and initializes the header. Otherwise
// it defers to reconcileCommon, which may self-heal a corrupt region
// since it holds the write lock.
func (t *Table) reconcileWrite(view []byte) error {
	used := binary.LittleEndian.Uint32(view[headerUsedOffset : headerUsedOffset+4])
	if used == 0 {
		sign, err := randomSign()
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(view[headerUsedOffset:headerUsedOffset+4], headerSize)
		copy(view[headerSignOffset:headerSignOffset+signSize], sign[:])

		t.idxMu.Lock()
		t.cachedUsed = headerSize
		t.cachedSign = sign
		t.index = make(map[uint64][]indexEntry)
		t.initialized = true
		t.idxMu.Unlock()
		return nil
	}
	return t.reconcileCommon(view, used, true)
}

// reconcileRead is the read-only counterpart: an untouched region is
// simply empty, with no header write performed.
func (t *Table) reconcileRead(view []byte) error {
	used := binary.LittleEndian.Uint32(view[headerUsedOffset : headerUsedOffset+4])
	if used == 0 {
		t.idxMu.Lock()
		t.cachedUsed = 0
		t.initialized = false
		t.index = make(map[uint64][]indexEntry)
		t.idxMu.Unlock()
		return nil
	}
	return t.reconcileCommon(view, used, false)
}

func (t *Table) reconcileCommon(view []byte, used uint32, writable bool) error {
	var sign [signSize]byte
	copy(sign[:], view[headerSignOffset:headerSignOffset+signSize])

	t.idxMu.RLock()
	upToDate := t.initialized && sign == t.cachedSign && used == t.cachedUsed
	t.idxMu.RUnlock()
	if upToDate {
		return nil
	}

	newIndex := make(map[uint64][]indexEntry)
	pos := uint32(headerSize)
	for pos < used {
		if pos+4 > used {
			return t.handleCorrupt(view, writable)
		}
		keyLen := binary.LittleEndian.Uint32(view[pos : pos+4])
		keyStart := pos + 4
		if uint64(keyStart)+uint64(keyLen) > uint64(used) {
			return t.handleCorrupt(view, writable)
		}
		valueStart := keyStart + keyLen
		recordEnd := valueStart + 8
		if recordEnd > used {
			return t.handleCorrupt(view, writable)
		}

		keyBytes := append([]byte(nil), view[keyStart:valueStart]...)
		h := key.HashBytes(keyBytes)
		if findEntry(newIndex[h], keyBytes) != nil {
			// Invariant 3 violated: duplicate key_bytes in the region.
			return t.handleCorrupt(view, writable)
		}
		newIndex[h] = append(newIndex[h], indexEntry{
			keyBytes: keyBytes,
			off: offsets{
				recordStart: int(pos),
				keyStart:    int(keyStart),
				valueStart:  int(valueStart),
				recordEnd:   int(recordEnd),
			},
		})
		pos = recordEnd
	}

	t.idxMu.Lock()
	t.index = newIndex
	t.cachedSign = sign
	t.cachedUsed = used
	t.initialized = true
	t.idxMu.Unlock()
	return nil
}

// handleCorrupt implements spec.md §7's RegionCorrupt policy: a process
// holding the write lock that finds a malformed record clears and
// reinitializes the region; a read-only reconciler aborts and reports
// the error upward to be logged.
func (t *Table) handleCorrupt(view []byte, writable bool) error {
	if !writable {
		return ErrRegionCorrupt
	}
	t.clearLocked(view)
	return t.reconcileWrite(view)
}

// clearLocked resets the region header to used == 0 with a fresh sign
// (invariant 5: any mutation that clears the region bumps sign inside
// the write lock) and drops the local index. Must be called while
// holding the write lock.
func (t *Table) clearLocked(view []byte) {
	sign, err := randomSign()
	if err == nil {
		copy(view[headerSignOffset:headerSignOffset+signSize], sign[:])
	}
	binary.LittleEndian.PutUint32(view[headerUsedOffset:headerUsedOffset+4], 0)

	t.idxMu.Lock()
	t.cachedUsed = 0
	t.initialized = false
	t.index = make(map[uint64][]indexEntry)
	t.idxMu.Unlock()
}

// appendOrMutate implements the append protocol (spec.md §4.2): if kb is
// already present in the index, mutate its value in place (no sign
// change). Otherwise, append a new record with value initial, bumping
// used and sign. mutate receives the key's current value (0 if the key
// is new) and returns its replacement.
func (t *Table) appendOrMutate(view []byte, kb []byte, initial float64, mutate func(old float64) float64) (newValue float64, appended bool, err error) {
	h := key.HashBytes(kb)

	t.idxMu.RLock()
	e := findEntry(t.index[h], kb)
	t.idxMu.RUnlock()

	if e != nil {
		old := readValue(view, e.off)
		v := mutate(old)
		binary.LittleEndian.PutUint64(view[e.off.valueStart:e.off.recordEnd], math.Float64bits(v))
		return v, false, nil
	}

	t.idxMu.RLock()
	used := t.cachedUsed
	t.idxMu.RUnlock()

	recordLen := uint64(4) + uint64(len(kb)) + 8
	newUsed := uint64(used) + recordLen
	if newUsed > uint64(len(view)) {
		return 0, false, ErrRegionExhausted
	}

	recordStart := used
	keyStart := recordStart + 4
	valueStart := keyStart + uint32(len(kb))
	recordEnd := valueStart + 8

	binary.LittleEndian.PutUint32(view[recordStart:keyStart], uint32(len(kb)))
	copy(view[keyStart:valueStart], kb)
	binary.LittleEndian.PutUint64(view[valueStart:recordEnd], math.Float64bits(initial))

	sign, err := randomSign()
	if err != nil {
		return 0, false, err
	}
	binary.LittleEndian.PutUint32(view[headerUsedOffset:headerUsedOffset+4], uint32(newUsed))
	copy(view[headerSignOffset:headerSignOffset+signSize], sign[:])

	kbCopy := append([]byte(nil), kb...)
	t.idxMu.Lock()
	t.cachedUsed = uint32(newUsed)
	t.cachedSign = sign
	t.index[h] = append(t.index[h], indexEntry{
		keyBytes: kbCopy,
		off: offsets{
			recordStart: int(recordStart),
			keyStart:    int(keyStart),
			valueStart:  int(valueStart),
			recordEnd:   int(recordEnd),
		},
	})
	t.idxMu.Unlock()

	return initial, true, nil
}
