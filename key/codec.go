package key

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// EncodingError is returned when a Key cannot be represented in the
// codec's wire format (e.g. a field too long to length-prefix). It is
// fatal for the operation that produced it and is never retried.
type EncodingError struct {
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("key: encoding error: %s", e.Reason)
}

// HashBytes returns a fast 64-bit digest of an already-encoded key,
// used as the first-level map key of sharedtable's in-process index —
// the same pattern client_golang's own CachedTGatherer.Key.hash uses
// for a process-local metric cache.
func HashBytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// Codec serializes Keys to a deterministic, injective byte string and
// back, memoizing encodings so hot instrumentation call sites (which
// typically reconstruct an equal Key on every call) don't re-marshal on
// every observation.
type Codec struct {
	mu    sync.RWMutex
	cache map[uint64]cacheEntry
}

type cacheEntry struct {
	key   Key
	bytes []byte
}

// NewCodec returns a ready-to-use Codec with an empty memoization cache.
func NewCodec() *Codec {
	return &Codec{cache: make(map[uint64]cacheEntry)}
}

// Encode returns the canonical encoding of k, reusing a memoized result
// when k was encoded before. The memoization key is a content hash, not
// a pointer, so cache hits work across independently-constructed Key
// values with equal contents.
func (c *Codec) Encode(k Key) ([]byte, error) {
	h := hashKey(k)

	c.mu.RLock()
	if e, ok := c.cache[h]; ok && e.key.Equal(k) {
		c.mu.RUnlock()
		return e.bytes, nil
	}
	c.mu.RUnlock()

	b, err := marshalKey(k)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[h] = cacheEntry{key: k, bytes: b}
	c.mu.Unlock()
	return b, nil
}

// Decode reconstructs a Key from bytes produced by Encode. Used only
// during iteration and debugging, never on the hot increment path.
func (c *Codec) Decode(b []byte) (Key, error) {
	return Decode(b)
}

func hashKey(k Key) uint64 {
	h := xxhash.New()
	h.Write([]byte{byte(k.Type)})
	h.WriteString(k.Name)
	h.Write([]byte{0})
	h.WriteString(k.Postfix)
	h.Write([]byte{0})
	for _, l := range k.Labels {
		h.WriteString(l.Name)
		h.Write([]byte{0})
		h.WriteString(l.Value)
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// marshalKey writes type, name, postfix, and sorted labels, each string
// length-prefixed with a uint32, so decoding never needs a delimiter or
// an escape scheme. This replaces pyprometheus's `marshal.dumps(key)`
// (Python-pickle-specific) with an explicit, versionless layout, per the
// re-architecture guidance for dynamic key objects.
func marshalKey(k Key) ([]byte, error) {
	if len(k.Labels) > math.MaxUint16 {
		return nil, &EncodingError{Reason: "too many labels"}
	}

	var buf bytes.Buffer
	buf.WriteByte(byte(k.Type))
	if err := writeLPString(&buf, k.Name); err != nil {
		return nil, err
	}
	if err := writeLPString(&buf, k.Postfix); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint16(len(k.Labels))); err != nil {
		return nil, &EncodingError{Reason: err.Error()}
	}
	for _, l := range k.Labels {
		if err := writeLPString(&buf, l.Name); err != nil {
			return nil, err
		}
		if err := writeLPString(&buf, l.Value); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Decode is the package-level, unmemoized counterpart to Codec.Decode.
func Decode(b []byte) (Key, error) {
	r := bytes.NewReader(b)

	typ, err := r.ReadByte()
	if err != nil {
		return Key{}, &EncodingError{Reason: "truncated type tag"}
	}

	name, err := readLPString(r)
	if err != nil {
		return Key{}, err
	}
	postfix, err := readLPString(r)
	if err != nil {
		return Key{}, err
	}

	var numLabels uint16
	if err := binary.Read(r, binary.LittleEndian, &numLabels); err != nil {
		return Key{}, &EncodingError{Reason: "truncated label count"}
	}

	labels := make([]Label, 0, numLabels)
	for i := 0; i < int(numLabels); i++ {
		n, err := readLPString(r)
		if err != nil {
			return Key{}, err
		}
		v, err := readLPString(r)
		if err != nil {
			return Key{}, err
		}
		labels = append(labels, Label{Name: n, Value: v})
	}

	return Key{Type: Type(typ), Name: name, Postfix: postfix, Labels: labels}, nil
}

func writeLPString(buf *bytes.Buffer, s string) error {
	if len(s) > math.MaxUint32 {
		return &EncodingError{Reason: "string field exceeds maximum length"}
	}
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(s))); err != nil {
		return &EncodingError{Reason: err.Error()}
	}
	buf.WriteString(s)
	return nil
}

func readLPString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", &EncodingError{Reason: "truncated length prefix"}
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", &EncodingError{Reason: "truncated string body"}
	}
	return string(buf), nil
}
