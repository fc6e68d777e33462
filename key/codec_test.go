package key

import (
	"testing"
)

func TestNewKey_SortsLabelsBucketFirst(t *testing.T) {
	k := NewKey(TypeHistogramBucket, "latency_seconds", "_bucket", []Label{
		{Name: "route", Value: "/orders"},
		{Name: "bucket", Value: "0.5"},
		{Name: "method", Value: "GET"},
	})

	if len(k.Labels) != 3 || k.Labels[0].Name != "bucket" {
		t.Fatalf("expected bucket label first, got %+v", k.Labels)
	}
	if k.Labels[1].Name != "method" || k.Labels[2].Name != "route" {
		t.Fatalf("expected remaining labels sorted by name, got %+v", k.Labels[1:])
	}
}

func TestCodec_EncodeDecodeRoundTrip(t *testing.T) {
	c := NewCodec()
	k := NewKey(TypeCounter, "http_requests_total", "", []Label{
		{Name: "method", Value: "GET"},
		{Name: "status", Value: "200"},
	})

	b, err := c.Encode(k)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !got.Equal(k) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, k)
	}
}

func TestCodec_EncodeIsDeterministic(t *testing.T) {
	c := NewCodec()
	k1 := NewKey(TypeGauge, "queue_depth", "", []Label{{Name: "queue", Value: "orders"}})
	k2 := NewKey(TypeGauge, "queue_depth", "", []Label{{Name: "queue", Value: "orders"}})

	b1, err := c.Encode(k1)
	if err != nil {
		t.Fatalf("Encode k1: %v", err)
	}
	b2, err := c.Encode(k2)
	if err != nil {
		t.Fatalf("Encode k2: %v", err)
	}
	if string(b1) != string(b2) {
		t.Fatalf("expected identical encodings for structurally equal keys, got %q and %q", b1, b2)
	}
}

func TestCodec_DistinctKeysProduceDistinctEncodings(t *testing.T) {
	c := NewCodec()
	a := NewKey(TypeCounter, "a", "", nil)
	b := NewKey(TypeCounter, "b", "", nil)

	ab, err := c.Encode(a)
	if err != nil {
		t.Fatalf("Encode a: %v", err)
	}
	bb, err := c.Encode(b)
	if err != nil {
		t.Fatalf("Encode b: %v", err)
	}
	if string(ab) == string(bb) {
		t.Fatalf("expected distinct encodings, both were %q", ab)
	}
}

func TestCodec_CacheHitReturnsEqualBytes(t *testing.T) {
	c := NewCodec()
	k := NewKey(TypeCounter, "retries_total", "", []Label{{Name: "op", Value: "flush"}})

	first, err := c.Encode(k)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	second, err := c.Encode(NewKey(TypeCounter, "retries_total", "", []Label{{Name: "op", Value: "flush"}}))
	if err != nil {
		t.Fatalf("Encode (second): %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("expected cache hit to return identical bytes, got %q and %q", first, second)
	}
}

func TestDecode_TruncatedInputIsEncodingError(t *testing.T) {
	_, err := Decode([]byte{byte(TypeCounter), 0x05, 0x00, 0x00}) // only 3 of the name's 4 length-prefix bytes present
	if err == nil {
		t.Fatal("expected error for truncated input")
	}
	if _, ok := err.(*EncodingError); !ok {
		t.Fatalf("expected *EncodingError, got %T", err)
	}
}

func TestKey_LabelsWithoutBucket(t *testing.T) {
	k := NewKey(TypeHistogramBucket, "latency_seconds", "_bucket", []Label{
		{Name: "bucket", Value: "1"},
		{Name: "route", Value: "/orders"},
	})
	got := k.LabelsWithoutBucket()
	if len(got) != 1 || got[0].Name != "route" {
		t.Fatalf("expected only route label, got %+v", got)
	}
}

func TestKey_BucketThreshold(t *testing.T) {
	k := NewKey(TypeHistogramBucket, "latency_seconds", "_bucket", []Label{
		{Name: "bucket", Value: "+Inf"},
	})
	v, ok := k.BucketThreshold()
	if !ok {
		t.Fatal("expected bucket threshold present")
	}
	if v <= 0 {
		t.Fatalf("expected +Inf to parse as a large positive value, got %v", v)
	}
}

func TestLabelsFromPairs(t *testing.T) {
	labels := LabelsFromPairs("method", "GET", "status", "200")
	if len(labels) != 2 || labels[0].Value != "GET" || labels[1].Value != "200" {
		t.Fatalf("unexpected labels: %+v", labels)
	}
}

func TestLabelsFromPairs_OddArgsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for odd number of arguments")
		}
	}()
	LabelsFromPairs("method", "GET", "status")
}
