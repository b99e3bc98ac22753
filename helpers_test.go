package goJWT

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/MrEthical07/goJWT/document"
	"github.com/MrEthical07/goJWT/jwt"
	"github.com/MrEthical07/goJWT/value"
)

var errInjected = errors.New("cannot allocate memory")

// faultyPrimitive wraps the real primitive, counts live handles and fails on demand
// at one stage.
type faultyPrimitive struct {
	inner   Primitive
	failAt  Stage
	fail    bool
	live    atomic.Int64
	created atomic.Int64
}

func newFaultyPrimitive(cfg Config, alloc document.Allocator) *faultyPrimitive {
	return &faultyPrimitive{inner: newJWTPrimitive(cfg, alloc)}
}

func (f *faultyPrimitive) failOn(stage Stage) *faultyPrimitive {
	f.failAt = stage
	f.fail = true
	return f
}

func (f *faultyPrimitive) failing(stage Stage) bool {
	return f.fail && f.failAt == stage
}

func (f *faultyPrimitive) Decode(token string, key []byte) (DecodedToken, error) {
	if f.failing(StageDecode) {
		return nil, errInjected
	}
	tok, err := f.inner.Decode(token, key)
	if err != nil {
		return nil, err
	}
	f.live.Add(1)
	return &trackedToken{DecodedToken: tok, owner: f}, nil
}

func (f *faultyPrimitive) NewSigner() (Signer, error) {
	if f.failing(StageNew) {
		return nil, errInjected
	}
	s, err := f.inner.NewSigner()
	if err != nil {
		return nil, err
	}
	f.live.Add(1)
	f.created.Add(1)
	return &trackedSigner{Signer: s, owner: f}, nil
}

type trackedToken struct {
	DecodedToken
	owner    *faultyPrimitive
	released bool
}

func (t *trackedToken) Release() {
	if !t.released {
		t.released = true
		t.owner.live.Add(-1)
	}
	t.DecodedToken.Release()
}

type trackedSigner struct {
	Signer
	owner    *faultyPrimitive
	released bool
}

func (s *trackedSigner) SetAlgorithm(alg jwt.Algorithm, key []byte) error {
	if s.owner.failing(StageSetAlgorithm) {
		return errInjected
	}
	return s.Signer.SetAlgorithm(alg, key)
}

func (s *trackedSigner) AddHeaders(doc *document.Node) error {
	if s.owner.failing(StageAttachHeader) {
		return errInjected
	}
	return s.Signer.AddHeaders(doc)
}

func (s *trackedSigner) AddClaims(doc *document.Node) error {
	if s.owner.failing(StageAttachClaims) {
		return errInjected
	}
	return s.Signer.AddClaims(doc)
}

// Encode reports a null result on failure, the way a serializer that produced
// nothing would.
func (s *trackedSigner) Encode() (string, error) {
	if s.owner.failing(StageSerialize) {
		return "", nil
	}
	return s.Signer.Encode()
}

func (s *trackedSigner) Release() {
	if !s.released {
		s.released = true
		s.owner.live.Add(-1)
	}
	s.Signer.Release()
}

// testCodec builds a codec over an accounted heap and a faulty primitive sharing it.
func testCodec(t *testing.T, cfg Config, limit int) (*Codec, *faultyPrimitive, *document.Heap) {
	t.Helper()
	heap := document.NewHeap(limit)
	fp := newFaultyPrimitive(cfg, heap)
	c, err := New().WithConfig(cfg).WithAllocator(heap).WithPrimitive(fp).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c, fp, heap
}

func hsHeader() *value.Table {
	return value.Object("alg", "HS256", "kid", "key-1")
}

func sampleClaims() *value.Table {
	return value.Object(
		"sub", "user-42",
		"admin", false,
		"score", 99.5,
		"roles", value.NewArray(value.String("read"), value.String("write"), value.String("admin")),
		"profile", value.Object(
			"name", "Ada",
			"langs", value.NewArray(value.String("go"), value.FromTable(value.Object("level", 3))),
		),
	)
}

func mustEncode(t *testing.T, c *Codec, header, claims *value.Table, key []byte) string {
	t.Helper()
	token, err := c.Encode(context.Background(), header, claims, key)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if token == "" {
		t.Fatal("Encode returned empty token")
	}
	return token
}
