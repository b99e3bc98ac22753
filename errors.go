package goJWT

import (
	"errors"
	"strings"

	"github.com/MrEthical07/goJWT/convert"
)

var (
	// ErrInvalidInput is returned when the header or claims table is missing.
	ErrInvalidInput = errors.New("invalid header or claim")
	// ErrAlgorithmNotSet is returned when the header carries no usable "alg" entry.
	ErrAlgorithmNotSet = errors.New("algorithm doesn't set")
	// ErrUnsupportedAlgorithm is returned when "alg" names no supported algorithm or
	// one outside the configured allow-list.
	ErrUnsupportedAlgorithm = errors.New("not supported alg")
	// ErrPrimitive marks failures reported by the signing primitive: malformed tokens,
	// bad signatures, rejected keys and primitive allocation failures.
	ErrPrimitive = errors.New("jwt primitive failure")
	// ErrEncodeToken is returned when the primitive cannot serialize a token.
	ErrEncodeToken = errors.New("can't encode jwt token")
	// ErrAllocation is returned when a document node cannot be allocated.
	ErrAllocation = convert.ErrAllocation
	// ErrMaxDepth is returned when a header or claims tree nests deeper than
	// Config.MaxDepth.
	ErrMaxDepth = convert.ErrMaxDepth
	// ErrCodecClosed is returned by calls made after [Codec.Close].
	ErrCodecClosed = errors.New("codec closed")
)

// Stage identifies the step of an encode or decode call that failed.
type Stage uint8

const (
	StageInput Stage = iota
	StageDecode
	StageAlgorithm
	StageHeader
	StageClaims
	StageNew
	StageSetAlgorithm
	StageAttachHeader
	StageAttachClaims
	StageSerialize
	stageCount
)

var stageNames = [stageCount]string{
	StageInput:        "input",
	StageDecode:       "decode",
	StageAlgorithm:    "algorithm",
	StageHeader:       "header",
	StageClaims:       "claims",
	StageNew:          "new",
	StageSetAlgorithm: "set_algorithm",
	StageAttachHeader: "attach_header",
	StageAttachClaims: "attach_claims",
	StageSerialize:    "serialize",
}

// String returns the stage name.
func (s Stage) String() string {
	if s >= stageCount {
		return "unknown"
	}
	return stageNames[s]
}

// Error is returned by every failed [Codec.Encode] and [Codec.Decode]. Kind is one of
// the package sentinels; Err is the underlying cause, if any. errors.Is matches both.
type Error struct {
	Op    string
	Stage Stage
	Kind  error
	Err   error
}

// Error formats the operation and the failure message.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	switch {
	case e.Err == nil:
		b.WriteString(e.Kind.Error())
	case e.Kind == ErrPrimitive, errors.Is(e.Err, e.Kind):
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(e.Kind.Error())
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the sentinel kind and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// StageOf reports the stage a codec error originated from.
func StageOf(err error) (Stage, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage, true
	}
	return 0, false
}
