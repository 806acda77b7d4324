package hashfile

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Replies cross the worker boundary as CBOR frames, never as shared Go
// values. Encoding is deterministic; decoding rejects unknown fields so a
// frame of any other shape is detected instead of silently matching.
var (
	frameEnc cbor.EncMode
	frameDec cbor.DecMode
)

func init() {
	var err error

	frameEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("hashfile: CBOR encoder initialization failed: " + err.Error())
	}

	frameDec, err = cbor.DecOptions{
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic("hashfile: CBOR decoder initialization failed: " + err.Error())
	}
}

// reply is the union of the four inbound message kinds. Exactly one member
// is present on a well-formed frame; presence is the key, not its value.
type reply struct {
	Start    bool     `cbor:"start,omitempty"`
	Progress *float64 `cbor:"progress,omitempty"`
	Result   *string  `cbor:"result,omitempty"`
	Error    *string  `cbor:"error,omitempty"`
}

type replyKind int

const (
	replyStart replyKind = iota
	replyProgress
	replyResult
	replyError
)

var errUnexpectedFrame = errors.New("unexpected worker message")

func startReply() reply             { return reply{Start: true} }
func progressReply(p float64) reply { return reply{Progress: &p} }
func resultReply(hex string) reply  { return reply{Result: &hex} }

// errorReply never carries an empty message.
func errorReply(msg string) reply {
	if msg == "" {
		msg = "worker error"
	}
	return reply{Error: &msg}
}

// decodeReply classifies a frame. Frames that fail to decode, carry unknown
// members, or set anything but exactly one member wrap errUnexpectedFrame.
func decodeReply(frame []byte) (reply, replyKind, error) {
	var r reply
	if err := frameDec.Unmarshal(frame, &r); err != nil {
		return r, 0, fmt.Errorf("%w: %v", errUnexpectedFrame, err)
	}

	var kind replyKind
	set := 0
	if r.Start {
		kind = replyStart
		set++
	}
	if r.Progress != nil {
		kind = replyProgress
		set++
	}
	if r.Result != nil {
		kind = replyResult
		set++
	}
	if r.Error != nil {
		kind = replyError
		set++
	}
	if set != 1 {
		return r, 0, fmt.Errorf("%w: %d members set", errUnexpectedFrame, set)
	}
	return r, kind, nil
}

// diagnose renders a frame in CBOR diagnostic notation for logs.
func diagnose(frame []byte) string {
	d, err := cbor.Diagnose(frame)
	if err != nil {
		return fmt.Sprintf("%x", frame)
	}
	return d
}
