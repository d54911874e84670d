package wire

import "fmt"

// Fallible endpoints wrap their response body in a one-byte outcome
// discriminant. A failure carries no payload beyond the discriminant:
// the marker says only that the operation kind failed, never why.
const (
	resultOk  = 0
	resultErr = 1
)

// EncodeOk appends the Ok discriminant. The caller encodes the body
// (possibly empty) afterwards.
func EncodeOk(e *Encoder) { e.U8(resultOk) }

// EncodeErr appends the Err discriminant.
func EncodeErr(e *Encoder) { e.U8(resultErr) }

// DecodeResult consumes the outcome discriminant. ok=true means the
// response body follows; ok=false means the endpoint's failure marker.
func DecodeResult(d *Decoder) (ok bool, err error) {
	v, err := d.U8()
	if err != nil {
		return false, err
	}
	switch v {
	case resultOk:
		return true, nil
	case resultErr:
		return false, nil
	default:
		return false, fmt.Errorf("wire: invalid result discriminant %d", v)
	}
}

// Reject reasons carried by an Error endpoint response. These describe
// why the dispatcher could not service a frame at all, as opposed to an
// endpoint failure marker which reports a bus operation that ran and
// failed.
type RejectReason uint8

const (
	RejectUnknownKey RejectReason = 0
	RejectBadBody    RejectReason = 1
	RejectOversize   RejectReason = 2
)

func (r RejectReason) String() string {
	switch r {
	case RejectUnknownKey:
		return "unknown endpoint key"
	case RejectBadBody:
		return "undecodable request body"
	case RejectOversize:
		return "request exceeds working buffer"
	default:
		return fmt.Sprintf("reject reason %d", uint8(r))
	}
}
