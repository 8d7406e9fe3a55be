package webrtc

import (
	"strconv"
	"strings"

	"github.com/webrtcore/webrtc/rtcerr"
)

// CodecKind is the media kind a Codec or Transceiver carries.
type CodecKind int

const (
	// CodecKindAudio is the audio media kind.
	CodecKindAudio CodecKind = iota + 1
	// CodecKindVideo is the video media kind.
	CodecKindVideo
)

func (k CodecKind) String() string {
	switch k {
	case CodecKindAudio:
		return "audio"
	case CodecKindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// dynamicPTLow/dynamicPTHigh bound the range new payload types are
// assigned from at offer time (spec §3).
const (
	dynamicPTLow  = 96
	dynamicPTHigh = 127
)

// RTCPFeedback names one rtcp-fb capability a codec advertises. This
// module never emits any (no codec in defaultCodecs populates it) —
// see SPEC_FULL.md §3 for why the field exists regardless.
type RTCPFeedback struct {
	Type, Parameter string
}

// Codec is an immutable description of one negotiable payload type.
// A zero-value PT (with ptAssigned false) means "not yet assigned";
// WithPT returns a clone with a concrete payload type.
type Codec struct {
	Kind       CodecKind
	Name       string
	ClockRate  uint32
	Channels   uint16
	Feedback   []RTCPFeedback
	pt         uint8
	ptAssigned bool
}

// PT returns the assigned payload type and whether one has been
// assigned yet.
func (c Codec) PT() (uint8, bool) {
	return c.pt, c.ptAssigned
}

// WithPT returns a copy of c with the payload type pt assigned.
func (c Codec) WithPT(pt uint8) Codec {
	clone := c
	clone.pt = pt
	clone.ptAssigned = true
	return clone
}

// IsDynamic reports whether c's assigned PT falls in the dynamic
// range (96-127). Calling it on an unassigned Codec is a programmer
// error and returns false.
func (c Codec) IsDynamic() bool {
	return c.ptAssigned && c.pt >= dynamicPTLow && c.pt <= dynamicPTHigh
}

// defaultCodecs is the fixed offer-time preference list (spec §4.4):
// opus, then the two static-PT PCM codecs, then VP8. Order matters —
// it is also the tie-break order when assigning dynamic PTs.
func defaultCodecs() []Codec {
	return []Codec{
		{Kind: CodecKindAudio, Name: "opus", ClockRate: 48000, Channels: 2},
		{Kind: CodecKindAudio, Name: "PCMU", ClockRate: 8000, Channels: 1, pt: 0, ptAssigned: true},
		{Kind: CodecKindAudio, Name: "PCMA", ClockRate: 8000, Channels: 1, pt: 8, ptAssigned: true},
		{Kind: CodecKindVideo, Name: "VP8", ClockRate: 90000},
	}
}

// offerCodecsForKind filters the default preference list to kind and
// assigns dynamic PTs from nextDynamicPT upward, mutating and
// returning it so a caller offering several m-lines keeps payload
// types distinct across them (spec §4.4 "incrementing across all
// transceivers").
func offerCodecsForKind(kind CodecKind, nextDynamicPT *uint8) ([]Codec, error) {
	var out []Codec
	for _, c := range defaultCodecs() {
		if c.Kind != kind {
			continue
		}
		if c.ptAssigned {
			out = append(out, c)
			continue
		}
		if *nextDynamicPT > dynamicPTHigh {
			return nil, &rtcerr.InternalError{Err: errNoDynamicPT}
		}
		out = append(out, c.WithPT(*nextDynamicPT))
		*nextDynamicPT++
	}
	return out, nil
}

var errNoDynamicPT = errNoDynamicPTErr("dynamic payload type range exhausted")

type errNoDynamicPTErr string

func (e errNoDynamicPTErr) Error() string { return string(e) }

// findCommonCodecs intersects local preferences with a remote offer's
// codecs by (kind, name, clockrate). For a remote codec whose PT is in
// the dynamic range, the remote PT is preserved in the result; for a
// static PT (0, 8) the local PT is preserved instead (spec Testable
// Property 7). Order follows the local preference list so repeated
// negotiation is stable regardless of the remote's m-line fmt order.
func findCommonCodecs(local, remote []Codec) []Codec {
	var common []Codec
	for _, l := range local {
		for _, r := range remote {
			if !sameCodecIdentity(l, r) {
				continue
			}
			if r.IsDynamic() {
				common = append(common, l.WithPT(mustPT(r)))
			} else {
				common = append(common, l)
			}
			break
		}
	}
	return common
}

func sameCodecIdentity(a, b Codec) bool {
	return a.Kind == b.Kind &&
		equalFoldASCII(a.Name, b.Name) &&
		a.ClockRate == b.ClockRate
}

func mustPT(c Codec) uint8 {
	pt, _ := c.PT()
	return pt
}

// codecFromRTPMapEntry parses a MediaDescription.RTPMap value
// ("name/rate[/channels]") into a Codec with pt already assigned,
// turning an incoming offer's rtpmap line back into the negotiable
// form findCommonCodecs expects (spec §4.3, §4.4).
func codecFromRTPMapEntry(kind CodecKind, pt int, raw string) (Codec, bool) {
	if pt < 0 || pt > 255 {
		return Codec{}, false
	}
	parts := strings.Split(raw, "/")
	if len(parts) < 2 {
		return Codec{}, false
	}
	rate, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Codec{}, false
	}
	var channels uint64 = 1
	if len(parts) >= 3 {
		channels, err = strconv.ParseUint(parts[2], 10, 16)
		if err != nil {
			return Codec{}, false
		}
	}

	return Codec{
		Kind:      kind,
		Name:      parts[0],
		ClockRate: uint32(rate),
		Channels:  uint16(channels),
	}.WithPT(uint8(pt)), true
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
