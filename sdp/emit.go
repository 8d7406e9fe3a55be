package sdp

import (
	"fmt"
	"strconv"
	"strings"
)

// ntpEpochOffset is the number of seconds between the NTP epoch
// (1900-01-01) and the Unix epoch (1970-01-01), used for the o= line
// per spec §4.3.
const ntpEpochOffset = 2208988800

// CodecEntry is one negotiated codec as the emitter needs it: just
// enough to produce an "a=rtpmap" line.
type CodecEntry struct {
	PT       uint8
	Name     string
	Rate     uint32
	Channels uint16
}

func (c CodecEntry) encoding() string {
	if c.Channels > 1 {
		return fmt.Sprintf("%s/%d/%d", c.Name, c.Rate, c.Channels)
	}
	return fmt.Sprintf("%s/%d", c.Name, c.Rate)
}

// MediaInput is everything the emitter needs to produce one m= block.
// Kind is "audio", "video", or "application" (for the SCTP block).
type MediaInput struct {
	Kind      string
	Codecs    []CodecEntry // ignored for Kind == "application"
	Direction Direction

	SSRC  uint32
	Cname string

	IceUfrag, IcePwd string
	Candidates       []string

	DtlsFingerprint string
	DtlsSetup       Setup
}

// Emit serializes medias into the SDP text subset described in spec
// §4.3: v=0/o=-/s=-/t=0 0 session lines, one media block per entry
// (including the "application" SCTP block, when present), each
// carrying rtcp-mux and transport (candidates/credentials/fingerprint/
// setup) lines; audio/video blocks add direction, ssrc, and rtpmap
// lines, the application block adds an sctpmap line. unixSeconds is the
// wall-clock time used to derive the o= line's NTP-epoch session id.
func Emit(unixSeconds int64, medias []MediaInput) string {
	var b strings.Builder
	ntp := unixSeconds + ntpEpochOffset

	writeLine(&b, "v=0")
	writeLine(&b, fmt.Sprintf("o=- %d %d IN IP4 0.0.0.0", ntp, ntp))
	writeLine(&b, "s=-")
	writeLine(&b, "t=0 0")

	for _, m := range medias {
		emitMedia(&b, m)
	}

	return b.String()
}

func emitMedia(b *strings.Builder, m MediaInput) {
	if m.Kind == "application" {
		writeLine(b, "m=application 9 DTLS/SCTP 5000")
	} else {
		fmts := make([]string, len(m.Codecs))
		for i, c := range m.Codecs {
			fmts[i] = strconv.Itoa(int(c.PT))
		}
		writeLine(b, fmt.Sprintf("m=%s 9 UDP/TLS/RTP/SAVPF %s", m.Kind, strings.Join(fmts, " ")))
	}

	writeLine(b, "c=IN IP4 0.0.0.0")
	writeLine(b, "a=rtcp:9 IN IP4 0.0.0.0")
	writeLine(b, "a=rtcp-mux")

	for _, cand := range m.Candidates {
		writeLine(b, "a=candidate:"+cand)
	}
	if m.IcePwd != "" {
		writeLine(b, "a=ice-pwd:"+m.IcePwd)
	}
	if m.IceUfrag != "" {
		writeLine(b, "a=ice-ufrag:"+m.IceUfrag)
	}
	if m.DtlsFingerprint != "" {
		writeLine(b, "a=fingerprint:sha-256 "+m.DtlsFingerprint)
	}
	if m.DtlsSetup != 0 {
		writeLine(b, "a=setup:"+m.DtlsSetup.String())
	}

	if m.Kind == "application" {
		writeLine(b, "a=sctpmap:5000 webrtc-datachannel 256")
		return
	}

	writeLine(b, "a="+m.Direction.String())
	writeLine(b, fmt.Sprintf("a=ssrc:%d cname:%s", m.SSRC, m.Cname))
	for _, c := range m.Codecs {
		writeLine(b, fmt.Sprintf("a=rtpmap:%d %s", c.PT, c.encoding()))
	}
}

func writeLine(b *strings.Builder, line string) {
	b.WriteString(line)
	b.WriteString("\r\n")
}
