package sdp

import (
	"strconv"
	"strings"

	"github.com/webrtcore/webrtc/rtcerr"
)

// forbiddenPT is the RTP-reserved payload type range spec §4.3 bars
// from an m-line's fmt list.
func forbiddenPT(pt int) bool {
	switch {
	case pt >= 1 && pt <= 4:
		return true
	case pt >= 19 && pt <= 63:
		return true
	case pt >= 72 && pt <= 76:
		return true
	default:
		return false
	}
}

// Parse parses the CRLF- or LF-delimited SDP text subset described in
// spec §4.3. It returns a ParseError (never a partial result) on any
// structural problem: lines before the first m= line that aren't
// recognized session-level attributes are ignored, but a malformed
// m= line, an out-of-range PT, or a forbidden PT abort parsing.
func Parse(text string) ([]MediaDescription, error) {
	lines := splitLines(text)

	var sessionFingerprint string
	var media []MediaDescription
	var cur *MediaDescription

	for _, line := range lines {
		if line == "" {
			continue
		}
		if len(line) < 2 || line[1] != '=' {
			continue
		}
		key, value := line[0], line[2:]

		switch key {
		case 'm':
			md, err := parseMLine(value)
			if err != nil {
				return nil, err
			}
			if sessionFingerprint != "" {
				md.DtlsFingerprint = sessionFingerprint
			}
			media = append(media, md)
			cur = &media[len(media)-1]

		case 'c':
			host, err := parseCLine(value)
			if err != nil {
				return nil, err
			}
			if cur != nil {
				cur.Host = host
			}

		case 'a':
			if err := parseAttribute(value, cur, &sessionFingerprint); err != nil {
				return nil, err
			}
		}
	}

	return media, nil
}

func splitLines(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(normalized, "\n")
}

func parseMLine(value string) (MediaDescription, error) {
	fields := strings.Fields(value)
	if len(fields) < 4 {
		return MediaDescription{}, &rtcerr.ParseError{Err: errMalformedMLine(value)}
	}

	port, err := strconv.Atoi(fields[1])
	if err != nil {
		return MediaDescription{}, &rtcerr.ParseError{Err: errMalformedMLine(value)}
	}

	md := MediaDescription{
		Kind:      fields[0],
		Port:      port,
		Profile:   fields[2],
		Direction: DirectionSendrecv,
		RTPMap:    map[int]string{},
		SctpMap:   map[int]string{},
	}

	// The application m-line's fmt token is an SCTP port (e.g. 5000,
	// per draft-ietf-mmusic-sctp-sdp), not an RTP payload type: the
	// [0,255]/forbidden-range checks below don't apply to it.
	isApplication := fields[0] == "application"

	for _, f := range fields[3:] {
		pt, err := strconv.Atoi(f)
		if err != nil {
			return MediaDescription{}, &rtcerr.ParseError{Err: errMalformedMLine(value)}
		}
		if !isApplication {
			if pt < 0 || pt >= 256 {
				return MediaDescription{}, &rtcerr.ParseError{Err: errMalformedMLine(value)}
			}
			if forbiddenPT(pt) {
				return MediaDescription{}, &rtcerr.ParseError{Err: errForbiddenPT(pt)}
			}
		}
		md.Fmt = append(md.Fmt, pt)
	}

	return md, nil
}

func parseCLine(value string) (string, error) {
	fields := strings.Fields(value)
	if len(fields) != 3 || fields[0] != "IN" {
		return "", &rtcerr.ParseError{Err: errMalformedCLine(value)}
	}
	if fields[1] != "IP4" && fields[1] != "IP6" {
		return "", &rtcerr.ParseError{Err: errMalformedCLine(value)}
	}
	return fields[2], nil
}

func parseAttribute(value string, cur *MediaDescription, sessionFingerprint *string) error {
	key, rest, hasRest := strings.Cut(value, ":")
	if !hasRest {
		key = value
		rest = ""
	}

	switch key {
	case "fingerprint":
		fp, ok := parseFingerprint(rest)
		if !ok {
			return nil // unrecognized hash algorithm: ignored, not fatal
		}
		if cur == nil {
			*sessionFingerprint = fp
		} else {
			cur.DtlsFingerprint = fp
		}

	case "candidate":
		if cur != nil {
			cur.IceCandidates = append(cur.IceCandidates, rest)
		}

	case "ice-ufrag":
		if cur != nil {
			cur.IceUfrag = rest
		}

	case "ice-pwd":
		if cur != nil {
			cur.IcePwd = rest
		}

	case "rtcp":
		if cur != nil {
			parseRTCPLine(rest, cur)
		}

	case "rtcp-mux":
		if cur != nil {
			cur.RTCP.Mux = true
		}

	case "setup":
		if cur != nil {
			cur.DtlsSetup = parseSetup(rest)
		}

	case "sendrecv":
		if cur != nil {
			cur.Direction = DirectionSendrecv
		}
	case "sendonly":
		if cur != nil {
			cur.Direction = DirectionSendonly
		}
	case "recvonly":
		if cur != nil {
			cur.Direction = DirectionRecvonly
		}
	case "inactive":
		if cur != nil {
			cur.Direction = DirectionInactive
		}

	case "rtpmap":
		if cur != nil {
			parseRtpmap(rest, cur)
		}

	case "sctpmap":
		if cur != nil {
			parseSctpmap(rest, cur)
		}
	}

	return nil
}

func parseFingerprint(rest string) (string, bool) {
	algo, value, ok := strings.Cut(rest, " ")
	if !ok || !strings.EqualFold(algo, "sha-256") {
		return "", false
	}
	return value, true
}

func parseRTCPLine(rest string, md *MediaDescription) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return
	}
	if port, err := strconv.Atoi(fields[0]); err == nil {
		md.RTCP.Port = port
	}
	if len(fields) == 4 {
		md.RTCP.Host = fields[3]
	}
}

func parseSetup(rest string) Setup {
	switch rest {
	case "active":
		return SetupActive
	case "passive":
		return SetupPassive
	case "actpass":
		return SetupActpass
	default:
		return 0
	}
}

func parseRtpmap(rest string, md *MediaDescription) {
	ptStr, encoding, ok := strings.Cut(rest, " ")
	if !ok {
		return
	}
	pt, err := strconv.Atoi(ptStr)
	if err != nil {
		return
	}
	md.RTPMap[pt] = encoding
}

func parseSctpmap(rest string, md *MediaDescription) {
	fmtStr, proto, ok := strings.Cut(rest, " ")
	if !ok {
		return
	}
	f, err := strconv.Atoi(fmtStr)
	if err != nil {
		return
	}
	md.SctpMap[f] = proto
}

type parseErrString string

func (e parseErrString) Error() string { return string(e) }

func errMalformedMLine(value string) error {
	return parseErrString("sdp: malformed m= line: " + value)
}

func errMalformedCLine(value string) error {
	return parseErrString("sdp: malformed c= line: " + value)
}

func errForbiddenPT(pt int) error {
	return parseErrString("sdp: payload type " + strconv.Itoa(pt) + " is in the RTP-reserved range")
}
