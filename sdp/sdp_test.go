package sdp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseForbiddenPT(t *testing.T) {
	_, err := Parse("m=audio 9 UDP/TLS/RTP/SAVPF 72\r\n")
	require.Error(t, err)
}

func TestParseInheritsSessionFingerprint(t *testing.T) {
	text := "v=0\r\n" +
		"a=fingerprint:sha-256 AA:BB:CC\r\n" +
		"m=audio 9 UDP/TLS/RTP/SAVPF 96\r\n" +
		"a=rtpmap:96 opus/48000/2\r\n"

	media, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, media, 1)
	require.Equal(t, "AA:BB:CC", media[0].DtlsFingerprint)
}

func TestParseOverridesSessionFingerprint(t *testing.T) {
	text := "a=fingerprint:sha-256 AA:BB:CC\r\n" +
		"m=audio 9 UDP/TLS/RTP/SAVPF 96\r\n" +
		"a=fingerprint:sha-256 DD:EE:FF\r\n"

	media, err := Parse(text)
	require.NoError(t, err)
	require.Equal(t, "DD:EE:FF", media[0].DtlsFingerprint)
}

func TestRoundTrip(t *testing.T) {
	input := MediaInput{
		Kind:            "audio",
		Codecs:          []CodecEntry{{PT: 96, Name: "opus", Rate: 48000, Channels: 2}, {PT: 0, Name: "PCMU", Rate: 8000}},
		Direction:       DirectionSendrecv,
		SSRC:            12345,
		Cname:           "cname-1",
		IceUfrag:        "ufrag1",
		IcePwd:          "password1password1",
		Candidates:      []string{"1 1 UDP 2122260223 10.0.0.1 54400 typ host"},
		DtlsFingerprint: "AA:BB:CC:DD",
		DtlsSetup:       SetupActpass,
	}

	text := Emit(1700000000, []MediaInput{input})

	media, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, media, 1)

	md := media[0]
	require.Equal(t, "audio", md.Kind)
	require.Equal(t, 9, md.Port)
	require.Equal(t, "UDP/TLS/RTP/SAVPF", md.Profile)
	require.Equal(t, []int{96, 0}, md.Fmt)
	require.Equal(t, "0.0.0.0", md.Host)
	require.Equal(t, DirectionSendrecv, md.Direction)
	require.True(t, md.RTCP.Mux)
	require.Equal(t, "ufrag1", md.IceUfrag)
	require.Equal(t, "password1password1", md.IcePwd)
	require.Equal(t, "AA:BB:CC:DD", md.DtlsFingerprint)
	require.Equal(t, SetupActpass, md.DtlsSetup)
	require.Equal(t, []string{"1 1 UDP 2122260223 10.0.0.1 54400 typ host"}, md.IceCandidates)
	require.Equal(t, "opus/48000/2", md.RTPMap[96])
	require.Equal(t, "PCMU/8000", md.RTPMap[0])
}

func TestRoundTripApplicationBlock(t *testing.T) {
	input := MediaInput{Kind: "application"}
	text := Emit(1700000000, []MediaInput{input})

	media, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, media, 1)
	require.Equal(t, "application", media[0].Kind)
	require.Equal(t, []int{5000}, media[0].Fmt)
	require.Equal(t, "webrtc-datachannel 256", media[0].SctpMap[5000])
}

func TestOfferWiring(t *testing.T) {
	input := MediaInput{
		Kind:      "audio",
		Codecs:    []CodecEntry{{PT: 96, Name: "opus", Rate: 48000, Channels: 2}, {PT: 0, Name: "PCMU", Rate: 8000}, {PT: 8, Name: "PCMA", Rate: 8000}},
		Direction: DirectionSendrecv,
		DtlsSetup: SetupActpass,
	}
	text := Emit(1700000000, []MediaInput{input})

	require.Contains(t, text, "m=audio 9 UDP/TLS/RTP/SAVPF 96 0 8\r\n")
	require.Contains(t, text, "a=setup:actpass\r\n")
	require.Contains(t, text, "a=rtpmap:96 opus/48000/2\r\n")
	require.Contains(t, text, "a=rtpmap:0 PCMU/8000\r\n")
	require.Contains(t, text, "a=rtpmap:8 PCMA/8000\r\n")
}
