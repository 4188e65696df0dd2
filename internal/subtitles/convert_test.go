package subtitles

import "testing"

func TestConvertSRTCue(t *testing.T) {
	got := ConvertToTranscript("1\n00:00:10,500 --> 00:00:13,000\nHello world\n")
	if got != "[00:00:10] Hello world" {
		t.Fatalf("ConvertToTranscript = %q", got)
	}
}

func TestConvertMarkerOnlyOnFirstLine(t *testing.T) {
	input := "1\r\n01:02:03,999 --> 01:02:05,000\r\nfirst line\r\nsecond line\r\n\r\n2\r\n01:02:06,000 --> 01:02:07,000\r\nthird\r\n"
	want := "[01:02:03] first line\nsecond line\n[01:02:06] third"
	if got := ConvertToTranscript(input); got != want {
		t.Fatalf("ConvertToTranscript =\n%q\nwant\n%q", got, want)
	}
}

func TestConvertWebVTT(t *testing.T) {
	input := `WEBVTT
Kind: captions
Language: en

NOTE generated by a robot

STYLE
::cue { color: red }

00:00:01.000 --> 00:00:02.000 align:start position:0%
<c>hello</c><00:00:01.500><c> there</c>

00:00:02.000 --> 00:00:03.000
hello there
general &amp; kenobi

05:00.250 --> 05:01.000
<v Speaker>short form</v>
`
	want := "[00:00:01] hello there\n[00:00:02] general & kenobi\n[00:05:00] short form"
	if got := ConvertToTranscript(input); got != want {
		t.Fatalf("ConvertToTranscript =\n%q\nwant\n%q", got, want)
	}
}

func TestConvertDropsSequenceAndBlankLines(t *testing.T) {
	input := "\ufeff1\n00:00:00,000 --> 00:00:01,000\n\n\n2\n00:00:01,000 --> 00:00:02,000\n  spaced   out  \n"
	if got := ConvertToTranscript(input); got != "[00:00:01] spaced out" {
		t.Fatalf("ConvertToTranscript = %q", got)
	}
}

func TestCountWords(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"[00:00:01] hello world", 2},
		{"[00:00:01] 你好世界", 4},
		{"[00:00:01] GPT-4 很强\n[00:00:02] don't stop", 6},
		{"", 0},
	}
	for _, tc := range cases {
		if got := CountWords(tc.text); got != tc.want {
			t.Errorf("CountWords(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestLadderOrder(t *testing.T) {
	ladder := Ladder("zh", "en")
	want := []struct {
		origin Origin
		lang   string
		method Method
	}{
		{OriginManual, "zh", MethodManual},
		{OriginManual, "en", MethodManual},
		{OriginAuto, "zh", MethodAuto},
		{OriginAuto, "en", MethodAuto},
		{OriginAny, "en", MethodAuto},
	}
	if len(ladder) != len(want) {
		t.Fatalf("ladder has %d strategies", len(ladder))
	}
	for i, w := range want {
		got := ladder[i]
		if got.Origin != w.origin || got.Language != w.lang || got.Method != w.method {
			t.Fatalf("strategy %d = %+v, want %+v", i, got, w)
		}
	}
	if ladder[0].Name != "manual-zh" || ladder[4].Name != "any-en" {
		t.Fatalf("unexpected names %q, %q", ladder[0].Name, ladder[4].Name)
	}
}
