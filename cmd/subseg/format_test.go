package main

import (
	"strings"
	"testing"
	"time"
)

func TestFormatTimecode(t *testing.T) {
	cases := map[time.Duration]string{
		0:                       "00:00:00.000",
		1500 * time.Millisecond: "00:00:01.500",
		time.Hour + 2*time.Minute + 3*time.Second: "01:02:03.000",
		-time.Second: "00:00:00.000",
	}
	for in, want := range cases {
		if got := formatTimecode(in); got != want {
			t.Fatalf("formatTimecode(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatCountGroupsThousands(t *testing.T) {
	if got := formatCount(1234567); got != "1,234,567" {
		t.Fatalf("unexpected count: %q", got)
	}
}

func TestTableRenderPadsShortRows(t *testing.T) {
	spec := tableSpec{headers: []string{"A", "B"}, aligns: []columnAlignment{alignLeft, alignRight}}
	spec.add("only")
	out := spec.render()
	if !strings.Contains(out, "only") || !strings.Contains(out, "╭") {
		t.Fatalf("unexpected render: %q", out)
	}
	if (tableSpec{}).render() != "" {
		t.Fatal("expected empty render without headers")
	}
}

func TestStylerStatusWithoutColor(t *testing.T) {
	line := styler{}.status("Result", statusWarn, "no subtitle segments found")
	if line != "  Result:      [WARN] no subtitle segments found" {
		t.Fatalf("unexpected line: %q", line)
	}
}
