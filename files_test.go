package main

import "testing"

func TestHumanReadableSize(t *testing.T) {
	cases := map[int64]string{
		0:             "0 B",
		999:           "999 B",
		1000:          "1.0 kB",
		1500:          "1.5 kB",
		2_500_000:     "2.5 MB",
		3_000_000_000: "3.0 GB",
	}

	for in, want := range cases {
		if got := humanReadableSize(in); got != want {
			t.Fatalf("humanReadableSize(%d) = %q, want %q", in, got, want)
		}
	}
}
