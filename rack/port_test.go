package rack

import "testing"

func TestParsePort(t *testing.T) {
	cases := []struct {
		spec string
		want Port
	}{
		{"1M0O", Port{Module: 1, Kind: Output, Index: 0}},
		{"0M3I", Port{Module: 0, Kind: Input, Index: 3}},
		{"12M4K", Port{Module: 12, Kind: Knob, Index: 4}},
		{"7M10I", Port{Module: 7, Kind: Input, Index: 10}},
	}

	for _, c := range cases {
		got, err := ParsePort(c.spec)
		if err != nil {
			t.Fatalf("ParsePort(%q): %v", c.spec, err)
		}
		if got != c.want {
			t.Errorf("ParsePort(%q) = %+v, want %+v", c.spec, got, c.want)
		}
		if got.Spec() != c.spec {
			t.Errorf("Spec() = %q, want %q", got.Spec(), c.spec)
		}
	}
}

func TestParsePortRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"M0O",
		"1M",
		"1MO",
		"1M0X",
		"1M0",
		"xM0O",
		"1MxO",
		"-1M0O",
		"1M-1O",
	}

	for _, spec := range bad {
		if _, err := ParsePort(spec); err == nil {
			t.Errorf("ParsePort(%q) accepted a malformed spec", spec)
		}
	}
}
