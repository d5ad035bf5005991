package device

import "testing"

func TestNormalizePCIID(t *testing.T) {
	cases := map[string]string{
		"":       "",
		"0x1002": "1002",
		"0X73DF": "73df",
		"73":     "0073",
	}
	for in, want := range cases {
		if got := normalizePCIID(in); got != want {
			t.Errorf("normalizePCIID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitPCIIdentifier(t *testing.T) {
	vendor, dev := splitPCIIdentifier("1002:73df")
	if vendor != "1002" || dev != "73df" {
		t.Errorf("splitPCIIdentifier = %q,%q", vendor, dev)
	}
	if v, d := splitPCIIdentifier(""); v != "" || d != "" {
		t.Errorf("splitPCIIdentifier empty = %q,%q, want empty", v, d)
	}
}

func TestShouldUseResolvedName(t *testing.T) {
	cases := []struct {
		current, resolved string
		want              bool
	}{
		{"", "AMD Radeon RX 6800", true},
		{"amdgpu", "AMD Radeon RX 6800", true},
		{"My Custom Name", "AMD Radeon RX 6800", false},
		{"0x1002", "AMD Radeon RX 6800", true},
		{"PCI Device 73df", "AMD Radeon RX 6800", true},
		{"My Custom Name", "", false},
	}
	for _, c := range cases {
		if got := shouldUseResolvedName(c.current, c.resolved); got != c.want {
			t.Errorf("shouldUseResolvedName(%q, %q) = %v, want %v", c.current, c.resolved, got, c.want)
		}
	}
}

func TestNameFromPCIIDEmptyInputs(t *testing.T) {
	if got := NameFromPCIID("", "", "", ""); got != "" {
		t.Errorf("NameFromPCIID with empty ids = %q, want empty", got)
	}
}
