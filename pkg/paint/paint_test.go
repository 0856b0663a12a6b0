package paint

import "testing"

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"#4A90D9", "#4A90D9"},
		{"4a90d9", "#4A90D9"},
		{"#FFB3CC99", "#FFB3CC99"},
		{"#000000FF", "#000000"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseHex(tt.in)
			if err != nil {
				t.Fatalf("ParseHex(%q): %v", tt.in, err)
			}
			if got := c.Hex(); got != tt.want {
				t.Errorf("ParseHex(%q).Hex() = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseHexInvalid(t *testing.T) {
	for _, in := range []string{"", "#123", "#GGGGGG", "#1234567"} {
		if _, err := ParseHex(in); err == nil {
			t.Errorf("ParseHex(%q) succeeded, want error", in)
		}
	}
}

func TestValid(t *testing.T) {
	if !RGB(0, 0.5, 1).Valid() {
		t.Error("RGB(0, 0.5, 1) should be valid")
	}
	if RGBA(1.2, 0, 0, 1).Valid() {
		t.Error("R=1.2 should be invalid")
	}
	if RGBA(0, 0, 0, -0.1).Valid() {
		t.Error("A=-0.1 should be invalid")
	}
}

func TestLayerPaletteCycles(t *testing.T) {
	if Layer(1) != Layer(1+len(palette)) {
		t.Error("palette should cycle")
	}
	if Layer(0) != Default {
		t.Error("Layer(0) should fall back to Default")
	}
	if Layer(1) == Layer(2) {
		t.Error("consecutive layers should differ")
	}
}
