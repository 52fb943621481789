package macaddr

import "testing"

func TestNormalizeExactMac(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "colon separated",
			input: "AA:BB:CC:DD:EE:FF",
			want:  "aabbccddeeff",
		},
		{
			name:  "dotted catalyst form",
			input: "aabb.ccdd.eeff",
			want:  "aabbccddeeff",
		},
		{
			name:  "dash separated",
			input: "aa-bb-cc-dd-ee-ff",
			want:  "aabbccddeeff",
		},
		{
			name:  "no separators with whitespace",
			input: "  aabbccddeeff ",
			want:  "aabbccddeeff",
		},
		{
			name:    "too short",
			input:   "aa:bb:cc",
			wantErr: true,
		},
		{
			name:    "non-hex characters",
			input:   "zz:bb:cc:dd:ee:ff",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeExactMac(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("NormalizeExactMac(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("NormalizeExactMac(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatMacColon(t *testing.T) {
	if got := FormatMacColon("aabbccddeeff"); got != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("FormatMacColon() = %q, want %q", got, "aa:bb:cc:dd:ee:ff")
	}
	// Uppercase input is lowered before formatting.
	if got := FormatMacColon("AABBCCDDEEFF"); got != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("FormatMacColon() = %q, want %q", got, "aa:bb:cc:dd:ee:ff")
	}
	// Non-normalized input is returned as-is.
	if got := FormatMacColon("short"); got != "short" {
		t.Errorf("FormatMacColon(\"short\") = %q, want passthrough", got)
	}
}

func TestFormatMacDotted(t *testing.T) {
	if got := FormatMacDotted("aabbccddeeff"); got != "aabb.ccdd.eeff" {
		t.Errorf("FormatMacDotted() = %q, want %q", got, "aabb.ccdd.eeff")
	}
	if got := FormatMacDotted("short"); got != "short" {
		t.Errorf("FormatMacDotted(\"short\") = %q, want passthrough", got)
	}
}

func TestRoundTrip(t *testing.T) {
	// Colon and dotted forms normalize back to the same clean string.
	clean := "001a2b3c4d5e"
	for _, form := range []string{FormatMacColon(clean), FormatMacDotted(clean)} {
		got, err := NormalizeExactMac(form)
		if err != nil {
			t.Fatalf("NormalizeExactMac(%q) unexpected error: %v", form, err)
		}
		if got != clean {
			t.Errorf("NormalizeExactMac(%q) = %q, want %q", form, got, clean)
		}
	}
}
