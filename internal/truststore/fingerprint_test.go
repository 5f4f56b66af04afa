package truststore

import (
	"strings"
	"testing"
)

// validSHA256 is a valid 64-char hex string for testing.
const validSHA256 = "D7A7A0FB5D7E2731D7A7A0FB5D7E2731D7A7A0FB5D7E2731D7A7A0FB5D7E2731"

// validSHA1 is a valid 40-char hex string for testing.
const validSHA1 = "D7A7A0FB5D7E2731D7A7A0FB5D7E2731D7A7A0FB"

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  Fingerprint
	}{
		{
			name:  "mixed separators and case",
			input: "AA:BB-cc dd",
			want:  "AABBCCDD",
		},
		{
			name:  "surrounding whitespace",
			input: "  aa11bb22  ",
			want:  "AA11BB22",
		},
		{
			name:  "colon separated sha256",
			input: strings.ToLower(validSHA256),
			want:  Fingerprint(validSHA256),
		},
		{
			name:  "already canonical",
			input: validSHA1,
			want:  Fingerprint(validSHA1),
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "whitespace only",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}

			// Normalization is idempotent
			if again := Normalize(string(got)); again != got {
				t.Errorf("Normalize not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestParseStrict(t *testing.T) {
	t.Parallel()

	sha256Colons := Fingerprint(validSHA256).Colons()
	sha1Dashes := strings.ReplaceAll(Fingerprint(validSHA1).Colons(), ":", "-")
	sha1Spaces := strings.ReplaceAll(Fingerprint(validSHA1).Colons(), ":", " ")

	tests := []struct {
		name    string
		input   string
		want    Fingerprint
		wantErr bool
	}{
		{
			name:  "raw sha256",
			input: validSHA256,
			want:  Fingerprint(validSHA256),
		},
		{
			name:  "raw sha1",
			input: validSHA1,
			want:  Fingerprint(validSHA1),
		},
		{
			name:  "lowercase raw",
			input: strings.ToLower(validSHA256),
			want:  Fingerprint(validSHA256),
		},
		{
			name:  "colon separated sha256",
			input: sha256Colons,
			want:  Fingerprint(validSHA256),
		},
		{
			name:  "dash separated sha1",
			input: sha1Dashes,
			want:  Fingerprint(validSHA1),
		},
		{
			name:  "space separated sha1",
			input: sha1Spaces,
			want:  Fingerprint(validSHA1),
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			input:   "   ",
			wantErr: true,
		},
		{
			name:    "too short",
			input:   "D7A7A0FB",
			wantErr: true,
		},
		{
			name:    "length between sha1 and sha256",
			input:   validSHA1 + "AA",
			wantErr: true,
		},
		{
			name:    "too long",
			input:   validSHA256 + "FF",
			wantErr: true,
		},
		{
			name:    "invalid character",
			input:   validSHA256[:63] + "Z",
			wantErr: true,
		},
		{
			name:    "mixed separators",
			input:   "D7:A7-" + sha256Colons[6:],
			wantErr: true,
		},
		{
			name:    "double separator",
			input:   strings.Replace(sha256Colons, ":", "::", 1),
			wantErr: true,
		},
		{
			name:    "trailing separator",
			input:   sha256Colons + ":",
			wantErr: true,
		},
		{
			name:    "incomplete pair",
			input:   "D:" + sha256Colons[3:],
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseStrict(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseStrict(%q) = %q, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStrict(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseStrict(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFingerprintAlgorithm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		fp   Fingerprint
		want string
	}{
		{Fingerprint(validSHA1), "sha1"},
		{Fingerprint(validSHA256), "sha256"},
		{"AABB", "unknown"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		tt := tt
		if got := tt.fp.Algorithm(); got != tt.want {
			t.Errorf("Algorithm(%q) = %q, want %q", tt.fp, got, tt.want)
		}
	}
}

func TestFingerprintDisplay(t *testing.T) {
	t.Parallel()

	fp := Fingerprint("AA11BB22CC33")

	if got, want := fp.Colons(), "AA:11:BB:22:CC:33"; got != want {
		t.Errorf("Colons() = %q, want %q", got, want)
	}
	if got, want := fp.Truncate(2), "AA:11..."; got != want {
		t.Errorf("Truncate(2) = %q, want %q", got, want)
	}
	if got, want := fp.Truncate(100), "AA:11:BB:22:CC:33"; got != want {
		t.Errorf("Truncate(100) = %q, want %q", got, want)
	}
	if got := fp.Truncate(0); got != "" {
		t.Errorf("Truncate(0) = %q, want empty", got)
	}
}
