package errors

import "testing"

func TestValidateTaxonName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "Homo_sapiens", false},
		{"digits", "42", false},
		{"spaces", "Pan troglodytes", false},
		{"empty", "", true},
		{"paren", "a(b", true},
		{"comma", "a,b", true},
		{"colon", "a:0.1", true},
		{"semicolon", "a;", true},
		{"bracket", "[&R]", true},
		{"control", "a\tb", true},
		{"too long", string(make([]byte, 129)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTaxonName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTaxonName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", GetCode(err))
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "out/trees.nwk", false},
		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "../secret", true},
		{"backslash", "a\\b", true},
		{"null byte", "a\x00b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateResultID(t *testing.T) {
	if err := ValidateResultID("0f8fad5b-d9cb-469f-a165-70867728950e"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, bad := range []string{"", "abc", "0F8FAD5B-D9CB-469F-A165-70867728950E", "0f8fad5b-d9cb-469f-a165-70867728950e/.."} {
		if err := ValidateResultID(bad); err == nil {
			t.Errorf("ValidateResultID(%q) = nil, want error", bad)
		}
	}
}
