package rules

import (
	"strings"
	"testing"
)

func TestValidateRule(t *testing.T) {
	valid := func() *Rule {
		return testRule("region.north_america", SetRegion, 10, "north america")
	}

	tests := []struct {
		name    string
		mutate  func(r *Rule)
		wantErr string
	}{
		{"valid", func(r *Rule) {}, ""},
		{"empty id", func(r *Rule) { r.ID = "" }, "cannot be empty"},
		{"upper case id", func(r *Rule) { r.ID = "Region.Asia" }, "must match pattern"},
		{"trailing dot", func(r *Rule) { r.ID = "region." }, "must match pattern"},
		{"id too long", func(r *Rule) { r.ID = "r" + strings.Repeat("a", 100) }, "exceeds maximum of 100"},
		{"blank name", func(r *Rule) { r.Name = "  " }, "must have a name"},
		{"unknown set", func(r *Rule) { r.Set = "colour" }, "unknown set"},
		{"negative position", func(r *Rule) { r.Position = -1 }, "negative position"},
		{"empty expression", func(r *Rule) { r.Expression = " " }, "empty expression"},
		{"expression too long", func(r *Rule) { r.Expression = strings.Repeat("x", 4097) }, "exceeds maximum of 4096"},
		{"empty result", func(r *Rule) { r.Result = "" }, "empty result"},
		{"padded result", func(r *Rule) { r.Result = " Asia" }, "leading/trailing whitespace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(r)
			err := ValidateRule(r)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateRule() failed: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateRule() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateRule() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRuleNil(t *testing.T) {
	if err := ValidateRule(nil); err == nil {
		t.Error("ValidateRule(nil) should fail")
	}
}

func TestRuleSetValid(t *testing.T) {
	for _, s := range KnownSets {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if RuleSet("filters").Valid() {
		t.Error(`"filters" should not be a valid set`)
	}
}
