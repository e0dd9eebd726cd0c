package httputil

import (
	"encoding/json"
	"testing"
)

func TestOptionalString_UnmarshalJSON(t *testing.T) {
	type patch struct {
		ParentID OptionalString `json:"parent_id"`
	}

	tests := []struct {
		name        string
		body        string
		wantPresent bool
		wantNil     bool
		wantValue   string
	}{
		{
			name:        "absent field",
			body:        `{}`,
			wantPresent: false,
		},
		{
			name:        "explicit null",
			body:        `{"parent_id": null}`,
			wantPresent: true,
			wantNil:     true,
		},
		{
			name:        "empty string",
			body:        `{"parent_id": ""}`,
			wantPresent: true,
			wantValue:   "",
		},
		{
			name:        "value",
			body:        `{"parent_id": "folder-1"}`,
			wantPresent: true,
			wantValue:   "folder-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p patch
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if p.ParentID.Present != tt.wantPresent {
				t.Errorf("Present = %v, want %v", p.ParentID.Present, tt.wantPresent)
			}
			if !tt.wantPresent {
				return
			}
			if tt.wantNil {
				if p.ParentID.Value != nil {
					t.Errorf("Value = %q, want nil", *p.ParentID.Value)
				}
				return
			}
			if p.ParentID.Value == nil || *p.ParentID.Value != tt.wantValue {
				t.Errorf("Value = %v, want %q", p.ParentID.Value, tt.wantValue)
			}
		})
	}
}

func TestOptionalString_RejectsNonString(t *testing.T) {
	var o OptionalString
	if err := json.Unmarshal([]byte(`123`), &o); err == nil {
		t.Error("expected error for numeric input")
	}
}
