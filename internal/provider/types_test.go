package provider

import "testing"

func TestParsePermission(t *testing.T) {
	tests := []struct {
		in      string
		want    Permission
		wantErr bool
	}{
		{"none", PermissionNone, false},
		{"read", PermissionRead, false},
		{"triage", PermissionTriage, false},
		{"write", PermissionWrite, false},
		{"maintain", PermissionMaintain, false},
		{"admin", PermissionAdmin, false},
		{"owner", PermissionNone, true},
		{"", PermissionNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePermission(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePermission(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePermission(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if !tt.wantErr && got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}

func TestPermission_Allows(t *testing.T) {
	if !PermissionAdmin.Allows(PermissionWrite) {
		t.Error("admin should satisfy write")
	}
	if !PermissionWrite.Allows(PermissionWrite) {
		t.Error("write should satisfy write")
	}
	if PermissionTriage.Allows(PermissionWrite) {
		t.Error("triage should not satisfy write")
	}
}
