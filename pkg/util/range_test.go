package util

import (
	"reflect"
	"testing"
)

func TestExpandRange(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    []int
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"single", "5", []int{5}, false},
		{"simple range", "1-5", []int{1, 2, 3, 4, 5}, false},
		{"list", "1,3,5", []int{1, 3, 5}, false},
		{"mixed", "1-3,5,7-9", []int{1, 2, 3, 5, 7, 8, 9}, false},
		{"unsorted input", "7,1-3", []int{1, 2, 3, 7}, false},
		{"duplicates", "1,1,2-3,3", []int{1, 2, 3}, false},
		{"whitespace", " 1 , 2 - 4 ", []int{1, 2, 3, 4}, false},
		{"reversed range", "5-1", nil, true},
		{"garbage", "a-b", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandRange(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExpandRange(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExpandRange(%q) = %v, want %v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestCompactRange(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		want   string
	}{
		{"empty", nil, ""},
		{"single", []int{3}, "3"},
		{"contiguous", []int{1, 2, 3}, "1-3"},
		{"gaps", []int{1, 2, 3, 5, 7, 8, 9}, "1-3,5,7-9"},
		{"unsorted with dups", []int{9, 7, 8, 1, 1, 2, 3, 5}, "1-3,5,7-9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompactRange(tt.values); got != tt.want {
				t.Errorf("CompactRange(%v) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}
}

func TestExpandCompactRoundTrip(t *testing.T) {
	specs := []string{"1-4", "1-4,6,8-10", "24"}
	for _, spec := range specs {
		expanded, err := ExpandRange(spec)
		if err != nil {
			t.Fatalf("ExpandRange(%q): %v", spec, err)
		}
		if got := CompactRange(expanded); got != spec {
			t.Errorf("round trip %q -> %v -> %q", spec, expanded, got)
		}
	}
}

func TestExpandVLANRange(t *testing.T) {
	if _, err := ExpandVLANRange("100-105,200"); err != nil {
		t.Errorf("valid VLAN range rejected: %v", err)
	}
	if _, err := ExpandVLANRange("4090-4100"); err == nil {
		t.Error("expected error for VLAN ID beyond 4094")
	}
	if _, err := ExpandVLANRange("0"); err == nil {
		t.Error("expected error for VLAN ID 0")
	}
}

func TestValidateVLANID(t *testing.T) {
	for _, id := range []int{1, 100, 4094} {
		if err := ValidateVLANID(id); err != nil {
			t.Errorf("ValidateVLANID(%d) = %v, want nil", id, err)
		}
	}
	for _, id := range []int{0, -1, 4095} {
		if err := ValidateVLANID(id); err == nil {
			t.Errorf("ValidateVLANID(%d) = nil, want error", id)
		}
	}
}

func TestSplitCommaSeparated(t *testing.T) {
	got := SplitCommaSeparated(" a, b ,, c ")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitCommaSeparated = %v, want %v", got, want)
	}
	if SplitCommaSeparated("") != nil {
		t.Error("empty input should return nil")
	}
}
