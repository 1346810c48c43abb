package firmware

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gsconf-net/gsconf/pkg/model"
	"github.com/gsconf-net/gsconf/pkg/util"
)

func TestDefaultGates(t *testing.T) {
	gates := DefaultGates()

	tests := []struct {
		feature string
		family  model.Family
		fw      string
		wantErr bool
	}{
		{FeatureVlan, model.FamilyGS1900, "V2.40", false},
		{FeaturePort, model.FamilyGS1920, "V4.50", false},
		{FeatureVlanTrunking, model.FamilyGS1900, "V1.15", true},
		{FeatureVlanTrunking, model.FamilyGS1900, "V1.16", false},
		{FeatureVlanTrunking, model.FamilyGS1920, "V4.50", false},
		{FeatureTrunk, model.FamilyGS1920, "V4.50", false},
		{FeatureTrunk, model.FamilyGS1900, "V2.80", true},
		{FeatureTrunk, model.FamilyGS1915, "V1.00", true},
		{FeatureSyslog, model.FamilyGS1915, "V1.00", true},
		{FeatureNTP, model.FamilyGS1920, "V4.50", false},
		{FeatureUser, model.FamilyGS1900, "V2.40", true},
		{FeatureUser, model.FamilyGS1920, "V4.50", true},
		{FeatureMirror, model.FamilyGS1920, "V4.70", true},
		{FeatureAAA, model.FamilyGS1900, "V2.80", true},
	}
	for _, tt := range tests {
		err := gates.Check(tt.feature, tt.family, Parse(tt.fw))
		if (err != nil) != tt.wantErr {
			t.Errorf("Check(%s, %s, %s): err = %v, wantErr %v",
				tt.feature, tt.family, tt.fw, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, util.ErrUnsupportedFeature) {
			t.Errorf("Check(%s, %s, %s): error does not wrap ErrUnsupportedFeature",
				tt.feature, tt.family, tt.fw)
		}
	}
}

func TestCheckNamesMinimum(t *testing.T) {
	gates := DefaultGates()
	err := gates.Check(FeatureVlanTrunking, model.FamilyGS1900, Parse("V1.15"))
	if err == nil {
		t.Fatal("expected a gate rejection")
	}
	var ufe *util.UnsupportedFeatureError
	if !errors.As(err, &ufe) {
		t.Fatalf("error type = %T, want *util.UnsupportedFeatureError", err)
	}
	if ufe.Minimum != "V1.16" || ufe.Detected != "V1.15" {
		t.Errorf("gate error = %+v, want minimum V1.16 detected V1.15", ufe)
	}
	if !strings.Contains(err.Error(), "V1.16") || !strings.Contains(err.Error(), "V1.15") {
		t.Errorf("gate message %q should name both versions", err.Error())
	}
}

func TestCheckUnknownFeature(t *testing.T) {
	gates := DefaultGates()
	if err := gates.Check("loopback-detection", model.FamilyGS1900, Parse("V2.40")); err != nil {
		t.Errorf("unlisted feature should pass: %v", err)
	}
}

func TestCheckZeroVersionBelowMinimum(t *testing.T) {
	gates := DefaultGates()
	if err := gates.Check(FeatureVlanTrunking, model.FamilyGS1900, Version{}); err == nil {
		t.Error("undetected firmware should not satisfy a minimum")
	}
}

func TestLoadGates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gates.yaml")
	doc := `
mirror:
  gs1920:
    minimum: V4.80
trunk:
  gs1915:
    minimum: V1.20
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	gates, err := LoadGates(path)
	if err != nil {
		t.Fatalf("LoadGates: %v", err)
	}

	// The override replaces the whole mirror entry, so gs1920 gains a
	// minimum and other families lose their default block.
	if err := gates.Check(FeatureMirror, model.FamilyGS1920, Parse("V4.80")); err != nil {
		t.Errorf("mirror on V4.80 should pass after override: %v", err)
	}
	if err := gates.Check(FeatureMirror, model.FamilyGS1920, Parse("V4.70")); err == nil {
		t.Error("mirror on V4.70 should stay gated")
	}
	if err := gates.Check(FeatureTrunk, model.FamilyGS1915, Parse("V1.20")); err != nil {
		t.Errorf("trunk on gs1915 V1.20 should pass after override: %v", err)
	}

	// Untouched defaults survive the merge.
	if err := gates.Check(FeatureVlanTrunking, model.FamilyGS1900, Parse("V1.15")); err == nil {
		t.Error("default vlan-trunking gate should survive the override")
	}
}

func TestLoadGatesMissingFile(t *testing.T) {
	if _, err := LoadGates(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
