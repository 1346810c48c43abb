package firmware

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gsconf-net/gsconf/pkg/model"
	"github.com/gsconf-net/gsconf/pkg/util"
)

// Feature names gated by the table. These are coarse operation groups,
// not wire pages: one reconcile operation maps to exactly one feature.
const (
	FeatureVlan         = "vlan"
	FeaturePort         = "port"
	FeaturePVID         = "pvid"
	FeatureVlanTrunking = "vlan-trunking"
	FeatureTrunk        = "trunk"
	FeatureUser         = "user"
	FeatureSyslog       = "syslog"
	FeatureNTP          = "ntp"
	FeatureAAA          = "aaa"
	FeatureSecurity     = "security"
	FeatureMirror       = "mirror"
	FeatureSpanningTree = "spanning-tree"
)

// Requirement is one family's gate for a feature. Unsupported wins over
// Minimum; an empty Requirement means the feature is available on every
// firmware the family ships.
type Requirement struct {
	Unsupported bool   `yaml:"unsupported,omitempty"`
	Minimum     string `yaml:"minimum,omitempty"`
}

// GateTable maps feature name to per-family requirements. It is plain
// configuration data so new firmware releases can be accommodated with
// a YAML override instead of a rebuild.
type GateTable map[string]map[model.Family]Requirement

// DefaultGates returns the gate table for the firmware lines these
// families ship today. Management over the web forms is narrower than
// the switch itself: several subsystems only expose their configuration
// through the serial console or SNMP.
func DefaultGates() GateTable {
	all := func(r Requirement) map[model.Family]Requirement {
		return map[model.Family]Requirement{
			model.FamilyGS1900: r,
			model.FamilyGS1915: r,
			model.FamilyGS1920: r,
		}
	}
	only1920 := map[model.Family]Requirement{
		model.FamilyGS1900: {Unsupported: true},
		model.FamilyGS1915: {Unsupported: true},
	}
	return GateTable{
		FeatureVlan: {},
		FeaturePort: {},
		FeaturePVID: {},
		// The trunking checkbox appeared on the GS1900 PVID form in
		// the V1.16 firmware line.
		FeatureVlanTrunking: {
			model.FamilyGS1900: {Minimum: "V1.16"},
		},
		FeatureTrunk:  only1920,
		FeatureSyslog: only1920,
		FeatureNTP:    only1920,
		// Account management posts are rejected by all three web UIs;
		// accounts are console or SNMP territory.
		FeatureUser:         all(Requirement{Unsupported: true}),
		FeatureAAA:          all(Requirement{Unsupported: true}),
		FeatureSecurity:     all(Requirement{Unsupported: true}),
		FeatureMirror:       all(Requirement{Unsupported: true}),
		FeatureSpanningTree: all(Requirement{Unsupported: true}),
	}
}

// LoadGates reads a YAML gate table and merges it over the defaults.
// Entries in the file replace the default entry for that feature.
func LoadGates(path string) (GateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading gate table: %w", err)
	}
	var override GateTable
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parsing gate table %s: %w", path, err)
	}
	table := DefaultGates()
	for feature, families := range override {
		table[feature] = families
	}
	return table, nil
}

// Check returns nil when feature is available on family at the detected
// firmware, or an UnsupportedFeatureError describing the gate.
func (t GateTable) Check(feature string, family model.Family, detected Version) error {
	families, ok := t[feature]
	if !ok {
		return nil
	}
	req, ok := families[family]
	if !ok {
		return nil
	}
	if req.Unsupported {
		return &util.UnsupportedFeatureError{
			Feature: feature,
			Family:  string(family),
		}
	}
	if req.Minimum == "" {
		return nil
	}
	min := Parse(req.Minimum)
	if detected.IsZero() || !detected.AtLeast(min) {
		return &util.UnsupportedFeatureError{
			Feature:  feature,
			Family:   string(family),
			Minimum:  req.Minimum,
			Detected: detected.Raw,
		}
	}
	return nil
}
