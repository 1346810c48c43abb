// Package spec loads declarative device documents from YAML. A
// document names one device and the desired slice of its configuration;
// anything left out of the desired block is never touched on the
// device.
package spec

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gsconf-net/gsconf/pkg/model"
	"github.com/gsconf-net/gsconf/pkg/util"
)

// Document is one device plus its desired state.
type Document struct {
	Target   string `yaml:"target"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Model    string `yaml:"model"`
	UseTLS   bool   `yaml:"use_tls"`
	Insecure bool   `yaml:"insecure"`
	Timeout  string `yaml:"timeout"`

	// GatesFile optionally overrides the built-in feature gate table.
	GatesFile string `yaml:"gates_file"`

	Desired model.DesiredState `yaml:"desired"`
}

// Load reads and validates a document. Unknown keys are rejected so a
// typoed field name cannot silently drop configuration.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening spec: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// TimeoutDuration parses the document timeout, defaulting to 30s.
func (d *Document) TimeoutDuration() (time.Duration, error) {
	if d.Timeout == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(d.Timeout)
}

// Family returns the configured model hint, if any.
func (d *Document) Family() (model.Family, error) {
	if d.Model == "" {
		return "", nil
	}
	return model.ParseFamily(d.Model)
}

// Validate checks the document for problems planning would otherwise
// hit halfway through a run.
func (d *Document) Validate() error {
	var v util.ValidationBuilder
	v.Add(d.Target != "", "target is required")
	v.Add(d.Username != "", "username is required")

	if d.Model != "" {
		if _, err := model.ParseFamily(d.Model); err != nil {
			v.AddErrorf("model: %v", err)
		}
	}
	if d.Timeout != "" {
		if _, err := time.ParseDuration(d.Timeout); err != nil {
			v.AddErrorf("timeout: %v", err)
		}
	}

	for vid, spec := range d.Desired.Vlans {
		if err := util.ValidateVLANID(vid); err != nil {
			v.AddErrorf("vlans: %v", err)
		}
		validatePresence(&v, fmt.Sprintf("vlan %d", vid), spec.State)
	}
	for id, spec := range d.Desired.Ports {
		if id == "" {
			v.AddErrorf("ports: empty port id")
		}
		if spec.PVID != nil {
			if err := util.ValidateVLANID(*spec.PVID); err != nil {
				v.AddErrorf("port %s: pvid: %v", id, err)
			}
		}
	}
	for group, spec := range d.Desired.Trunks {
		validatePresence(&v, "trunk "+group, spec.State)
	}
	for name, spec := range d.Desired.Users {
		validatePresence(&v, "user "+name, spec.State)
	}
	for addr, spec := range d.Desired.Syslog {
		validatePresence(&v, "syslog "+addr, spec.State)
	}
	return v.Build()
}

func validatePresence(v *util.ValidationBuilder, what string, state model.Presence) {
	switch state {
	case "", model.PresencePresent, model.PresenceAbsent:
	default:
		v.AddErrorf("%s: invalid state %q", what, state)
	}
}
