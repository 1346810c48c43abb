package spec

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gsconf-net/gsconf/pkg/model"
	"github.com/gsconf-net/gsconf/pkg/util"
)

func writeSpec(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "device.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const goodSpec = `
target: 192.0.2.10
username: admin
password: secret
model: gs1920
timeout: 45s
desired:
  vlans:
    100:
      name: mgmt
      tagged_ports: ["1", "2"]
    300:
      state: absent
  ports:
    "3":
      enabled: false
      pvid: 100
  syslog:
    192.0.2.9:
      port: 514
`

func TestLoad(t *testing.T) {
	doc, err := Load(writeSpec(t, goodSpec))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Target != "192.0.2.10" || doc.Username != "admin" {
		t.Errorf("connection = %+v", doc)
	}
	family, err := doc.Family()
	if err != nil || family != model.FamilyGS1920 {
		t.Errorf("family = %v, %v", family, err)
	}
	timeout, err := doc.TimeoutDuration()
	if err != nil || timeout != 45*time.Second {
		t.Errorf("timeout = %v, %v", timeout, err)
	}

	vlan := doc.Desired.Vlans[100]
	if vlan == nil || vlan.Name == nil || *vlan.Name != "mgmt" {
		t.Fatalf("vlan 100 = %+v", vlan)
	}
	if len(vlan.TaggedPorts) != 2 {
		t.Errorf("tagged = %v", vlan.TaggedPorts)
	}
	if doc.Desired.Vlans[300].State != model.PresenceAbsent {
		t.Errorf("vlan 300 state = %q", doc.Desired.Vlans[300].State)
	}

	port := doc.Desired.Ports["3"]
	if port == nil || port.Enabled == nil || *port.Enabled || port.PVID == nil || *port.PVID != 100 {
		t.Errorf("port 3 = %+v", port)
	}
	if port.Speed != nil {
		t.Error("omitted speed should stay nil")
	}
}

func TestLoadDefaultTimeout(t *testing.T) {
	doc, err := Load(writeSpec(t, "target: 192.0.2.10\nusername: admin\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	timeout, err := doc.TimeoutDuration()
	if err != nil || timeout != 30*time.Second {
		t.Errorf("timeout = %v, %v", timeout, err)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeSpec(t, `
target: 192.0.2.10
username: admin
desired:
  vlnas:
    100: {name: typo}
`))
	if err == nil {
		t.Fatal("misspelled key should be rejected")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing target", "username: admin\n"},
		{"missing username", "target: 192.0.2.10\n"},
		{"bad model", "target: a\nusername: b\nmodel: gs3700\n"},
		{"bad timeout", "target: a\nusername: b\ntimeout: fast\n"},
		{"bad vlan id", "target: a\nusername: b\ndesired:\n  vlans:\n    5000: {name: x}\n"},
		{"bad state", "target: a\nusername: b\ndesired:\n  vlans:\n    100: {state: gone}\n"},
		{"bad pvid", "target: a\nusername: b\ndesired:\n  ports:\n    \"1\": {pvid: 0}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeSpec(t, tt.doc))
			if !errors.Is(err, util.ErrValidationFailed) {
				t.Errorf("err = %v, want ErrValidationFailed", err)
			}
		})
	}
}
