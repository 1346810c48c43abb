package model

import "time"

// DeviceIdentity describes a detected device. It is cached once per
// connection lifetime and never re-queried mid-run.
type DeviceIdentity struct {
	Family     Family
	Model      string // hardware variant string, e.g. "GS1920-24v2"
	Hostname   string
	MACAddress string
	Firmware   string // raw firmware string, e.g. "V4.70(ABMJ.2)"
	DetectedAt time.Time
}

// Port is the canonical state of one switch port. The identifier is the
// stable key the device uses on its pages (decimal for these families, but
// treated as opaque).
type Port struct {
	ID          string
	Enabled     bool
	Name        string // port description
	Speed       string // "auto", "1g-full", "100m-half", ...
	Duplex      string
	FlowControl bool
	LinkStatus  string // operational, read-only
	PVID        int

	// Per-port VLAN knobs from the VLAN port page.
	VlanTrunking        bool
	IngressFiltering    bool
	AcceptableFrameType string // "all", "tagged", "untagged"
}

// Vlan is the canonical state of one 802.1Q VLAN. A port never appears in
// both membership lists of the same VLAN.
type Vlan struct {
	ID            int
	Name          string
	Active        bool
	TaggedPorts   []string
	UntaggedPorts []string

	// RowID is the page row handle deletions must address on this
	// device. The session-form families key rows by table position, not
	// by VLAN id, so the handle from the last gather travels with the
	// entry. Opaque; empty on families that delete by id.
	RowID string
}

// Trunk is a link-aggregation group. Member sets are disjoint across
// groups. The web pages expose no static/LACP mode toggle, so the
// group carries only what they render.
type Trunk struct {
	Group    string // group identifier, e.g. "T1"
	Enabled  bool
	Members  []string
	Criteria string // load-balance criteria, e.g. "src-dst-mac"
}

// User is a management account on the device.
type User struct {
	Username  string
	Privilege string // "admin", "user", "guest"
}

// SyslogServer is one remote log destination.
type SyslogServer struct {
	Address string
	Port    int
	Enabled bool

	// RowID is the page row handle for deletion, as for Vlan.RowID.
	RowID string
}

// NtpConfig is the device's time synchronization configuration.
type NtpConfig struct {
	Servers  []string
	Timezone string
}

// AAAServer is a remote authentication server entry.
type AAAServer struct {
	Address string
	Port    int
}

// AAAConfig is the authentication configuration.
type AAAConfig struct {
	AuthenticationOrder []string // subset of "local", "radius", "tacacs"
	Radius              *AAAServer
	Tacacs              *AAAServer
}

// SecurityProfile groups the per-feature security settings the web UI
// exposes as flat key/value forms.
type SecurityProfile struct {
	PortSecurity  map[string]string
	Dot1x         map[string]string
	DHCPSnooping  map[string]string
	ArpInspection map[string]string
}

// MirrorSession is one port-mirroring session.
type MirrorSession struct {
	ID          int
	Enabled     bool
	MonitorPort string
	SourcePorts []string
	Direction   string // "ingress", "egress", "both"
}

// SpanningTreeConfig is the global spanning-tree state.
type SpanningTreeConfig struct {
	Enabled bool
	Mode    string // "stp", "rstp", "mstp"
}

// Section names a gatherable slice of device state.
type Section string

const (
	SectionSystem Section = "system"
	SectionPorts  Section = "ports"
	SectionVlans  Section = "vlans"
	SectionTrunks Section = "trunks"
	SectionUsers  Section = "users"
	SectionSyslog Section = "syslog"
	SectionNTP    Section = "ntp"
)

// AllSections lists every gatherable section.
func AllSections() []Section {
	return []Section{
		SectionSystem, SectionPorts, SectionVlans, SectionTrunks,
		SectionUsers, SectionSyslog, SectionNTP,
	}
}

// Snapshot is an immutable view of device state produced by the fact
// gatherer. Mutation happens only by replacing the snapshot after a
// successful apply.
type Snapshot struct {
	Identity   *DeviceIdentity
	Ports      map[string]*Port
	Vlans      map[int]*Vlan
	Trunks     map[string]*Trunk
	Users      map[string]*User
	Syslog     map[string]*SyslogServer
	Ntp        *NtpConfig
	AAA        *AAAConfig
	Security   *SecurityProfile
	Mirrors    map[int]*MirrorSession
	STP        *SpanningTreeConfig
	GatheredAt time.Time

	// ParseWarnings records fields that degraded to zero values during
	// gathering. Never fatal.
	ParseWarnings []string
}

// NewSnapshot returns an empty snapshot with initialized maps.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Ports:      make(map[string]*Port),
		Vlans:      make(map[int]*Vlan),
		Trunks:     make(map[string]*Trunk),
		Users:      make(map[string]*User),
		Syslog:     make(map[string]*SyslogServer),
		Mirrors:    make(map[int]*MirrorSession),
		GatheredAt: time.Now(),
	}
}

// VlanExists reports whether the snapshot contains the VLAN.
func (s *Snapshot) VlanExists(id int) bool {
	_, ok := s.Vlans[id]
	return ok
}

// PortExists reports whether the snapshot contains the port.
func (s *Snapshot) PortExists(id string) bool {
	_, ok := s.Ports[id]
	return ok
}
