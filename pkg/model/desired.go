package model

import (
	"sort"
	"strconv"
)

// Presence is the requested lifecycle state of an entity. Entities omitted
// from the desired state entirely are never deleted; deletion requires an
// explicit PresenceAbsent.
type Presence string

const (
	PresencePresent Presence = "present"
	PresenceAbsent  Presence = "absent"
)

// Desired-state records use pointer fields: nil means "leave the device
// value untouched". Slices follow the same rule with nil (omitted) vs.
// empty (clear).

// PortSpec is the desired configuration of one port.
type PortSpec struct {
	Enabled             *bool   `yaml:"enabled"`
	Name                *string `yaml:"name"`
	Speed               *string `yaml:"speed"`
	Duplex              *string `yaml:"duplex"`
	FlowControl         *bool   `yaml:"flow_control"`
	PVID                *int    `yaml:"pvid"`
	VlanTrunking        *bool   `yaml:"vlan_trunking"`
	IngressFiltering    *bool   `yaml:"ingress_filtering"`
	AcceptableFrameType *string `yaml:"acceptable_frame_type"`
}

// VlanSpec is the desired configuration of one VLAN.
type VlanSpec struct {
	State         Presence `yaml:"state"`
	Name          *string  `yaml:"name"`
	TaggedPorts   []string `yaml:"tagged_ports"`
	UntaggedPorts []string `yaml:"untagged_ports"`
}

// TrunkSpec is the desired configuration of one trunk group.
type TrunkSpec struct {
	State    Presence `yaml:"state"`
	Enabled  *bool    `yaml:"enabled"`
	Members  []string `yaml:"members"`
	Mode     *string  `yaml:"mode"`
	LACPMode *string  `yaml:"lacp_mode"`
	Criteria *string  `yaml:"criteria"`
}

// UserSpec is the desired configuration of one management account.
type UserSpec struct {
	State     Presence `yaml:"state"`
	Password  *string  `yaml:"password"`
	Privilege *string  `yaml:"privilege"`
}

// SyslogSpec is the desired configuration of one syslog destination.
// The pages expose no per-server enable toggle; logging is switched
// globally.
type SyslogSpec struct {
	State Presence `yaml:"state"`
	Port  *int     `yaml:"port"`
}

// NtpSpec is the desired time configuration.
type NtpSpec struct {
	Servers  []string `yaml:"servers"`
	Timezone *string  `yaml:"timezone"`
}

// AAAServerSpec is a desired remote authentication server.
type AAAServerSpec struct {
	Address string  `yaml:"address"`
	Port    *int    `yaml:"port"`
	Secret  *string `yaml:"secret"`
}

// AAASpec is the desired authentication configuration.
type AAASpec struct {
	AuthenticationOrder []string       `yaml:"authentication_order"`
	Radius              *AAAServerSpec `yaml:"radius"`
	Tacacs              *AAAServerSpec `yaml:"tacacs"`
}

// SecuritySpec carries flat per-feature settings.
type SecuritySpec struct {
	PortSecurity  map[string]string `yaml:"port_security"`
	Dot1x         map[string]string `yaml:"dot1x"`
	DHCPSnooping  map[string]string `yaml:"dhcp_snooping"`
	ArpInspection map[string]string `yaml:"arp_inspection"`
}

// MirrorSpec is the desired configuration of one mirror session.
type MirrorSpec struct {
	State       Presence `yaml:"state"`
	Enabled     *bool    `yaml:"enabled"`
	MonitorPort *string  `yaml:"monitor_port"`
	SourcePorts []string `yaml:"source_ports"`
	Direction   *string  `yaml:"direction"`
}

// StpSpec is the desired spanning-tree configuration.
type StpSpec struct {
	Enabled *bool   `yaml:"enabled"`
	Mode    *string `yaml:"mode"`
}

// DesiredState is the declarative input to reconciliation. It is
// intentionally partial: anything not mentioned is left as-is on the device.
type DesiredState struct {
	Ports        map[string]*PortSpec   `yaml:"ports"`
	Vlans        map[int]*VlanSpec      `yaml:"vlans"`
	Trunks       map[string]*TrunkSpec  `yaml:"trunks"`
	Users        map[string]*UserSpec   `yaml:"users"`
	Syslog       map[string]*SyslogSpec `yaml:"syslog"`
	Ntp          *NtpSpec               `yaml:"ntp"`
	AAA          *AAASpec               `yaml:"aaa"`
	Security     *SecuritySpec          `yaml:"security"`
	Mirrors      map[int]*MirrorSpec    `yaml:"mirror"`
	SpanningTree *StpSpec               `yaml:"spanning_tree"`
}

// Sections returns the fact sections reconciliation of this desired state
// needs, so gathering can skip unneeded queries.
func (d *DesiredState) Sections() []Section {
	sections := []Section{SectionSystem}
	if len(d.Ports) > 0 || len(d.Vlans) > 0 {
		sections = append(sections, SectionPorts, SectionVlans)
	}
	if len(d.Trunks) > 0 {
		sections = append(sections, SectionTrunks)
		// Trunk membership interacts with per-port VLAN state.
		sections = appendSectionOnce(sections, SectionPorts)
	}
	if len(d.Users) > 0 {
		sections = append(sections, SectionUsers)
	}
	if len(d.Syslog) > 0 {
		sections = append(sections, SectionSyslog)
	}
	if d.Ntp != nil {
		sections = append(sections, SectionNTP)
	}
	return sections
}

func appendSectionOnce(sections []Section, s Section) []Section {
	for _, have := range sections {
		if have == s {
			return sections
		}
	}
	return append(sections, s)
}

// SortPortIDs orders port identifiers numerically when possible, falling
// back to lexical order for non-numeric ids.
func SortPortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, aerr := strconv.Atoi(ids[i])
		b, berr := strconv.Atoi(ids[j])
		if aerr == nil && berr == nil {
			return a < b
		}
		if aerr == nil {
			return true
		}
		if berr == nil {
			return false
		}
		return ids[i] < ids[j]
	})
}
