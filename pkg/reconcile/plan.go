package reconcile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gsconf-net/gsconf/pkg/model"
	"github.com/gsconf-net/gsconf/pkg/transport"
	"github.com/gsconf-net/gsconf/pkg/util"
)

// Plan diffs the desired state against a snapshot and returns the
// operations that close the gap, already ordered for safe application:
// creations and updates run before deletions, and VLAN deletions run
// last so nothing they reference can still depend on them. An entity
// absent from the desired state is never touched; deletion always
// requires an explicit absent marker.
func Plan(snap *model.Snapshot, desired *model.DesiredState) ([]*Op, error) {
	p := &planner{
		snap:        snap,
		desired:     desired,
		vlanCreates: make(map[int]string),
		vlanAbsent:  make(map[int]bool),
		pvidOps:     make(map[string]*Op),
	}

	p.planVlans()
	// Trunk membership settles before per-port VLAN state so a port
	// joining a group is not concurrently repositioned by a PVID op.
	p.planTrunks()
	p.planPorts()
	p.planUsers()
	p.planSyslog()
	p.planNtp()
	p.planAAA()
	p.planSecurity()
	p.planMirrors()
	p.planSTP()

	if err := p.validation.Build(); err != nil {
		return nil, err
	}
	if err := p.resolveVlanDeletes(); err != nil {
		return nil, err
	}

	ops := make([]*Op, 0, len(p.creates)+len(p.updates)+len(p.deletes)+len(p.vlanDeletes))
	ops = append(ops, p.creates...)
	ops = append(ops, p.updates...)
	ops = append(ops, p.deletes...)
	ops = append(ops, p.vlanDeletes...)
	return ops, nil
}

type planner struct {
	snap       *model.Snapshot
	desired    *model.DesiredState
	validation util.ValidationBuilder

	creates     []*Op
	updates     []*Op
	deletes     []*Op
	vlanDeletes []*Op

	vlanCreates map[int]string // vid -> create op id
	vlanAbsent  map[int]bool
	pvidOps     map[string]*Op // port id -> pvid op
}

func (p *planner) planVlans() {
	for _, vid := range sortedIntKeys(p.desired.Vlans) {
		spec := p.desired.Vlans[vid]
		if err := util.ValidateVLANID(vid); err != nil {
			p.validation.AddErrorf("vlan %d: %v", vid, err)
			continue
		}
		current, exists := p.snap.Vlans[vid]

		if spec.State == model.PresenceAbsent {
			if vid == 1 {
				p.validation.AddErrorf("vlan 1: the default vlan cannot be removed")
				continue
			}
			p.vlanAbsent[vid] = true
			if !exists {
				continue
			}
			op := newOp(EntityVlan, KindDelete, strconv.Itoa(vid))
			op.Prev["name"] = current.Name
			p.vlanDeletes = append(p.vlanDeletes, op)
			continue
		}

		p.checkMemberPorts(vid, spec.TaggedPorts)
		p.checkMemberPorts(vid, spec.UntaggedPorts)
		for _, id := range overlap(spec.TaggedPorts, spec.UntaggedPorts) {
			p.validation.AddErrorf("vlan %d: port %s listed both tagged and untagged", vid, id)
		}

		if !exists {
			op := newOp(EntityVlan, KindCreate, strconv.Itoa(vid))
			name := fmt.Sprintf("VLAN%d", vid)
			if spec.Name != nil {
				name = *spec.Name
			}
			op.Fields["name"] = name
			if spec.TaggedPorts != nil {
				op.Fields["tagged_ports"] = portsField(spec.TaggedPorts)
			}
			if spec.UntaggedPorts != nil {
				op.Fields["untagged_ports"] = portsField(spec.UntaggedPorts)
			}
			p.creates = append(p.creates, op)
			p.vlanCreates[vid] = op.ID
			continue
		}

		op := newOp(EntityVlan, KindUpdate, strconv.Itoa(vid))
		if spec.Name != nil && *spec.Name != current.Name {
			op.set("name", *spec.Name, current.Name)
		}
		if spec.TaggedPorts != nil && !sameMembers(spec.TaggedPorts, current.TaggedPorts) {
			op.set("tagged_ports", portsField(spec.TaggedPorts), portsField(current.TaggedPorts))
		}
		if spec.UntaggedPorts != nil && !sameMembers(spec.UntaggedPorts, current.UntaggedPorts) {
			op.set("untagged_ports", portsField(spec.UntaggedPorts), portsField(current.UntaggedPorts))
		}
		if op.changed() {
			p.updates = append(p.updates, op)
		}
	}
}

func (p *planner) checkMemberPorts(vid int, members []string) {
	if len(p.snap.Ports) == 0 {
		return
	}
	for _, id := range members {
		if !p.snap.PortExists(id) {
			p.validation.AddErrorf("vlan %d: member port %s not present on device", vid, id)
		}
	}
}

func (p *planner) planPorts() {
	for _, id := range sortedStringKeys(p.desired.Ports) {
		spec := p.desired.Ports[id]
		current, exists := p.snap.Ports[id]
		if !exists {
			p.validation.AddErrorf("port %s not present on device", id)
			continue
		}

		op := newOp(EntityPort, KindUpdate, id)
		if spec.Enabled != nil && *spec.Enabled != current.Enabled {
			op.set("enabled", formatBool(*spec.Enabled), formatBool(current.Enabled))
		}
		if spec.Name != nil && *spec.Name != current.Name {
			op.set("name", *spec.Name, current.Name)
		}
		if spec.Speed != nil {
			if _, ok := transport.SpeedCodes[*spec.Speed]; !ok {
				p.validation.AddErrorf("port %s: unknown speed %q", id, *spec.Speed)
			} else if *spec.Speed != current.Speed {
				op.set("speed", *spec.Speed, current.Speed)
			}
		}
		if spec.Duplex != nil {
			if spec.Speed == nil {
				p.validation.AddErrorf("port %s: duplex requires speed", id)
			} else if !strings.HasSuffix(*spec.Speed, "-"+*spec.Duplex) && *spec.Speed != "auto" {
				p.validation.AddErrorf("port %s: duplex %q conflicts with speed %q", id, *spec.Duplex, *spec.Speed)
			}
		}
		if spec.FlowControl != nil && *spec.FlowControl != current.FlowControl {
			op.set("flow_control", formatBool(*spec.FlowControl), formatBool(current.FlowControl))
		}
		if op.changed() {
			p.updates = append(p.updates, op)
		}

		p.planPortVlan(id, spec, current)
	}
}

// planPortVlan diffs the fields living on the per-port VLAN page.
func (p *planner) planPortVlan(id string, spec *model.PortSpec, current *model.Port) {
	op := newOp(EntityPVID, KindUpdate, id)
	if spec.PVID != nil {
		vid := *spec.PVID
		if err := util.ValidateVLANID(vid); err != nil {
			p.validation.AddErrorf("port %s: pvid: %v", id, err)
		} else if p.vlanAbsent[vid] {
			p.validation.AddErrorf("port %s: pvid references vlan %d which is being removed", id, vid)
		} else if !p.snap.VlanExists(vid) && p.vlanCreates[vid] == "" {
			p.validation.AddErrorf("port %s: pvid references unknown vlan %d", id, vid)
		} else if vid != current.PVID {
			op.set("pvid", strconv.Itoa(vid), strconv.Itoa(current.PVID))
			if createID := p.vlanCreates[vid]; createID != "" {
				op.dependOn(createID)
			}
		}
	}
	if spec.VlanTrunking != nil && *spec.VlanTrunking != current.VlanTrunking {
		op.set("vlan_trunking", formatBool(*spec.VlanTrunking), formatBool(current.VlanTrunking))
	}
	if spec.IngressFiltering != nil && *spec.IngressFiltering != current.IngressFiltering {
		op.set("ingress_filtering", formatBool(*spec.IngressFiltering), formatBool(current.IngressFiltering))
	}
	if spec.AcceptableFrameType != nil {
		if _, ok := transport.FrameTypeCodes[*spec.AcceptableFrameType]; !ok {
			p.validation.AddErrorf("port %s: unknown acceptable frame type %q", id, *spec.AcceptableFrameType)
		} else if *spec.AcceptableFrameType != current.AcceptableFrameType {
			op.set("acceptable_frame_type", *spec.AcceptableFrameType, current.AcceptableFrameType)
		}
	}
	if op.changed() {
		p.updates = append(p.updates, op)
		p.pvidOps[id] = op
	}
}

func (p *planner) planTrunks() {
	// A port belongs to at most one group, counting groups the plan
	// does not touch.
	owner := make(map[string]string)
	for _, t := range p.snap.Trunks {
		spec, has := p.desired.Trunks[t.Group]
		if has && (spec.State == model.PresenceAbsent || spec.Members != nil) {
			continue
		}
		for _, m := range t.Members {
			owner[m] = t.Group
		}
	}

	for _, group := range sortedStringKeys(p.desired.Trunks) {
		spec := p.desired.Trunks[group]
		current, exists := p.snap.Trunks[group]

		if spec.State == model.PresenceAbsent {
			if !exists {
				continue
			}
			p.deletes = append(p.deletes, newOp(EntityTrunk, KindDelete, group))
			continue
		}

		for _, m := range spec.Members {
			if len(p.snap.Ports) > 0 && !p.snap.PortExists(m) {
				p.validation.AddErrorf("trunk %s: member port %s not present on device", group, m)
				continue
			}
			if prev, taken := owner[m]; taken && prev != group {
				p.validation.AddErrorf("trunk %s: port %s already belongs to trunk %s", group, m, prev)
				continue
			}
			owner[m] = group
		}

		kind := KindUpdate
		if !exists {
			kind = KindCreate
			current = &model.Trunk{Group: group}
		}
		op := newOp(EntityTrunk, kind, group)
		if spec.Enabled != nil && (kind == KindCreate || *spec.Enabled != current.Enabled) {
			op.set("enabled", formatBool(*spec.Enabled), formatBool(current.Enabled))
		}
		if spec.Members != nil && !sameMembers(spec.Members, current.Members) {
			op.set("members", portsField(spec.Members), portsField(current.Members))
		}
		// The aggregation page has no static/LACP toggle; groups run
		// whatever the firmware negotiates. Reject rather than drop.
		if spec.Mode != nil {
			p.validation.AddErrorf("trunk %s: mode is not configurable through the web interface", group)
		}
		if spec.LACPMode != nil {
			p.validation.AddErrorf("trunk %s: lacp_mode is not configurable through the web interface", group)
		}
		if spec.Criteria != nil && *spec.Criteria != current.Criteria {
			op.set("criteria", *spec.Criteria, current.Criteria)
		}
		if op.changed() {
			if kind == KindCreate {
				p.creates = append(p.creates, op)
			} else {
				p.updates = append(p.updates, op)
			}
		}
	}
}

func (p *planner) planUsers() {
	for _, name := range sortedStringKeys(p.desired.Users) {
		spec := p.desired.Users[name]
		current, exists := p.snap.Users[name]

		if spec.State == model.PresenceAbsent {
			if !exists {
				continue
			}
			p.deletes = append(p.deletes, newOp(EntityUser, KindDelete, name))
			continue
		}

		if !exists {
			if spec.Password == nil {
				p.validation.AddErrorf("user %s: creating an account requires a password", name)
				continue
			}
			op := newOp(EntityUser, KindCreate, name)
			op.Fields["password"] = *spec.Password
			if spec.Privilege != nil {
				op.Fields["privilege"] = *spec.Privilege
			}
			p.creates = append(p.creates, op)
			continue
		}

		op := newOp(EntityUser, KindUpdate, name)
		// Passwords cannot be read back, so a specified password is
		// always pushed.
		if spec.Password != nil {
			op.Fields["password"] = *spec.Password
		}
		if spec.Privilege != nil && *spec.Privilege != current.Privilege {
			op.set("privilege", *spec.Privilege, current.Privilege)
		}
		if op.changed() {
			p.updates = append(p.updates, op)
		}
	}
}

func (p *planner) planSyslog() {
	for _, addr := range sortedStringKeys(p.desired.Syslog) {
		spec := p.desired.Syslog[addr]
		current, exists := p.snap.Syslog[addr]

		if spec.State == model.PresenceAbsent {
			if !exists {
				continue
			}
			p.deletes = append(p.deletes, newOp(EntitySyslog, KindDelete, addr))
			continue
		}

		kind := KindUpdate
		if !exists {
			kind = KindCreate
			current = &model.SyslogServer{Address: addr, Port: 514}
			op := newOp(EntitySyslog, kind, addr)
			port := current.Port
			if spec.Port != nil {
				port = *spec.Port
			}
			op.Fields["port"] = strconv.Itoa(port)
			p.creates = append(p.creates, op)
			continue
		}

		op := newOp(EntitySyslog, kind, addr)
		if spec.Port != nil && *spec.Port != current.Port {
			op.set("port", strconv.Itoa(*spec.Port), strconv.Itoa(current.Port))
		}
		if op.changed() {
			p.updates = append(p.updates, op)
		}
	}
}

func (p *planner) planNtp() {
	spec := p.desired.Ntp
	if spec == nil {
		return
	}
	current := p.snap.Ntp
	if current == nil {
		current = &model.NtpConfig{}
	}
	op := newOp(EntityNTP, KindUpdate, "time")
	if spec.Servers != nil && !sameStrings(spec.Servers, current.Servers) {
		op.set("servers", strings.Join(spec.Servers, ","), strings.Join(current.Servers, ","))
	}
	if spec.Timezone != nil && *spec.Timezone != current.Timezone {
		op.set("timezone", *spec.Timezone, current.Timezone)
	}
	if op.changed() {
		p.updates = append(p.updates, op)
	}
}

func (p *planner) planAAA() {
	spec := p.desired.AAA
	if spec == nil {
		return
	}
	current := p.snap.AAA
	if current == nil {
		current = &model.AAAConfig{}
	}
	op := newOp(EntityAAA, KindUpdate, "auth")
	if spec.AuthenticationOrder != nil && !sameStrings(spec.AuthenticationOrder, current.AuthenticationOrder) {
		op.set("authentication_order",
			strings.Join(spec.AuthenticationOrder, ","),
			strings.Join(current.AuthenticationOrder, ","))
	}
	if spec.Radius != nil {
		diffAAAServer(op, "radius", spec.Radius, current.Radius)
	}
	if spec.Tacacs != nil {
		diffAAAServer(op, "tacacs", spec.Tacacs, current.Tacacs)
	}
	if op.changed() {
		p.updates = append(p.updates, op)
	}
}

func diffAAAServer(op *Op, prefix string, spec *model.AAAServerSpec, current *model.AAAServer) {
	if current == nil {
		current = &model.AAAServer{}
	}
	if spec.Address != current.Address {
		op.set(prefix+"_address", spec.Address, current.Address)
	}
	if spec.Port != nil && *spec.Port != current.Port {
		op.set(prefix+"_port", strconv.Itoa(*spec.Port), strconv.Itoa(current.Port))
	}
	// Shared secrets cannot be read back, so a specified secret is
	// always pushed.
	if spec.Secret != nil {
		op.Fields[prefix+"_secret"] = *spec.Secret
	}
}

func (p *planner) planSecurity() {
	spec := p.desired.Security
	if spec == nil {
		return
	}
	current := p.snap.Security
	if current == nil {
		current = &model.SecurityProfile{}
	}
	op := newOp(EntitySecurity, KindUpdate, "security")
	diffSettings(op, "port_security", spec.PortSecurity, current.PortSecurity)
	diffSettings(op, "dot1x", spec.Dot1x, current.Dot1x)
	diffSettings(op, "dhcp_snooping", spec.DHCPSnooping, current.DHCPSnooping)
	diffSettings(op, "arp_inspection", spec.ArpInspection, current.ArpInspection)
	if op.changed() {
		p.updates = append(p.updates, op)
	}
}

func diffSettings(op *Op, prefix string, desired, current map[string]string) {
	for _, k := range sortedStringKeys(desired) {
		if have, ok := current[k]; ok && have == desired[k] {
			continue
		}
		op.set(prefix+"."+k, desired[k], current[k])
	}
}

func (p *planner) planMirrors() {
	for _, id := range sortedIntKeys(p.desired.Mirrors) {
		spec := p.desired.Mirrors[id]
		current, exists := p.snap.Mirrors[id]

		if spec.State == model.PresenceAbsent {
			if !exists {
				continue
			}
			p.deletes = append(p.deletes, newOp(EntityMirror, KindDelete, strconv.Itoa(id)))
			continue
		}

		kind := KindCreate
		if exists {
			kind = KindUpdate
		} else {
			current = &model.MirrorSession{}
		}
		op := newOp(EntityMirror, kind, strconv.Itoa(id))
		if spec.Enabled != nil && (kind == KindCreate || *spec.Enabled != current.Enabled) {
			op.set("enabled", formatBool(*spec.Enabled), formatBool(current.Enabled))
		}
		if spec.MonitorPort != nil && (kind == KindCreate || *spec.MonitorPort != current.MonitorPort) {
			op.set("monitor_port", *spec.MonitorPort, current.MonitorPort)
		}
		if spec.SourcePorts != nil && (kind == KindCreate || !sameMembers(spec.SourcePorts, current.SourcePorts)) {
			op.set("source_ports", portsField(spec.SourcePorts), portsField(current.SourcePorts))
		}
		if spec.Direction != nil && (kind == KindCreate || *spec.Direction != current.Direction) {
			op.set("direction", *spec.Direction, current.Direction)
		}
		if op.changed() {
			if kind == KindCreate {
				p.creates = append(p.creates, op)
			} else {
				p.updates = append(p.updates, op)
			}
		}
	}
}

func (p *planner) planSTP() {
	spec := p.desired.SpanningTree
	if spec == nil {
		return
	}
	current := p.snap.STP
	if current == nil {
		current = &model.SpanningTreeConfig{}
	}
	op := newOp(EntitySTP, KindUpdate, "stp")
	if spec.Enabled != nil && *spec.Enabled != current.Enabled {
		op.set("enabled", formatBool(*spec.Enabled), formatBool(current.Enabled))
	}
	if spec.Mode != nil && *spec.Mode != current.Mode {
		op.set("mode", *spec.Mode, current.Mode)
	}
	if op.changed() {
		p.updates = append(p.updates, op)
	}
}

// resolveVlanDeletes wires each VLAN deletion behind the operations
// that move PVIDs off it, and rejects the plan when a reference
// survives. Tagged and untagged membership dies with the VLAN row;
// only PVID assignments block.
func (p *planner) resolveVlanDeletes() error {
	for _, del := range p.vlanDeletes {
		vid, _ := strconv.Atoi(del.Key)
		var blocked []string
		for _, id := range sortedStringKeys(p.snap.Ports) {
			port := p.snap.Ports[id]
			if port.PVID != vid {
				continue
			}
			if op, ok := p.pvidOps[id]; ok && op.Fields["pvid"] != "" && op.Fields["pvid"] != del.Key {
				del.dependOn(op.ID)
				continue
			}
			blocked = append(blocked, fmt.Sprintf("port %s (pvid)", id))
		}
		if len(blocked) > 0 {
			return util.NewDependencyError(fmt.Sprintf("vlan %d deletion", vid), blocked...)
		}
	}
	return nil
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}

// portsField renders a port set in compact range notation when all ids
// are numeric, the notation the device pages themselves use.
func portsField(ids []string) string {
	nums := make([]int, 0, len(ids))
	for _, id := range ids {
		n, err := strconv.Atoi(id)
		if err != nil {
			sorted := append([]string(nil), ids...)
			sort.Strings(sorted)
			return strings.Join(sorted, ",")
		}
		nums = append(nums, n)
	}
	return util.CompactRange(nums)
}

func overlap(a, b []string) []string {
	inA := make(map[string]bool, len(a))
	for _, s := range a {
		inA[s] = true
	}
	var both []string
	for _, s := range b {
		if inA[s] {
			both = append(both, s)
		}
	}
	sort.Strings(both)
	return both
}

func sameMembers(a, b []string) bool {
	return portsField(a) == portsField(b)
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sortedIntKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedStringKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
