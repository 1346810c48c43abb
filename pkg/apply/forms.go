package apply

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gsconf-net/gsconf/pkg/facts"
	"github.com/gsconf-net/gsconf/pkg/model"
	"github.com/gsconf-net/gsconf/pkg/reconcile"
	"github.com/gsconf-net/gsconf/pkg/transport"
	"github.com/gsconf-net/gsconf/pkg/util"
)

// renderOp turns a planned operation into the form submissions that
// realize it on the given family. Operations touching multi-row pages
// re-read the page and write the whole form back with only the target
// row changed, so untouched rows keep their device values; posting a
// partial form would reset every absent checkbox.
func renderOp(ctx context.Context, adapter transport.Adapter, snap *model.Snapshot, op *reconcile.Op) ([]transport.Form, error) {
	switch op.Entity {
	case reconcile.EntityVlan:
		return renderVlan(ctx, adapter, snap, op)
	case reconcile.EntityPort:
		return renderPort(ctx, adapter, op)
	case reconcile.EntityPVID:
		return renderPortVlan(ctx, adapter, op)
	case reconcile.EntityTrunk:
		return renderTrunk(ctx, adapter, snap, op)
	case reconcile.EntitySyslog:
		return renderSyslog(snap, op)
	case reconcile.EntityNTP:
		return renderNtp(ctx, adapter, snap, op)
	default:
		return nil, fmt.Errorf("%s: %w", op.Entity, util.ErrUnsupportedFeature)
	}
}

// rangeField renders port ids in the range notation the forms expect.
func rangeField(ids []string) string {
	nums := make([]int, 0, len(ids))
	for _, id := range ids {
		n, err := strconv.Atoi(id)
		if err != nil {
			return strings.Join(ids, ",")
		}
		nums = append(nums, n)
	}
	return util.CompactRange(nums)
}

func renderVlan(ctx context.Context, adapter transport.Adapter, snap *model.Snapshot, op *reconcile.Op) ([]transport.Form, error) {
	current := snap.Vlans[atoi(op.Key)]
	switch adapter.Family() {
	case model.FamilyGS1900:
		return renderVlanGS1900(ctx, adapter, current, op)
	case model.FamilyGS1915:
		return renderVlanGS1915(snap, current, op)
	default:
		return renderVlanGS1920(snap, current, op)
	}
}

// renderVlanGS1900 posts the add form, then realizes untagged
// membership as per-port PVID moves; the CGI dialect has no membership
// columns of its own, and tagged membership has no page at all.
func renderVlanGS1900(ctx context.Context, adapter transport.Adapter, current *model.Vlan, op *reconcile.Op) ([]transport.Form, error) {
	if op.Kind == reconcile.KindDelete {
		return []transport.Form{{
			Page:   transport.PageVlans,
			Action: "1282",
			Fields: []transport.Field{
				{Name: "vid", Value: op.Key},
				{Name: "action", Value: "delete"},
			},
		}}, nil
	}
	if tagged := vlanField(op, nil, "tagged_ports"); tagged != "" {
		return nil, fmt.Errorf("vlan %s: tagged membership on %s: %w",
			op.Key, model.FamilyGS1900, util.ErrUnsupportedFeature)
	}
	forms := []transport.Form{{
		Page:   transport.PageVlans,
		Source: "1284",
		Action: "1285",
		Fields: []transport.Field{
			{Name: "vlanlist", Value: op.Key},
			{Name: "name", Value: vlanField(op, current, "name")},
			{Name: "vlanAction", Value: "0"},
		},
	}}

	members, ok := op.Fields["untagged_ports"]
	if !ok {
		return forms, nil
	}
	ids, err := util.ExpandRange(members)
	if err != nil {
		return nil, fmt.Errorf("vlan %s: bad member range %q", op.Key, members)
	}
	ports, err := freshPorts(ctx, adapter, model.FamilyGS1900)
	if err != nil {
		return nil, err
	}
	vid := atoi(op.Key)
	for _, n := range ids {
		id := strconv.Itoa(n)
		target, ok := ports[id]
		if !ok {
			return nil, fmt.Errorf("vlan %s: member port %s vanished from the device", op.Key, id)
		}
		if target.PVID == vid {
			continue
		}
		target.PVID = vid
		forms = append(forms, gs1900PortVlanForm(target))
	}
	return forms, nil
}

func renderVlanGS1915(snap *model.Snapshot, current *model.Vlan, op *reconcile.Op) ([]transport.Form, error) {
	if op.Kind == reconcile.KindDelete {
		if current == nil || current.RowID == "" {
			return nil, fmt.Errorf("vlan %s: no row handle for deletion", op.Key)
		}
		return []transport.Form{{
			Page:   transport.PageVlans,
			Action: "/Forms/rpvlantag_1",
			Fields: []transport.Field{
				{Name: "rpvlantag_ChkDel", Value: "?" + current.RowID},
				{Name: "rpvlantag_HidBtnID", Value: "2"},
				{Name: "rpvlantag_HidEditMode", Value: "0"},
				{Name: "rpvlantag_HidSelectedIndex", Value: "0"},
				{Name: "rpvlantag_HidBtnNum", Value: "0"},
				{Name: "rpvlantag_HidOldSlot", Value: "0"},
			},
		}}, nil
	}
	tagged, untagged, err := vlanMembership(op, current)
	if err != nil {
		return nil, err
	}
	if len(snap.Ports) == 0 {
		return nil, fmt.Errorf("vlan %s: port inventory required to render membership", op.Key)
	}
	form := transport.Form{
		Page:   transport.PageVlans,
		Action: "/Forms/rpvlantag_1",
		Fields: []transport.Field{
			{Name: "rpvlantag_ChkActive", Value: "on"},
			{Name: "rpvlantag_IptName", Value: vlanField(op, current, "name")},
			{Name: "rpvlantag_IptGroupID", Value: op.Key},
			{Name: "rpvlantag_HidBtnID", Value: "1"},
			{Name: "rpvlantag_HidEditMode", Value: "0"},
			{Name: "rpvlantag_HidSelectedIndex", Value: "0"},
			{Name: "rpvlantag_HidBtnNum", Value: "0"},
			{Name: "rpvlantag_HidOldSlot", Value: "0"},
		},
	}
	for _, id := range sortedPortIDs(snap.Ports) {
		switch {
		case tagged[id]:
			form.Fields = append(form.Fields,
				transport.Field{Name: "rpvlantag_RpgControl?" + id, Value: "1"},
				transport.Field{Name: "rpvlantag_ChkTagging", Value: "?" + id})
		case untagged[id]:
			form.Fields = append(form.Fields,
				transport.Field{Name: "rpvlantag_RpgControl?" + id, Value: "1"})
		default:
			form.Fields = append(form.Fields,
				transport.Field{Name: "rpvlantag_RpgControl?" + id, Value: "0"})
		}
	}
	return []transport.Form{form}, nil
}

func renderVlanGS1920(snap *model.Snapshot, current *model.Vlan, op *reconcile.Op) ([]transport.Form, error) {
	if op.Kind == reconcile.KindDelete {
		if current == nil || current.RowID == "" {
			return nil, fmt.Errorf("vlan %s: no row handle for deletion", op.Key)
		}
		// Deletion is a two-step dialog: select the row, then confirm.
		return []transport.Form{
			{
				Page:   transport.PageVlans,
				Action: "/Forms/rpVlantag_1",
				Fields: []transport.Field{
					{Name: "rpVlantag_Chk_TabDel", Value: "?" + current.RowID},
					{Name: "rpVlantag_HidBtn_IndexID", Value: current.RowID},
					{Name: "rpVlantag_HidBtn_NumID", Value: "4"},
				},
			},
			{
				Page:   transport.PageVlans,
				Action: "/Forms/rpVlantag_1",
				Fields: []transport.Field{
					{Name: "rpVlantag_Chk_TabDel", Value: "?" + current.RowID},
					{Name: "rpVlantag_HidBtn_IndexID", Value: current.RowID},
					{Name: "rpVlantag_HidBtn_NumID", Value: "7"},
				},
			},
		}, nil
	}
	tagged, untagged, err := vlanMembership(op, current)
	if err != nil {
		return nil, err
	}
	if len(snap.Ports) == 0 {
		return nil, fmt.Errorf("vlan %s: port inventory required to render membership", op.Key)
	}
	// The settings post only lands when the toggle dialog is open.
	forms := []transport.Form{{
		Page:   transport.PageVlans,
		Action: "/Forms/rpVlantag_1",
		Fields: []transport.Field{
			{Name: "rpVlantag_HidBtn_IndexID", Value: "0"},
			{Name: "rpVlantag_HidBtn_NumID", Value: "2"},
		},
	}}
	form := transport.Form{
		Page:   transport.PageVlans,
		Action: "/Forms/rpVlantag_1",
		Fields: []transport.Field{
			{Name: "rpVlantag_Toggle_Chk_Active", Value: "on"},
			{Name: "rpVlantag_Toggle_Ipt_Name", Value: vlanField(op, current, "name")},
			{Name: "rpVlantag_Toggle_Ipt_VlanGroupID", Value: op.Key},
			{Name: "rpVlantag_HidBtn_IndexID", Value: "0"},
			{Name: "rpVlantag_HidBtn_NumID", Value: "5"},
		},
	}
	for _, id := range sortedPortIDs(snap.Ports) {
		switch {
		case tagged[id]:
			form.Fields = append(form.Fields,
				transport.Field{Name: "rpVlantag_Toggle_Rdo_Control?" + id, Value: "1"},
				transport.Field{Name: "rpVlantag_Toggle_Chk_Tagging", Value: "?" + id})
		case untagged[id]:
			form.Fields = append(form.Fields,
				transport.Field{Name: "rpVlantag_Toggle_Rdo_Control?" + id, Value: "1"})
		default:
			form.Fields = append(form.Fields,
				transport.Field{Name: "rpVlantag_Toggle_Rdo_Control?" + id, Value: "0"})
		}
	}
	return append(forms, form), nil
}

// vlanField resolves a VLAN form value from the op with fallback to the
// gathered row.
func vlanField(op *reconcile.Op, current *model.Vlan, field string) string {
	if v, ok := op.Fields[field]; ok {
		return v
	}
	if current == nil {
		return ""
	}
	switch field {
	case "name":
		return current.Name
	case "tagged_ports":
		return rangeField(current.TaggedPorts)
	case "untagged_ports":
		return rangeField(current.UntaggedPorts)
	}
	return ""
}

// vlanMembership resolves the effective member sets for a VLAN op.
func vlanMembership(op *reconcile.Op, current *model.Vlan) (tagged, untagged map[string]bool, err error) {
	expand := func(field string) (map[string]bool, error) {
		v := vlanField(op, current, field)
		set := make(map[string]bool)
		if v == "" {
			return set, nil
		}
		nums, err := util.ExpandRange(v)
		if err != nil {
			return nil, fmt.Errorf("vlan %s: bad member range %q", op.Key, v)
		}
		for _, n := range nums {
			set[strconv.Itoa(n)] = true
		}
		return set, nil
	}
	if tagged, err = expand("tagged_ports"); err != nil {
		return nil, nil, err
	}
	if untagged, err = expand("untagged_ports"); err != nil {
		return nil, nil, err
	}
	return tagged, untagged, nil
}

// portFormTargets names the submit target of the port settings form.
var portFormTargets = map[model.Family]string{
	model.FamilyGS1920: "/Forms/rpPort_1",
	model.FamilyGS1915: "/Forms/rpport_1",
}

func renderPort(ctx context.Context, adapter transport.Adapter, op *reconcile.Op) ([]transport.Form, error) {
	family := adapter.Family()
	if family == model.FamilyGS1900 {
		return renderPortGS1900(op)
	}
	ports, err := freshPorts(ctx, adapter, family)
	if err != nil {
		return nil, err
	}
	target, ok := ports[op.Key]
	if !ok {
		return nil, fmt.Errorf("port %s vanished from the device", op.Key)
	}

	// Apply the op to the target row before rendering the full form.
	if v, ok := op.Fields["enabled"]; ok {
		target.Enabled = v == "true"
	}
	if v, ok := op.Fields["name"]; ok {
		target.Name = v
	}
	if v, ok := op.Fields["speed"]; ok {
		target.Speed = v
	}
	if v, ok := op.Fields["flow_control"]; ok {
		target.FlowControl = v == "true"
	}

	pf := facts.PortFieldNames(family)
	form := transport.Form{Page: transport.PagePorts, Action: portFormTargets[family]}
	for _, id := range sortedPortIDs(ports) {
		p := ports[id]
		form.Fields = append(form.Fields, transport.Field{
			Name: fmt.Sprintf(pf.Name, id), Value: p.Name,
		})
		code, ok := transport.SpeedCode(family, p.Speed)
		if !ok {
			code, _ = transport.SpeedCode(family, "auto")
		}
		form.Fields = append(form.Fields, transport.Field{
			Name: fmt.Sprintf(pf.Speed, id), Value: code,
		})
		if p.Enabled {
			form.Fields = append(form.Fields, transport.Field{
				Name: pf.Active, Value: fmt.Sprintf(pf.ActiveValue, id),
			})
		}
		if p.FlowControl {
			form.Fields = append(form.Fields, transport.Field{
				Name: pf.Flow, Value: fmt.Sprintf(pf.ActiveValue, id),
			})
		}
	}
	form.Fields = append(form.Fields, transport.Field{Name: pf.Apply, Value: pf.ApplyValue})
	return []transport.Form{form}, nil
}

// renderPortGS1900 posts a single-port update. The CGI form takes only
// the admin state and the description; speed and flow control are not
// settable on this line.
func renderPortGS1900(op *reconcile.Op) ([]transport.Form, error) {
	if _, ok := op.Fields["speed"]; ok {
		return nil, fmt.Errorf("port %s: speed on %s: %w",
			op.Key, model.FamilyGS1900, util.ErrUnsupportedFeature)
	}
	if _, ok := op.Fields["flow_control"]; ok {
		return nil, fmt.Errorf("port %s: flow control on %s: %w",
			op.Key, model.FamilyGS1900, util.ErrUnsupportedFeature)
	}
	fields := []transport.Field{{Name: "port", Value: op.Key}}
	if v, ok := op.Fields["enabled"]; ok {
		fields = append(fields, transport.Field{Name: "state", Value: zeroOne(v == "true")})
	}
	if v, ok := op.Fields["name"]; ok {
		fields = append(fields, transport.Field{Name: "desc", Value: v})
	}
	return []transport.Form{{
		Page:   transport.PagePorts,
		Action: "768",
		Fields: fields,
	}}, nil
}

func renderPortVlan(ctx context.Context, adapter transport.Adapter, op *reconcile.Op) ([]transport.Form, error) {
	family := adapter.Family()
	ports, err := freshPorts(ctx, adapter, family)
	if err != nil {
		return nil, err
	}
	target, ok := ports[op.Key]
	if !ok {
		return nil, fmt.Errorf("port %s vanished from the device", op.Key)
	}
	applyPortVlanOp(target, op)

	if family == model.FamilyGS1900 {
		return []transport.Form{gs1900PortVlanForm(target)}, nil
	}

	vf := facts.VlanPortFieldNames(family)
	action := "/Forms/rpVlanport_1"
	if family == model.FamilyGS1915 {
		action = "/Forms/rpvlanport_1"
	}
	form := transport.Form{Page: transport.PagePortVlan, Action: action}
	for _, id := range sortedPortIDs(ports) {
		p := ports[id]
		form.Fields = append(form.Fields, transport.Field{
			Name: fmt.Sprintf(vf.PVID, id), Value: strconv.Itoa(p.PVID),
		})
		code, ok := transport.FrameTypeCode(family, p.AcceptableFrameType)
		if !ok {
			code, _ = transport.FrameTypeCode(family, "all")
		}
		form.Fields = append(form.Fields, transport.Field{
			Name: fmt.Sprintf(vf.FrameType, id), Value: code,
		})
		if p.IngressFiltering {
			form.Fields = append(form.Fields, transport.Field{
				Name: vf.Ingress, Value: fmt.Sprintf(vf.RowValue, id),
			})
		}
		if p.VlanTrunking {
			form.Fields = append(form.Fields, transport.Field{
				Name: vf.Trunking, Value: fmt.Sprintf(vf.RowValue, id),
			})
		}
	}
	form.Fields = append(form.Fields, transport.Field{Name: vf.Apply, Value: vf.ApplyValue})
	return []transport.Form{form}, nil
}

// gs1900PortVlanForm renders one port's VLAN settings as the cmd=1292
// submission, which edits a single port through the per-port dialog
// instead of rewriting the whole page.
func gs1900PortVlanForm(target *model.Port) transport.Form {
	frameCode, ok := transport.FrameTypeCode(model.FamilyGS1900, target.AcceptableFrameType)
	if !ok {
		frameCode = "0"
	}
	return transport.Form{
		Page:   transport.PagePortVlan,
		Source: "1291",
		Action: "1292",
		Fields: []transport.Field{
			{Name: "portlist", Value: target.ID},
			{Name: "pvid", Value: strconv.Itoa(target.PVID)},
			{Name: "frametype", Value: frameCode},
			{Name: "vlan_igrfilter", Value: zeroOne(target.IngressFiltering)},
			{Name: "vlan_trunk", Value: zeroOne(target.VlanTrunking)},
		},
	}
}

func applyPortVlanOp(target *model.Port, op *reconcile.Op) {
	if v, ok := op.Fields["pvid"]; ok {
		target.PVID = atoi(v)
	}
	if v, ok := op.Fields["vlan_trunking"]; ok {
		target.VlanTrunking = v == "true"
	}
	if v, ok := op.Fields["ingress_filtering"]; ok {
		target.IngressFiltering = v == "true"
	}
	if v, ok := op.Fields["acceptable_frame_type"]; ok {
		target.AcceptableFrameType = v
	}
}

func renderTrunk(ctx context.Context, adapter transport.Adapter, snap *model.Snapshot, op *reconcile.Op) ([]transport.Form, error) {
	body, err := adapter.FetchPage(ctx, transport.PageTrunk)
	if err != nil {
		return nil, err
	}
	trunks := facts.TrunksFromPage(body)

	target, ok := trunks[op.Key]
	if !ok {
		target = &model.Trunk{Group: op.Key}
		trunks[op.Key] = target
	}
	switch op.Kind {
	case reconcile.KindDelete:
		target.Enabled = false
		target.Members = nil
	default:
		if v, ok := op.Fields["enabled"]; ok {
			target.Enabled = v == "true"
		}
		if v, ok := op.Fields["members"]; ok {
			nums, err := util.ExpandRange(v)
			if err != nil {
				return nil, fmt.Errorf("trunk %s: bad member range %q", op.Key, v)
			}
			target.Members = nil
			for _, n := range nums {
				target.Members = append(target.Members, strconv.Itoa(n))
			}
		}
		if v, ok := op.Fields["criteria"]; ok {
			target.Criteria = v
		}
	}

	if len(snap.Ports) == 0 {
		return nil, fmt.Errorf("trunk %s: port inventory required to render membership", op.Key)
	}

	// Invert group membership into the per-port selects.
	memberOf := make(map[string]string)
	for _, t := range trunks {
		for _, m := range t.Members {
			memberOf[m] = t.Group
		}
	}

	form := transport.Form{Page: transport.PageTrunk, Action: "/Forms/rpLacpsetting_1"}
	groups := make([]string, 0, len(trunks))
	for g := range trunks {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		t := trunks[g]
		num := strings.TrimPrefix(g, "T")
		if t.Enabled {
			form.Fields = append(form.Fields, transport.Field{
				Name: "rpLacpsetting_Chk_GroupActive", Value: "?" + num,
			})
		}
		if t.Criteria != "" {
			form.Fields = append(form.Fields, transport.Field{
				Name: fmt.Sprintf("rpLacpsetting_Slt_Criteria?%s,1", num), Value: t.Criteria,
			})
		}
	}
	for _, id := range sortedPortIDs(snap.Ports) {
		form.Fields = append(form.Fields, transport.Field{
			Name: fmt.Sprintf("rpLacpsetting_Slt_Group?%s", id), Value: memberOf[id],
		})
	}
	form.Fields = append(form.Fields, transport.Field{Name: "rpLacpsetting_HidBtn_NumID", Value: "1"})
	return []transport.Form{form}, nil
}

func renderSyslog(snap *model.Snapshot, op *reconcile.Op) ([]transport.Form, error) {
	current := snap.Syslog[op.Key]
	if op.Kind == reconcile.KindDelete {
		if current == nil || current.RowID == "" {
			return nil, fmt.Errorf("syslog server %s: no row handle for deletion", op.Key)
		}
		return []transport.Form{{
			Page:   transport.PageSyslog,
			Action: "/Forms/rpSyslog_2",
			Fields: []transport.Field{
				{Name: "rpSyslog_Chk_TabDel", Value: "?" + current.RowID},
				{Name: "rpSyslog_HidBtn_ServerIndexID", Value: current.RowID},
				{Name: "rpSyslog_HidBtn_ServerNumID", Value: "2"},
			},
		}}, nil
	}
	port := op.Fields["port"]
	if port == "" && current != nil {
		port = strconv.Itoa(current.Port)
	}
	if port == "" {
		port = "514"
	}
	return []transport.Form{{
		Page:   transport.PageSyslog,
		Action: "/Forms/rpSyslog_2",
		Fields: []transport.Field{
			{Name: "rpSyslog_Toggle_Ipt_ServerAddr", Value: op.Key},
			{Name: "rpSyslog_Toggle_Ipt_UdpPort", Value: port},
			{Name: "rpSyslog_HidBtn_ServerNumID", Value: "1"},
			{Name: "rpSyslog_HidBtn_ServerIndexID", Value: "0"},
		},
	}}, nil
}

// renderNtp rewrites the general settings form with new time servers
// while carrying every sibling field back unchanged. The page mixes the
// time settings with the system identity fields, so a partial post
// would blank the rest of the form.
func renderNtp(ctx context.Context, adapter transport.Adapter, snap *model.Snapshot, op *reconcile.Op) ([]transport.Form, error) {
	body, err := adapter.FetchPage(ctx, transport.PageSystem)
	if err != nil {
		return nil, err
	}
	inputs := facts.InputsMatching(body, `rpGeneral_Ipt_\w+`)
	selects := facts.SelectsMatching(body, `rpGeneral_Slt_\w+`)

	// The time server inputs carry "?N" suffixes and are not swept up
	// by the sibling scan; set them explicitly.
	var servers []string
	if snap.Ntp != nil {
		servers = snap.Ntp.Servers
	}
	if v, ok := op.Fields["servers"]; ok {
		servers = util.SplitCommaSeparated(v)
	}
	for i := 0; i < 3; i++ {
		v := ""
		if i < len(servers) {
			v = servers[i]
		}
		inputs[fmt.Sprintf("rpGeneral_Ipt_TimeSvrIP?%d", i+1)] = v
	}
	if v, ok := op.Fields["timezone"]; ok {
		selects["rpGeneral_Slt_TimeZone"] = v
	}

	form := transport.Form{Page: transport.PageSystem, Action: "/Forms/rpGeneral_1"}
	for _, name := range sortedStringKeys(inputs) {
		form.Fields = append(form.Fields, transport.Field{Name: name, Value: inputs[name]})
	}
	for _, name := range sortedStringKeys(selects) {
		form.Fields = append(form.Fields, transport.Field{Name: name, Value: selects[name]})
	}
	form.Fields = append(form.Fields, transport.Field{Name: "rpGeneral_HidBtn_NumID", Value: "1"})
	return []transport.Form{form}, nil
}

func freshPorts(ctx context.Context, adapter transport.Adapter, family model.Family) (map[string]*model.Port, error) {
	portsBody, err := adapter.FetchPage(ctx, transport.PagePorts)
	if err != nil {
		return nil, err
	}
	vlanBody, err := adapter.FetchPage(ctx, transport.PagePortVlan)
	if err != nil {
		return nil, err
	}
	ports, warnings := facts.PortsFromPages(family, portsBody, vlanBody)
	for _, w := range warnings {
		util.Debugf("port re-read: %s", w)
	}
	if len(ports) == 0 {
		return nil, &util.ParseError{
			Page:  string(transport.PagePorts),
			Field: "ports",
			Err:   fmt.Errorf("no ports parsed"),
		}
	}
	return ports, nil
}

func sortedPortIDs(ports map[string]*model.Port) []string {
	ids := make([]string, 0, len(ports))
	for id := range ports {
		ids = append(ids, id)
	}
	model.SortPortIDs(ids)
	return ids
}

func sortedStringKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func zeroOne(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
