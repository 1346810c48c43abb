package facts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gsconf-net/gsconf/pkg/model"
	"github.com/gsconf-net/gsconf/pkg/transport"
)

// maxPorts bounds the port scan. The largest chassis in these families
// has 50 ports.
const maxPorts = 64

// maxTrunkGroups bounds the trunk group scan.
const maxTrunkGroups = 8

// Gather scrapes the requested sections into a snapshot. The system
// status page is always read first for the device identity. A section
// whose page the family does not serve degrades to a warning; transport
// failures abort.
func Gather(ctx context.Context, adapter transport.Adapter, sections []model.Section) (*model.Snapshot, error) {
	snap := model.NewSnapshot()

	body, err := adapter.FetchPage(ctx, transport.PageSysInfo)
	if err != nil {
		return nil, err
	}
	snap.Identity = parseIdentity(adapter.Family(), body, &snap.ParseWarnings)

	for _, section := range sections {
		if err := gatherSection(ctx, adapter, section, snap); err != nil {
			if errors.Is(err, transport.ErrPageNotMapped) {
				warnf(&snap.ParseWarnings, "section %s not gatherable: %v", section, err)
				continue
			}
			return nil, err
		}
	}
	return snap, nil
}

func gatherSection(ctx context.Context, adapter transport.Adapter, section model.Section, snap *model.Snapshot) error {
	family := adapter.Family()
	switch section {
	case model.SectionSystem:
		// Identity is gathered unconditionally before sections run.
		return nil
	case model.SectionPorts:
		body, err := adapter.FetchPage(ctx, transport.PagePorts)
		if err != nil {
			return err
		}
		parsePorts(family, body, snap)
		vbody, err := adapter.FetchPage(ctx, transport.PagePortVlan)
		if err != nil {
			return err
		}
		mergeVlanPortState(family, vbody, snap)
		return nil
	case model.SectionVlans:
		body, err := adapter.FetchPage(ctx, transport.PageVlans)
		if err != nil {
			return err
		}
		parseVlans(family, body, snap)
		// The VLAN list pages carry no membership columns. Untagged
		// membership is reconstructed from the per-port PVID
		// assignments; tagged membership is not readable at all.
		vbody, err := adapter.FetchPage(ctx, transport.PagePortVlan)
		if err != nil {
			return err
		}
		assignUntaggedFromPVIDs(snap.Vlans, portPVIDs(family, vbody))
		return nil
	case model.SectionTrunks:
		body, err := adapter.FetchPage(ctx, transport.PageTrunk)
		if err != nil {
			return err
		}
		parseTrunks(body, snap)
		return nil
	case model.SectionUsers:
		// None of the three families expose the account table in a
		// scrapeable form.
		return fmt.Errorf("user accounts on %s: %w", family, transport.ErrPageNotMapped)
	case model.SectionSyslog:
		body, err := adapter.FetchPage(ctx, transport.PageSyslog)
		if err != nil {
			return err
		}
		parseSyslog(body, snap)
		return nil
	case model.SectionNTP:
		if family != model.FamilyGS1920 {
			return fmt.Errorf("ntp on %s: %w", family, transport.ErrPageNotMapped)
		}
		body, err := adapter.FetchPage(ctx, transport.PageSystem)
		if err != nil {
			return err
		}
		parseNtp(body, snap)
		return nil
	default:
		return fmt.Errorf("unknown section %s", section)
	}
}

// PortsFromPages parses port state out of already-fetched port and
// VLAN-port pages. Used by form renderers that re-read the device just
// before writing the whole form back.
func PortsFromPages(family model.Family, portsBody, vlanPortBody string) (map[string]*model.Port, []string) {
	snap := model.NewSnapshot()
	parsePorts(family, portsBody, snap)
	mergeVlanPortState(family, vlanPortBody, snap)
	return snap.Ports, snap.ParseWarnings
}

// VlansFromPage parses the VLAN list page. Used to confirm deletions,
// which some families acknowledge with a success page even when the
// row survived.
func VlansFromPage(family model.Family, body string) map[int]*model.Vlan {
	snap := model.NewSnapshot()
	parseVlans(family, body, snap)
	return snap.Vlans
}

// TrunksFromPage parses the link aggregation page.
func TrunksFromPage(body string) map[string]*model.Trunk {
	snap := model.NewSnapshot()
	parseTrunks(body, snap)
	return snap.Trunks
}

func parseIdentity(family model.Family, body string, warnings *[]string) *model.DeviceIdentity {
	id := &model.DeviceIdentity{Family: family, DetectedAt: time.Now()}
	fields := []struct {
		label string
		dst   *string
	}{
		{"Product Model", &id.Model},
		{"F/W Version", &id.Firmware},
		{"System Name", &id.Hostname},
		{"Ethernet Address", &id.MACAddress},
	}
	for _, f := range fields {
		v, ok := TableRowValue(body, f.label)
		if !ok {
			warnf(warnings, "sysinfo: %q not found", f.label)
			continue
		}
		*f.dst = v
	}
	return id
}

// gs1900PortRowRe matches one row of the cmd=768 port table: the row
// checkbox, then port number, name, state, link, speed, duplex and flow
// control cells.
var gs1900PortRowRe = regexp.MustCompile(`(?is)<input type="checkbox" name="port" value="(\d+)"` +
	`.*?<td class="font-4" ><div align=center>\s*\d+\s*</div></td>\s*` +
	`<td class="font-4" ><div align=center>\s*([^<]*?)\s*</div></td>\s*` +
	`<td class="font-4" ><div align=center>\s*(\w+)\s*</div></td>\s*` +
	`<td class="font-4" ><div align=center>\s*(\w+)\s*</div></td>\s*` +
	`<td class="font-4" ><div align=center>\s*(\w+)\s*</div></td>\s*` +
	`<td class="font-4" ><div align=center>\s*(\w+)\s*</div></td>\s*` +
	`<td class="font-4" ><div align=center>\s*(\w+)\s*</div></td>`)

func parsePorts(family model.Family, body string, snap *model.Snapshot) {
	if family == model.FamilyGS1900 {
		for _, m := range gs1900PortRowRe.FindAllStringSubmatch(body, -1) {
			id := m[1]
			snap.Ports[id] = &model.Port{
				ID:          id,
				Name:        m[2],
				Enabled:     strings.EqualFold(m[3], "Enable"),
				LinkStatus:  strings.ToLower(m[4]),
				Speed:       strings.ToLower(m[5]),
				Duplex:      strings.ToLower(m[6]),
				FlowControl: strings.EqualFold(m[7], "Enable"),
			}
		}
	} else {
		pf := PortFieldNames(family)
		for i := 1; i <= maxPorts; i++ {
			id := strconv.Itoa(i)
			nameField := fieldName(pf.Name, id)
			if !FieldPresent(body, nameField) {
				break
			}
			port := &model.Port{ID: id}
			port.Name, _ = InputValue(body, nameField)
			port.Enabled = CheckboxChecked(body, pf.Active, fieldName(pf.ActiveValue, id))
			port.FlowControl = CheckboxChecked(body, pf.Flow, fieldName(pf.ActiveValue, id))
			if code, ok := SelectedOption(body, fieldName(pf.Speed, id)); ok {
				if name, ok := transport.SpeedName(code); ok {
					port.Speed = name
					port.Duplex = duplexOf(name)
				} else {
					warnf(&snap.ParseWarnings, "port %s: unknown speed code %q", id, code)
				}
			}
			snap.Ports[id] = port
		}
	}
	if len(snap.Ports) == 0 {
		warnf(&snap.ParseWarnings, "port page yielded no ports")
	}
}

// duplexOf derives the duplex half of a canonical speed name.
func duplexOf(speed string) string {
	if speed == "auto" {
		return "auto"
	}
	if i := strings.LastIndex(speed, "-"); i >= 0 {
		return speed[i+1:]
	}
	return ""
}

// gs1900PortVlanRowRe matches one row of the cmd=1290 VLAN port table:
// the row checkbox, then port number, PVID, acceptable frame type,
// ingress check and VLAN trunking cells.
var gs1900PortVlanRowRe = regexp.MustCompile(`(?is)<input type="checkbox" name="port" value="(\d+)"` +
	`.*?<td class="font-4" ><div align=center>\s*\d+\s*</div></td>\s*` +
	`<td class="font-4" ><div align=center>\s*(\d+)\s*</div></td>\s*` +
	`<td class="font-4" ><div align=center>\s*(\w+)\s*</div></td>\s*` +
	`<td class="font-4" ><div align=center>\s*(\w+)\s*</div></td>\s*` +
	`<td class="font-4" ><div align=center>\s*(\w+)\s*</div></td>`)

func mergeVlanPortState(family model.Family, body string, snap *model.Snapshot) {
	if family == model.FamilyGS1900 {
		for _, m := range gs1900PortVlanRowRe.FindAllStringSubmatch(body, -1) {
			port, ok := snap.Ports[m[1]]
			if !ok {
				continue
			}
			pvid, err := strconv.Atoi(m[2])
			if err == nil {
				port.PVID = pvid
			}
			port.AcceptableFrameType = gs1900FrameWord(m[3])
			port.IngressFiltering = strings.EqualFold(m[4], "Enable")
			port.VlanTrunking = strings.EqualFold(m[5], "Enable")
		}
		return
	}
	vf := VlanPortFieldNames(family)
	for _, port := range snap.Ports {
		rowValue := fieldName(vf.RowValue, port.ID)
		if v, ok := InputValue(body, fieldName(vf.PVID, port.ID)); ok {
			pvid, err := strconv.Atoi(v)
			if err != nil {
				warnf(&snap.ParseWarnings, "port %s: bad pvid %q", port.ID, v)
			} else {
				port.PVID = pvid
			}
		}
		if code, ok := SelectedOption(body, fieldName(vf.FrameType, port.ID)); ok {
			if name, ok := transport.FrameTypeName(code); ok {
				port.AcceptableFrameType = name
			} else {
				warnf(&snap.ParseWarnings, "port %s: unknown frame type code %q", port.ID, code)
			}
		}
		port.IngressFiltering = CheckboxChecked(body, vf.Ingress, rowValue)
		port.VlanTrunking = CheckboxChecked(body, vf.Trunking, rowValue)
	}
}

// gs1900FrameWord normalizes the frame type words of the GS1900 table.
func gs1900FrameWord(w string) string {
	switch strings.ToLower(w) {
	case "all":
		return "all"
	case "tagged":
		return "tagged"
	case "untagged":
		return "untagged"
	}
	return strings.ToLower(w)
}

// pvidInputRe matches the per-port PVID inputs of the VLAN port page in
// either widget dialect.
var pvidInputRe = regexp.MustCompile(`(?i)(?:rpVlanport_Ipt_PVID|rpvlanport_IptPVID)\?(\d+)"[^>]*value="(\d+)"`)

// portPVIDs reads the per-port PVID assignments off the VLAN port page.
func portPVIDs(family model.Family, body string) map[string]int {
	pvids := make(map[string]int)
	if family == model.FamilyGS1900 {
		for _, m := range gs1900PortVlanRowRe.FindAllStringSubmatch(body, -1) {
			if pvid, err := strconv.Atoi(m[2]); err == nil {
				pvids[m[1]] = pvid
			}
		}
		return pvids
	}
	for _, m := range pvidInputRe.FindAllStringSubmatch(body, -1) {
		if pvid, err := strconv.Atoi(m[2]); err == nil {
			pvids[m[1]] = pvid
		}
	}
	return pvids
}

// assignUntaggedFromPVIDs fills the untagged member list of each VLAN
// from the PVID assignments, sorted numerically.
func assignUntaggedFromPVIDs(vlans map[int]*model.Vlan, pvids map[string]int) {
	for port, pvid := range pvids {
		vlan, ok := vlans[pvid]
		if !ok {
			continue
		}
		vlan.UntaggedPorts = append(vlan.UntaggedPorts, port)
	}
	for _, vlan := range vlans {
		sort.Slice(vlan.UntaggedPorts, func(i, j int) bool {
			a, _ := strconv.Atoi(vlan.UntaggedPorts[i])
			b, _ := strconv.Atoi(vlan.UntaggedPorts[j])
			return a < b
		})
	}
}

// gs1920VlanRowRe anchors each VLAN list row on its delete checkbox,
// followed by the id cell, the status cell and the name cell.
var gs1920VlanRowRe = regexp.MustCompile(`(?is)NAME="rpVlantag_Chk_TabDel"\s+VALUE="\?(\d+)"` +
	`.*?</td>\s*` +
	`<td[^>]*>(\d+)\s*</td>\s*` +
	`<td[^>]*>(.*?)</td>\s*` +
	`<td[^>]*>\s*(\S[^<]*?)\s*</td>`)

// gs1915VlanRowRe matches the VID link, active flag and name cells of
// one VLAN list row. The delete handle is resolved separately per row.
var gs1915VlanRowRe = regexp.MustCompile(`(?is)GetIndexID\((\d+)\)[^<]*</a>` +
	`.*?<div align=center>\s*(Yes|No)\s*</div>` +
	`.*?<div align=center>\s*([^<]*?)\s*</div>`)

var gs1915VlanChkRe = regexp.MustCompile(`(?i)rpvlantag_ChkDel[^>]*VALUE="\?([^"]+)"`)

var tableRowRe = regexp.MustCompile(`(?is)<tr[^>]*>(.*?)</tr>`)

// gs1900VlanRowRe matches the id, name and type cells of one row of the
// cmd=1283 VLAN list.
var gs1900VlanRowRe = regexp.MustCompile(`(?is)<td class="font-4" ><div align=center>\s*(\d+)\s*</div></td>\s*` +
	`<td class="font-4" ><div align=center>\s*([^<]*?)\s*</div></td>\s*` +
	`<td class="font-4" ><div align=center>\s*(Default|Static)\s*</div></td>`)

// parseVlans scrapes the VLAN list page. The list carries no member
// columns on any family; membership is reconstructed elsewhere. The
// delete handle of each row is kept without its "?" prefix.
func parseVlans(family model.Family, body string, snap *model.Snapshot) {
	switch family {
	case model.FamilyGS1900:
		for _, m := range gs1900VlanRowRe.FindAllStringSubmatch(body, -1) {
			vid, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			snap.Vlans[vid] = &model.Vlan{
				ID:     vid,
				Name:   strings.TrimSpace(m[2]),
				Active: true,
			}
		}
	case model.FamilyGS1915:
		for _, row := range tableRowRe.FindAllStringSubmatch(body, -1) {
			m := gs1915VlanRowRe.FindStringSubmatch(row[1])
			if m == nil {
				continue
			}
			vid, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			vlan := &model.Vlan{
				ID:     vid,
				Name:   strings.TrimSpace(m[3]),
				Active: strings.EqualFold(m[2], "Yes"),
			}
			if chk := gs1915VlanChkRe.FindStringSubmatch(row[1]); chk != nil {
				vlan.RowID = chk[1]
			}
			snap.Vlans[vid] = vlan
		}
	default: // GS1920
		for _, m := range gs1920VlanRowRe.FindAllStringSubmatch(body, -1) {
			vid, err := strconv.Atoi(m[2])
			if err != nil {
				continue
			}
			snap.Vlans[vid] = &model.Vlan{
				ID:     vid,
				Name:   strings.TrimSpace(m[4]),
				Active: strings.Contains(strings.ToLower(m[3]), "status-on"),
				RowID:  m[1],
			}
		}
	}
}

// parseTrunks scrapes the link aggregation page. Group membership is
// inverted on the page: each port carries a select naming its group.
func parseTrunks(body string, snap *model.Snapshot) {
	for g := 1; g <= maxTrunkGroups; g++ {
		criteriaField := fmt.Sprintf("rpLacpsetting_Slt_Criteria?%d,1", g)
		if !FieldPresent(body, criteriaField) {
			continue
		}
		group := fmt.Sprintf("T%d", g)
		trunk := &model.Trunk{
			Group:   group,
			Enabled: CheckboxChecked(body, "rpLacpsetting_Chk_GroupActive", fmt.Sprintf("?%d", g)),
		}
		trunk.Criteria, _ = SelectedOption(body, criteriaField)
		for p := 1; p <= maxPorts; p++ {
			sel := fmt.Sprintf("rpLacpsetting_Slt_Group?%d", p)
			if !FieldPresent(body, sel) {
				break
			}
			if v, _ := SelectedOption(body, sel); v == group {
				trunk.Members = append(trunk.Members, strconv.Itoa(p))
			}
		}
		snap.Trunks[group] = trunk
	}
}

var syslogRowRe = regexp.MustCompile(`(?is)<input[^>]*name="rpSyslog_Chk_TabDel"[^>]*value="([^"]*)"[^>]*>.*?<td>([^<]*)</td>\s*<td>(\d+)</td>\s*<td>([^<]*)</td>`)

// parseSyslog scrapes the remote logging server table.
func parseSyslog(body string, snap *model.Snapshot) {
	for _, m := range syslogRowRe.FindAllStringSubmatch(body, -1) {
		addr := strings.TrimSpace(m[2])
		if addr == "" {
			continue
		}
		port, _ := strconv.Atoi(m[3])
		snap.Syslog[addr] = &model.SyslogServer{
			Address: addr,
			Port:    port,
			Enabled: strings.EqualFold(strings.TrimSpace(m[4]), "Enabled"),
			RowID:   strings.TrimPrefix(m[1], "?"),
		}
	}
}

// parseNtp reads the time server fields off the general settings page.
func parseNtp(body string, snap *model.Snapshot) {
	ntp := &model.NtpConfig{}
	for i := 1; i <= 3; i++ {
		if v, ok := InputValue(body, fmt.Sprintf("rpGeneral_Ipt_TimeSvrIP?%d", i)); ok && v != "" {
			ntp.Servers = append(ntp.Servers, v)
		}
	}
	ntp.Timezone, _ = SelectedOption(body, "rpGeneral_Slt_TimeZone")
	snap.Ntp = ntp
}
