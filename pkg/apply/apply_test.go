package apply

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gsconf-net/gsconf/pkg/facts"
	"github.com/gsconf-net/gsconf/pkg/firmware"
	"github.com/gsconf-net/gsconf/pkg/model"
	"github.com/gsconf-net/gsconf/pkg/reconcile"
	"github.com/gsconf-net/gsconf/pkg/transport"
	"github.com/gsconf-net/gsconf/pkg/util"
)

type fakeAdapter struct {
	family  model.Family
	pages   map[transport.Page]string
	submits []transport.Form
	failOn  map[transport.Page]error
}

func (f *fakeAdapter) Family() model.Family { return f.family }

func (f *fakeAdapter) Login(ctx context.Context) error { return nil }

func (f *fakeAdapter) Logout(ctx context.Context) error { return nil }

func (f *fakeAdapter) FetchPage(ctx context.Context, page transport.Page) (string, error) {
	body, ok := f.pages[page]
	if !ok {
		return "", fmt.Errorf("page %s: %w", page, transport.ErrPageNotMapped)
	}
	return body, nil
}

func (f *fakeAdapter) Submit(ctx context.Context, form transport.Form) (string, error) {
	if err, ok := f.failOn[form.Page]; ok && err != nil {
		return "", err
	}
	f.submits = append(f.submits, form)
	return "OK", nil
}

// gs1920Pages builds consistent port and VLAN-port pages for n ports,
// with the listed ports rendered disabled.
func gs1920Pages(n int, disabled map[int]bool) map[transport.Page]string {
	var ports, vlanport strings.Builder
	for i := 1; i <= n; i++ {
		checked := " checked"
		if disabled[i] {
			checked = ""
		}
		fmt.Fprintf(&ports, `<input type="checkbox" name="rpPort_Chk_PortActive" value="?%d"%s>`+"\n", i, checked)
		fmt.Fprintf(&ports, `<input type="text" name="rpPort_Ipt_PortName?%d" value="">`+"\n", i)
		fmt.Fprintf(&ports, `<select name="rpPort_Slt_Speed?%d"><option value="00000000" selected>Auto</option></select>`+"\n", i)
		fmt.Fprintf(&ports, `<input type="checkbox" name="rpPort_Chk_FlowControl" value="?%d">`+"\n", i)

		fmt.Fprintf(&vlanport, `<input type="text" name="rpVlanport_Ipt_PVID?%d" value="1">`+"\n", i)
		fmt.Fprintf(&vlanport, `<select name="rpVlanport_Slt_AcceptableFrame?%d"><option value="00000000" selected>All</option></select>`+"\n", i)
		fmt.Fprintf(&vlanport, `<input type="checkbox" name="rpVlanport_Chk_Ingress" value="?%d">`+"\n", i)
		fmt.Fprintf(&vlanport, `<input type="checkbox" name="rpVlanport_Chk_VLANTrunking" value="?%d">`+"\n", i)
	}
	return map[transport.Page]string{
		transport.PagePorts:    ports.String(),
		transport.PagePortVlan: vlanport.String(),
	}
}

// snapshotFromPages parses the fake pages into a snapshot, the same
// way a real gather would.
func snapshotFromPages(family model.Family, pages map[transport.Page]string) *model.Snapshot {
	snap := model.NewSnapshot()
	ports, _ := facts.PortsFromPages(family, pages[transport.PagePorts], pages[transport.PagePortVlan])
	snap.Ports = ports
	snap.Vlans[1] = &model.Vlan{ID: 1, Name: "default", Active: true, RowID: "1"}
	return snap
}

func newExecutor(fake *fakeAdapter, fw string) *Executor {
	return &Executor{
		Adapter:  fake,
		Target:   "192.0.2.20",
		Firmware: firmware.Parse(fw),
	}
}

func TestApplyBulkPortEnable(t *testing.T) {
	disabled := map[int]bool{3: true, 7: true, 9: true, 12: true, 18: true, 24: true}
	fake := &fakeAdapter{family: model.FamilyGS1920, pages: gs1920Pages(24, disabled)}
	snap := snapshotFromPages(model.FamilyGS1920, fake.pages)

	enabled := true
	desired := &model.DesiredState{Ports: map[string]*model.PortSpec{}}
	for i := 1; i <= 24; i++ {
		desired.Ports[fmt.Sprintf("%d", i)] = &model.PortSpec{Enabled: &enabled}
	}

	result, err := Reconcile(context.Background(), newExecutor(fake, "V4.70"), snap, desired)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got := result.Count(StatusApplied); got != 6 {
		t.Errorf("applied = %d, want 6", got)
	}
	if result.Unchanged != 18 {
		t.Errorf("unchanged = %d, want 18", result.Unchanged)
	}
	if !result.Changed() {
		t.Error("result should report change")
	}
	if len(fake.submits) != 6 {
		t.Errorf("submits = %d, want 6", len(fake.submits))
	}
	if !strings.Contains(result.Summary(), "6 applied, 18 unchanged") {
		t.Errorf("summary = %q", result.Summary())
	}
}

func TestApplyIdempotentRunSubmitsNothing(t *testing.T) {
	fake := &fakeAdapter{family: model.FamilyGS1920, pages: gs1920Pages(4, nil)}
	snap := snapshotFromPages(model.FamilyGS1920, fake.pages)

	enabled := true
	desired := &model.DesiredState{
		Ports: map[string]*model.PortSpec{"1": {Enabled: &enabled}},
	}
	result, err := Reconcile(context.Background(), newExecutor(fake, "V4.70"), snap, desired)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Changed() || len(fake.submits) != 0 {
		t.Errorf("idempotent run submitted %d forms", len(fake.submits))
	}
	if result.Unchanged != 1 {
		t.Errorf("unchanged = %d, want 1", result.Unchanged)
	}
}

func TestApplyFirmwareGateBlocksWithoutSubmitting(t *testing.T) {
	// The trunking knob needs V1.16 on this family; the device runs
	// V1.15, so the operation must fail before anything is sent.
	fake := &fakeAdapter{family: model.FamilyGS1900, pages: map[transport.Page]string{}}
	snap := model.NewSnapshot()
	snap.Ports["1"] = &model.Port{ID: "1", Enabled: true, PVID: 1}
	snap.Vlans[1] = &model.Vlan{ID: 1, Name: "default"}

	trunking := true
	desired := &model.DesiredState{
		Ports: map[string]*model.PortSpec{"1": {VlanTrunking: &trunking}},
	}
	result, err := Reconcile(context.Background(), newExecutor(fake, "V1.15"), snap, desired)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	failures := result.Failures()
	if len(failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(failures))
	}
	if !errors.Is(failures[0].Err, util.ErrUnsupportedFeature) {
		t.Errorf("err = %v, want ErrUnsupportedFeature", failures[0].Err)
	}
	if !strings.Contains(failures[0].Err.Error(), "V1.16") {
		t.Errorf("gate error should name the minimum: %v", failures[0].Err)
	}
	if len(fake.submits) != 0 {
		t.Errorf("gated run submitted %d forms", len(fake.submits))
	}
}

func TestApplySkipsDependentsOfFailedOp(t *testing.T) {
	fake := &fakeAdapter{
		family: model.FamilyGS1920,
		pages:  gs1920Pages(4, nil),
		failOn: map[transport.Page]error{
			transport.PageVlans: &util.TransportError{Page: "vlans", Attempts: 3, Err: errors.New("connection reset")},
		},
	}
	snap := snapshotFromPages(model.FamilyGS1920, fake.pages)

	pvid := 100
	name := "mgmt"
	desired := &model.DesiredState{
		Vlans: map[int]*model.VlanSpec{100: {Name: &name}},
		Ports: map[string]*model.PortSpec{"2": {PVID: &pvid}},
	}
	result, err := Reconcile(context.Background(), newExecutor(fake, "V4.70"), snap, desired)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	var createOutcome, pvidOutcome *OpResult
	for i := range result.Outcomes {
		switch result.Outcomes[i].Op.ID {
		case "vlan:create:100":
			createOutcome = &result.Outcomes[i]
		case "pvid:update:2":
			pvidOutcome = &result.Outcomes[i]
		}
	}
	if createOutcome == nil || pvidOutcome == nil {
		t.Fatalf("outcomes missing: %+v", result.Outcomes)
	}
	if createOutcome.Status != StatusFailed {
		t.Errorf("vlan create = %s, want failed", createOutcome.Status)
	}
	if pvidOutcome.Status != StatusSkipped {
		t.Errorf("pvid update = %s, want skipped", pvidOutcome.Status)
	}
	if !errors.Is(pvidOutcome.Err, util.ErrDependency) {
		t.Errorf("skip reason = %v, want ErrDependency", pvidOutcome.Err)
	}
}

func vlanPageGS1920(rows ...[2]string) string {
	var b strings.Builder
	for i, r := range rows {
		fmt.Fprintf(&b, `<tr><td><input type="checkbox" name="rpVlantag_Chk_TabDel" value="?%d"></td>`, i+1)
		fmt.Fprintf(&b, `<td>%s</td><td><span class="status-on">ON</span></td><td>%s</td></tr>`+"\n", r[0], r[1])
	}
	return b.String()
}

func TestApplyVlanDeleteConfirmedByReread(t *testing.T) {
	fake := &fakeAdapter{family: model.FamilyGS1920, pages: gs1920Pages(4, nil)}
	// The list re-read after the delete no longer shows VLAN 200.
	fake.pages[transport.PageVlans] = vlanPageGS1920([2]string{"1", "default"})
	snap := snapshotFromPages(model.FamilyGS1920, fake.pages)
	snap.Vlans[200] = &model.Vlan{ID: 200, Name: "legacy", Active: true, RowID: "2"}

	desired := &model.DesiredState{
		Vlans: map[int]*model.VlanSpec{200: {State: "absent"}},
	}
	result, err := Reconcile(context.Background(), newExecutor(fake, "V4.70"), snap, desired)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Count(StatusApplied) != 1 {
		t.Fatalf("outcomes = %+v", result.Outcomes)
	}
	// Two-step delete: initiate plus confirm.
	if len(fake.submits) != 2 {
		t.Errorf("submits = %d, want 2", len(fake.submits))
	}
}

func TestApplyVlanDeleteFailsWhenRowSurvives(t *testing.T) {
	fake := &fakeAdapter{family: model.FamilyGS1920, pages: gs1920Pages(4, nil)}
	fake.pages[transport.PageVlans] = vlanPageGS1920(
		[2]string{"1", "default"}, [2]string{"200", "legacy"})
	snap := snapshotFromPages(model.FamilyGS1920, fake.pages)
	snap.Vlans[200] = &model.Vlan{ID: 200, Name: "legacy", Active: true, RowID: "2"}

	desired := &model.DesiredState{
		Vlans: map[int]*model.VlanSpec{200: {State: "absent"}},
	}
	result, err := Reconcile(context.Background(), newExecutor(fake, "V4.70"), snap, desired)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	failures := result.Failures()
	if len(failures) != 1 {
		t.Fatalf("failures = %+v", result.Outcomes)
	}
	if !strings.Contains(failures[0].Err.Error(), "still present") {
		t.Errorf("err = %v", failures[0].Err)
	}
}

func TestApplyCancellationSkipsRemaining(t *testing.T) {
	fake := &fakeAdapter{family: model.FamilyGS1920, pages: gs1920Pages(4, nil)}
	snap := snapshotFromPages(model.FamilyGS1920, fake.pages)

	name := "mgmt"
	desired := &model.DesiredState{
		Vlans: map[int]*model.VlanSpec{100: {Name: &name}},
	}
	ops, err := reconcile.Plan(snap, desired)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := newExecutor(fake, "V4.70").Apply(ctx, snap, ops)
	if !result.Aborted {
		t.Error("result should be aborted")
	}
	if got := result.Count(StatusSkipped); got != len(ops) {
		t.Errorf("skipped = %d, want %d", got, len(ops))
	}
	if len(fake.submits) != 0 {
		t.Errorf("cancelled run submitted %d forms", len(fake.submits))
	}
}

func TestApplyDryRunRendersWithoutSubmitting(t *testing.T) {
	fake := &fakeAdapter{family: model.FamilyGS1920, pages: gs1920Pages(4, nil)}
	snap := snapshotFromPages(model.FamilyGS1920, fake.pages)

	name := "mgmt"
	desired := &model.DesiredState{
		Vlans: map[int]*model.VlanSpec{100: {Name: &name, UntaggedPorts: []string{"2"}}},
	}
	exec := newExecutor(fake, "V4.70")
	exec.DryRun = true
	result, err := Reconcile(context.Background(), exec, snap, desired)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(fake.submits) != 0 {
		t.Errorf("dry run submitted %d forms", len(fake.submits))
	}
	if result.Count(StatusApplied) != 1 {
		t.Errorf("applied = %d, want 1", result.Count(StatusApplied))
	}
	cmds := result.Outcomes[0].Commands
	if len(cmds) != 2 {
		t.Fatalf("commands = %v, want dialog open and submit", cmds)
	}
	if !strings.Contains(cmds[1], "rpVlantag_Toggle_Ipt_VlanGroupID=100") {
		t.Errorf("rendered command = %q", cmds[1])
	}
	if !strings.Contains(cmds[1], "rpVlantag_Toggle_Rdo_Control?2=1") {
		t.Errorf("membership missing from command: %q", cmds[1])
	}
}

func TestApplyUserManagementRejected(t *testing.T) {
	// None of the web UIs accept account management posts, on any
	// firmware. The gate must stop the operation before any traffic.
	for _, family := range []model.Family{model.FamilyGS1900, model.FamilyGS1915, model.FamilyGS1920} {
		fake := &fakeAdapter{family: family, pages: map[transport.Page]string{}}
		snap := model.NewSnapshot()

		pw := "hunter2"
		priv := "user"
		desired := &model.DesiredState{
			Users: map[string]*model.UserSpec{
				"operator": {Password: &pw, Privilege: &priv},
			},
		}
		result, err := Reconcile(context.Background(), newExecutor(fake, "V4.70"), snap, desired)
		if err != nil {
			t.Fatalf("%s: Reconcile: %v", family, err)
		}
		failures := result.Failures()
		if len(failures) != 1 || !errors.Is(failures[0].Err, util.ErrUnsupportedFeature) {
			t.Fatalf("%s: failures = %+v", family, failures)
		}
		if len(fake.submits) != 0 {
			t.Errorf("%s: rejected user op submitted %d forms", family, len(fake.submits))
		}
	}
}

func TestApplyMirrorGatedByDefault(t *testing.T) {
	fake := &fakeAdapter{family: model.FamilyGS1920, pages: gs1920Pages(4, nil)}
	snap := snapshotFromPages(model.FamilyGS1920, fake.pages)

	enabled := true
	monitor := "1"
	desired := &model.DesiredState{
		Mirrors: map[int]*model.MirrorSpec{
			1: {Enabled: &enabled, MonitorPort: &monitor, SourcePorts: []string{"2", "3"}},
		},
	}
	result, err := Reconcile(context.Background(), newExecutor(fake, "V4.70"), snap, desired)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	failures := result.Failures()
	if len(failures) != 1 || !errors.Is(failures[0].Err, util.ErrUnsupportedFeature) {
		t.Fatalf("failures = %+v", failures)
	}
	if len(fake.submits) != 0 {
		t.Errorf("gated mirror submitted %d forms", len(fake.submits))
	}
}

func TestApplySyslogOnGS1920(t *testing.T) {
	fake := &fakeAdapter{family: model.FamilyGS1920, pages: gs1920Pages(4, nil)}
	snap := snapshotFromPages(model.FamilyGS1920, fake.pages)

	port := 1514
	desired := &model.DesiredState{
		Syslog: map[string]*model.SyslogSpec{"192.0.2.9": {Port: &port}},
	}
	result, err := Reconcile(context.Background(), newExecutor(fake, "V4.70"), snap, desired)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Count(StatusApplied) != 1 {
		t.Fatalf("outcomes = %+v", result.Outcomes)
	}
	form := fake.submits[0]
	if form.Action != "/Forms/rpSyslog_2" {
		t.Errorf("action = %q", form.Action)
	}
	var addr, portVal, numID string
	for _, f := range form.Fields {
		switch f.Name {
		case "rpSyslog_Toggle_Ipt_ServerAddr":
			addr = f.Value
		case "rpSyslog_Toggle_Ipt_UdpPort":
			portVal = f.Value
		case "rpSyslog_HidBtn_ServerNumID":
			numID = f.Value
		}
	}
	if addr != "192.0.2.9" || portVal != "1514" || numID != "1" {
		t.Errorf("form = %v", form.Fields)
	}
}

const gs1920SystemPage = `
<form action="/Forms/rpGeneral_1">
<input type="text" name="rpGeneral_Ipt_SystemName" value="core-sw-01">
<input type="text" name="rpGeneral_Ipt_Location" value="rack 4">
<input type="text" name="rpGeneral_Ipt_ContactName" value="netops">
<input type="text" name="rpGeneral_Ipt_TimeSvrIP?1" value="192.0.2.123">
<input type="text" name="rpGeneral_Ipt_TimeSvrIP?2" value="">
<input type="text" name="rpGeneral_Ipt_TimeSvrIP?3" value="">
<select name="rpGeneral_Slt_TimeZone">
<option value="UTC">UTC</option>
<option value="UTC+1" selected>UTC+1</option>
</select>
</form>
`

func TestApplyNtpCarriesSiblingFields(t *testing.T) {
	// The time servers share their form with the system identity
	// fields; posting only the changed inputs would blank the rest.
	fake := &fakeAdapter{family: model.FamilyGS1920, pages: gs1920Pages(4, nil)}
	fake.pages[transport.PageSystem] = gs1920SystemPage
	snap := snapshotFromPages(model.FamilyGS1920, fake.pages)
	snap.Ntp = &model.NtpConfig{Servers: []string{"192.0.2.123"}, Timezone: "UTC+1"}

	desired := &model.DesiredState{
		Ntp: &model.NtpSpec{Servers: []string{"192.0.2.200", "192.0.2.201"}},
	}
	result, err := Reconcile(context.Background(), newExecutor(fake, "V4.70"), snap, desired)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Count(StatusApplied) != 1 {
		t.Fatalf("outcomes = %+v", result.Outcomes)
	}
	form := fake.submits[0]
	got := map[string]string{}
	for _, f := range form.Fields {
		got[f.Name] = f.Value
	}
	if got["rpGeneral_Ipt_TimeSvrIP?1"] != "192.0.2.200" || got["rpGeneral_Ipt_TimeSvrIP?2"] != "192.0.2.201" {
		t.Errorf("servers = %v", got)
	}
	if got["rpGeneral_Ipt_TimeSvrIP?3"] != "" {
		t.Errorf("third server slot should clear: %q", got["rpGeneral_Ipt_TimeSvrIP?3"])
	}
	if got["rpGeneral_Ipt_SystemName"] != "core-sw-01" || got["rpGeneral_Ipt_ContactName"] != "netops" {
		t.Errorf("identity fields not carried: %v", got)
	}
	if got["rpGeneral_Slt_TimeZone"] != "UTC+1" {
		t.Errorf("timezone = %q", got["rpGeneral_Slt_TimeZone"])
	}
	if got["rpGeneral_HidBtn_NumID"] != "1" {
		t.Errorf("apply button = %q", got["rpGeneral_HidBtn_NumID"])
	}
}

func TestApplySyslogGatedOnGS1915(t *testing.T) {
	fake := &fakeAdapter{family: model.FamilyGS1915, pages: map[transport.Page]string{}}
	snap := model.NewSnapshot()

	desired := &model.DesiredState{
		Syslog: map[string]*model.SyslogSpec{"192.0.2.9": {}},
	}
	result, err := Reconcile(context.Background(), newExecutor(fake, "V1.00"), snap, desired)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	failures := result.Failures()
	if len(failures) != 1 || !errors.Is(failures[0].Err, util.ErrUnsupportedFeature) {
		t.Fatalf("failures = %+v", failures)
	}
}
