package facts

import (
	"fmt"

	"github.com/gsconf-net/gsconf/pkg/model"
)

// The GS1920 and GS1915 lines name the same widgets two ways. The
// GS1920 line separates the widget kind with an underscore
// (rpPort_Ipt_PortName?4); the GS1915 line joins it and lowercases the
// page prefix (rpport_IptPortName?4). Per-port inputs append the port
// id; checkbox groups share one name and key rows by value. The GS1900
// CGI dialect renders plain tables rather than named widgets, so it
// has no entry here and is parsed with dedicated row scanners. These
// tables are the single source for both parsing and form rendering.

// PortFields names the widgets of the port settings page. Pattern
// fields take the port id; checkbox groups pair a shared Name with a
// per-row Value pattern.
type PortFields struct {
	Name        string
	Active      string
	ActiveValue string
	Speed       string
	Flow        string
	Apply       string
	ApplyValue  string
}

// VlanPortFields names the widgets of the per-port VLAN page.
type VlanPortFields struct {
	PVID       string
	FrameType  string
	Ingress    string
	Trunking   string
	RowValue   string
	Apply      string
	ApplyValue string
}

var portFieldsByFamily = map[model.Family]PortFields{
	model.FamilyGS1920: {
		Name:        "rpPort_Ipt_PortName?%s",
		Active:      "rpPort_Chk_PortActive",
		ActiveValue: "?%s",
		Speed:       "rpPort_Slt_Speed?%s",
		Flow:        "rpPort_Chk_FlowControl",
		Apply:       "rpPort_HidBtn_NumID",
		ApplyValue:  "1",
	},
	model.FamilyGS1915: {
		Name:        "rpport_IptPortName?%s",
		Active:      "rpport_ChkPortActive",
		ActiveValue: "?%s",
		Speed:       "rpport_SltSpeed?%s",
		Flow:        "rpport_ChkFlowControl",
		Apply:       "rpport_HidBtnNum",
		ApplyValue:  "1",
	},
}

var vlanPortFieldsByFamily = map[model.Family]VlanPortFields{
	model.FamilyGS1920: {
		PVID:       "rpVlanport_Ipt_PVID?%s",
		FrameType:  "rpVlanport_Slt_AcceptableFrame?%s",
		Ingress:    "rpVlanport_Chk_Ingress",
		Trunking:   "rpVlanport_Chk_VLANTrunking",
		RowValue:   "?%s",
		Apply:      "rpVlanport_HidBtn_NumID",
		ApplyValue: "1",
	},
	model.FamilyGS1915: {
		PVID:       "rpvlanport_IptPVID?%s",
		FrameType:  "rpvlanport_SltAcceptableFrame?%s",
		Ingress:    "rpvlanport_ChkIngress",
		Trunking:   "rpvlanport_ChkVLANTrunking",
		RowValue:   "?%s",
		Apply:      "rpvlanport_HidBtnNum",
		ApplyValue: "1",
	},
}

// PortFieldNames returns the port page field dialect for a family.
func PortFieldNames(family model.Family) PortFields {
	return portFieldsByFamily[family]
}

// VlanPortFieldNames returns the VLAN port page field dialect.
func VlanPortFieldNames(family model.Family) VlanPortFields {
	return vlanPortFieldsByFamily[family]
}

// fieldName expands a pattern field with the port id.
func fieldName(pattern, id string) string {
	return fmt.Sprintf(pattern, id)
}
