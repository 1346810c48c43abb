package apply

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gsconf-net/gsconf/pkg/facts"
	"github.com/gsconf-net/gsconf/pkg/firmware"
	"github.com/gsconf-net/gsconf/pkg/model"
	"github.com/gsconf-net/gsconf/pkg/reconcile"
	"github.com/gsconf-net/gsconf/pkg/transport"
	"github.com/gsconf-net/gsconf/pkg/util"
)

// featureFor maps an operation to the firmware feature it is gated by.
var featureFor = map[reconcile.Entity]string{
	reconcile.EntityVlan:     firmware.FeatureVlan,
	reconcile.EntityPort:     firmware.FeaturePort,
	reconcile.EntityPVID:     firmware.FeaturePVID,
	reconcile.EntityTrunk:    firmware.FeatureTrunk,
	reconcile.EntityUser:     firmware.FeatureUser,
	reconcile.EntitySyslog:   firmware.FeatureSyslog,
	reconcile.EntityNTP:      firmware.FeatureNTP,
	reconcile.EntityAAA:      firmware.FeatureAAA,
	reconcile.EntitySecurity: firmware.FeatureSecurity,
	reconcile.EntityMirror:   firmware.FeatureMirror,
	reconcile.EntitySTP:      firmware.FeatureSpanningTree,
}

// Executor runs a plan against one device. Operations execute in plan
// order; a failure stops only the operations that depend on it, and
// cancellation marks everything not yet reached as skipped.
type Executor struct {
	Adapter  transport.Adapter
	Target   string
	Firmware firmware.Version
	Gates    firmware.GateTable

	// DryRun renders every submission without sending it.
	DryRun bool
}

// Apply executes the plan and returns per-operation outcomes. The
// snapshot must be the one the plan was computed from; renderers use it
// for row handles and fallback values.
func (e *Executor) Apply(ctx context.Context, snap *model.Snapshot, ops []*reconcile.Op) *Result {
	result := &Result{Target: e.Target, DryRun: e.DryRun}
	gates := e.Gates
	if gates == nil {
		gates = firmware.DefaultGates()
	}
	family := e.Adapter.Family()
	log := util.WithDevice(e.Target)

	unrunnable := make(map[string]bool)
	for i, op := range ops {
		if ctx.Err() != nil {
			result.Aborted = true
			for _, rest := range ops[i:] {
				result.Outcomes = append(result.Outcomes, OpResult{
					Op: rest, Status: StatusSkipped, Err: ctx.Err(),
				})
			}
			break
		}

		if blocked := blockedBy(op, unrunnable); len(blocked) > 0 {
			err := util.NewDependencyError(op.ID, blocked...)
			log.Warnf("skipping %s: %v", op.ID, err)
			result.Outcomes = append(result.Outcomes, OpResult{Op: op, Status: StatusSkipped, Err: err})
			unrunnable[op.ID] = true
			continue
		}

		if err := e.gate(gates, family, op); err != nil {
			log.Warnf("%s rejected: %v", op.ID, err)
			result.Outcomes = append(result.Outcomes, OpResult{Op: op, Status: StatusFailed, Err: err})
			unrunnable[op.ID] = true
			continue
		}

		outcome := e.run(ctx, snap, op)
		if outcome.Status == StatusFailed {
			unrunnable[op.ID] = true
			util.WithOperation(e.Target, op.ID).Errorf("failed: %v", outcome.Err)
		} else {
			util.WithOperation(e.Target, op.ID).Debugf("%s", outcome.Status)
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result
}

// gate checks the op's feature against the firmware table. Per-port
// VLAN operations that flip the trunking knob carry a second,
// field-level gate.
func (e *Executor) gate(gates firmware.GateTable, family model.Family, op *reconcile.Op) error {
	if err := gates.Check(featureFor[op.Entity], family, e.Firmware); err != nil {
		return err
	}
	if op.Entity == reconcile.EntityPVID {
		if _, ok := op.Fields["vlan_trunking"]; ok {
			return gates.Check(firmware.FeatureVlanTrunking, family, e.Firmware)
		}
	}
	return nil
}

func (e *Executor) run(ctx context.Context, snap *model.Snapshot, op *reconcile.Op) OpResult {
	forms, err := renderOp(ctx, e.Adapter, snap, op)
	if err != nil {
		return OpResult{Op: op, Status: StatusFailed, Err: err}
	}
	outcome := OpResult{Op: op, Status: StatusApplied}
	for _, form := range forms {
		outcome.Commands = append(outcome.Commands, form.String())
		if e.DryRun {
			continue
		}
		if _, err := e.Adapter.Submit(ctx, form); err != nil {
			outcome.Status = StatusFailed
			outcome.Err = err
			break
		}
	}
	if outcome.Status == StatusApplied && !e.DryRun &&
		op.Entity == reconcile.EntityVlan && op.Kind == reconcile.KindDelete {
		if err := e.confirmVlanGone(ctx, op.Key); err != nil {
			outcome.Status = StatusFailed
			outcome.Err = err
		}
	}
	return outcome
}

// confirmVlanGone re-reads the VLAN list after a delete. The web UIs
// answer delete posts with a success page even when the row survived,
// so acceptance of the form proves nothing.
func (e *Executor) confirmVlanGone(ctx context.Context, key string) error {
	vid, err := strconv.Atoi(key)
	if err != nil {
		return fmt.Errorf("vlan delete key %q: %w", key, err)
	}
	body, err := e.Adapter.FetchPage(ctx, transport.PageVlans)
	if err != nil {
		return fmt.Errorf("confirming vlan %d deletion: %w", vid, err)
	}
	if _, present := facts.VlansFromPage(e.Adapter.Family(), body)[vid]; present {
		return fmt.Errorf("vlan %d still present after delete", vid)
	}
	return nil
}

func blockedBy(op *reconcile.Op, unrunnable map[string]bool) []string {
	var blocked []string
	for _, dep := range op.DependsOn {
		if unrunnable[dep] {
			blocked = append(blocked, dep)
		}
	}
	return blocked
}
