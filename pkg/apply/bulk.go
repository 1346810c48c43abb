package apply

import (
	"context"
	"strconv"

	"github.com/gsconf-net/gsconf/pkg/model"
	"github.com/gsconf-net/gsconf/pkg/reconcile"
	"github.com/gsconf-net/gsconf/pkg/util"
)

// Reconcile plans the desired state against the snapshot and applies
// the resulting operations in one run. Desired entities that already
// match the device are counted as unchanged in the result, so a bulk
// request over many ports reports exactly which slice of it did work.
func Reconcile(ctx context.Context, exec *Executor, snap *model.Snapshot, desired *model.DesiredState) (*Result, error) {
	ops, err := reconcile.Plan(snap, desired)
	if err != nil {
		return nil, err
	}
	util.WithDevice(exec.Target).Infof("plan has %d operations", len(ops))
	result := exec.Apply(ctx, snap, ops)
	result.Unchanged = countUnchanged(desired, ops)
	return result, nil
}

// countUnchanged counts desired entities for which planning produced no
// operation. Port settings and per-port VLAN settings are two operation
// kinds over the same entity, so both mark the port as touched.
func countUnchanged(desired *model.DesiredState, ops []*reconcile.Op) int {
	touched := make(map[string]bool)
	for _, op := range ops {
		switch op.Entity {
		case reconcile.EntityPort, reconcile.EntityPVID:
			touched["port:"+op.Key] = true
		default:
			touched[string(op.Entity)+":"+op.Key] = true
		}
	}

	unchanged := 0
	keep := func(key string) {
		if !touched[key] {
			unchanged++
		}
	}
	for id := range desired.Ports {
		keep("port:" + id)
	}
	for vid := range desired.Vlans {
		keep("vlan:" + strconv.Itoa(vid))
	}
	for g := range desired.Trunks {
		keep("trunk:" + g)
	}
	for name := range desired.Users {
		keep("user:" + name)
	}
	for addr := range desired.Syslog {
		keep("syslog:" + addr)
	}
	if desired.Ntp != nil {
		keep("ntp:time")
	}
	if desired.AAA != nil {
		keep("aaa:auth")
	}
	if desired.Security != nil {
		keep("security:security")
	}
	for id := range desired.Mirrors {
		keep("mirror:" + strconv.Itoa(id))
	}
	if desired.SpanningTree != nil {
		keep("stp:stp")
	}
	return unchanged
}
