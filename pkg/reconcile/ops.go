// Package reconcile computes the ordered operations that move a device
// from its gathered state to a desired state. Planning is pure: it
// never touches the device, so a plan can be reviewed before anything
// is applied.
package reconcile

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the lifecycle action of an operation.
type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Entity names the configuration surface an operation touches. Port
// settings and per-port VLAN settings live on different pages and are
// planned as separate entities, the way the device itself splits them.
type Entity string

const (
	EntityVlan     Entity = "vlan"
	EntityPort     Entity = "port"
	EntityPVID     Entity = "pvid"
	EntityTrunk    Entity = "trunk"
	EntityUser     Entity = "user"
	EntitySyslog   Entity = "syslog"
	EntityNTP      Entity = "ntp"
	EntityAAA      Entity = "aaa"
	EntitySecurity Entity = "security"
	EntityMirror   Entity = "mirror"
	EntitySTP      Entity = "stp"
)

// Op is one planned operation. Fields holds the values to set, keyed by
// canonical field name; Prev holds the device values the plan is
// replacing, for reporting. DependsOn lists the ids of operations that
// must succeed before this one may run.
type Op struct {
	ID        string
	Entity    Entity
	Kind      Kind
	Key       string
	Fields    map[string]string
	Prev      map[string]string
	DependsOn []string
}

// opID builds the stable identifier dependencies reference.
func opID(entity Entity, kind Kind, key string) string {
	return fmt.Sprintf("%s:%s:%s", entity, kind, key)
}

func newOp(entity Entity, kind Kind, key string) *Op {
	return &Op{
		ID:     opID(entity, kind, key),
		Entity: entity,
		Kind:   kind,
		Key:    key,
		Fields: make(map[string]string),
		Prev:   make(map[string]string),
	}
}

// set records a field change with its prior value.
func (o *Op) set(field, value, prev string) {
	o.Fields[field] = value
	if prev != "" || value == "" {
		o.Prev[field] = prev
	}
}

// changed reports whether the operation carries any field change.
func (o *Op) changed() bool {
	return len(o.Fields) > 0
}

// dependOn appends a dependency, skipping duplicates.
func (o *Op) dependOn(id string) {
	for _, d := range o.DependsOn {
		if d == id {
			return
		}
	}
	o.DependsOn = append(o.DependsOn, id)
}

// sensitiveFields never render their values in plan listings or logs.
var sensitiveFields = map[string]bool{
	"password":      true,
	"radius_secret": true,
	"tacacs_secret": true,
}

// String renders the operation for logs and plan listings with secret
// values masked.
func (o *Op) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-6s %s %s", o.Kind, o.Entity, o.Key)
	if len(o.Fields) > 0 {
		names := make([]string, 0, len(o.Fields))
		for f := range o.Fields {
			names = append(names, f)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, f := range names {
			value := o.Fields[f]
			if sensitiveFields[f] {
				value = "<hidden>"
			}
			if prev, ok := o.Prev[f]; ok && prev != "" {
				parts = append(parts, fmt.Sprintf("%s: %s -> %s", f, prev, value))
			} else {
				parts = append(parts, fmt.Sprintf("%s: %s", f, value))
			}
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	return b.String()
}
