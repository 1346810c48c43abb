// Package device manages the lifecycle of a switch connection: detect
// the family, log in, probe the identity once and keep it with the
// session. Model and firmware never change mid-connection, so every
// consumer reads the cached identity instead of re-querying the device.
package device

import (
	"context"
	"sync"

	"github.com/gsconf-net/gsconf/pkg/facts"
	"github.com/gsconf-net/gsconf/pkg/firmware"
	"github.com/gsconf-net/gsconf/pkg/model"
	"github.com/gsconf-net/gsconf/pkg/transport"
	"github.com/gsconf-net/gsconf/pkg/util"
)

// Conn is an authenticated session with one device.
type Conn struct {
	mu       sync.RWMutex
	target   string
	adapter  transport.Adapter
	identity *model.DeviceIdentity
	fw       firmware.Version
	closed   bool
}

// Connect detects the device behind cfg.Target, authenticates and
// probes the identity. hint may name the expected family; detection
// always wins, a mismatch is only logged.
func Connect(ctx context.Context, cfg transport.Config, hint model.Family) (*Conn, error) {
	adapter, err := transport.New(ctx, cfg, hint)
	if err != nil {
		return nil, err
	}
	return establish(ctx, cfg.Target, adapter)
}

// ConnectWith wraps an existing adapter, logging in and probing the
// identity. Used by tests and by callers that already detected the
// family.
func ConnectWith(ctx context.Context, target string, adapter transport.Adapter) (*Conn, error) {
	return establish(ctx, target, adapter)
}

func establish(ctx context.Context, target string, adapter transport.Adapter) (*Conn, error) {
	if err := adapter.Login(ctx); err != nil {
		return nil, err
	}
	snap, err := facts.Gather(ctx, adapter, nil)
	if err != nil {
		adapter.Logout(ctx)
		return nil, err
	}
	conn := &Conn{
		target:   target,
		adapter:  adapter,
		identity: snap.Identity,
		fw:       firmware.Parse(snap.Identity.Firmware),
	}
	util.WithDevice(target).Infof("connected to %s (%s, firmware %s)",
		snap.Identity.Model, adapter.Family(), snap.Identity.Firmware)
	return conn, nil
}

// Target returns the address the connection was opened against.
func (c *Conn) Target() string {
	return c.target
}

// Family returns the detected device family.
func (c *Conn) Family() model.Family {
	return c.adapter.Family()
}

// Identity returns the identity probed at connect time.
func (c *Conn) Identity() *model.DeviceIdentity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

// Firmware returns the parsed firmware version from connect time.
func (c *Conn) Firmware() firmware.Version {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fw
}

// Adapter exposes the underlying transport for gathering and applying.
func (c *Conn) Adapter() transport.Adapter {
	return c.adapter
}

// Gather scrapes the requested sections over this connection.
func (c *Conn) Gather(ctx context.Context, sections []model.Section) (*model.Snapshot, error) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return nil, util.ErrNotConnected
	}
	return facts.Gather(ctx, c.adapter, sections)
}

// Close logs out. Safe to call twice.
func (c *Conn) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.adapter.Logout(ctx)
}
