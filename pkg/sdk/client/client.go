// Package client is the embeddable SDK's thin convenience wrapper (§4.L)
// over the fabric's Discovery Client, for external importers that only
// want "send this content to instance X" without learning the fabric's
// internals.
package client

import (
	"context"
	"fmt"

	"github.com/DNGriffin/clankercontext/internal/fabric/discovery"
	"github.com/DNGriffin/clankercontext/pkg/sdk/defaults"
	"github.com/DNGriffin/clankercontext/pkg/sdk/types"
)

// DefaultNominalEndpoint is the endpoint clients probe first when no
// explicit endpoint is configured: the base of the reserved port range,
// which is where the first instance on a machine usually ends up.
func DefaultNominalEndpoint() string {
	return fmt.Sprintf("127.0.0.1:%d", defaults.PortRangeBase)
}

// API is the surface external importers link against instead of
// reimplementing wire formats.
type API interface {
	ListInstances(ctx context.Context, nominalEndpoint string) ([]types.InstanceRecord, error)
	Send(ctx context.Context, instance types.InstanceRecord, content string) (types.SendResponse, error)
	SendByID(ctx context.Context, nominalEndpoint, instanceID, content string) (types.SendResponse, error)
}

// Client implements API by delegating to the Discovery Client.
type Client struct {
	discovery *discovery.Client
}

// New builds a Client.
func New() *Client {
	return &Client{discovery: discovery.New()}
}

// ListInstances returns the verified-live instances reachable from
// nominalEndpoint (§4.F).
func (c *Client) ListInstances(ctx context.Context, nominalEndpoint string) ([]types.InstanceRecord, error) {
	return c.discovery.Discover(ctx, nominalEndpoint)
}

// Send dispatches content directly to a known, already-verified instance.
func (c *Client) Send(ctx context.Context, instance types.InstanceRecord, content string) (types.SendResponse, error) {
	return c.discovery.Send(ctx, instance, content)
}

// SendByID discovers instances from nominalEndpoint, finds the one whose
// id matches instanceID, and dispatches content to it.
func (c *Client) SendByID(ctx context.Context, nominalEndpoint, instanceID, content string) (types.SendResponse, error) {
	instances, err := c.ListInstances(ctx, nominalEndpoint)
	if err != nil {
		return types.SendResponse{}, fmt.Errorf("sdk client: list instances: %w", err)
	}
	for _, inst := range instances {
		if inst.ID == instanceID {
			return c.Send(ctx, inst, content)
		}
	}
	return types.SendResponse{}, fmt.Errorf("sdk client: no verified-live instance with id %q", instanceID)
}

var _ API = (*Client)(nil)
