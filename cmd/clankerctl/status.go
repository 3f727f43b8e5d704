package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/DNGriffin/clankercontext/cmd/clankerctl/ui"
	"github.com/DNGriffin/clankercontext/pkg/sdk/client"
	"github.com/DNGriffin/clankercontext/pkg/sdk/types"
)

func statusCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show detailed health for one fabric instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New()
			instances, err := c.ListInstances(cmd.Context(), resolveEndpoint(cmd))
			if err != nil {
				return err
			}

			target, ok := selectInstance(instances, id)
			if !ok {
				if id == "" {
					return fmt.Errorf("no live instances found")
				}
				return fmt.Errorf("no verified-live instance with id %q", id)
			}

			health, err := fetchHealth(cmd.Context(), target.Port)
			if err != nil {
				return err
			}

			pairs := []ui.Pair{
				ui.KV("id", health.InstanceID),
				ui.KV("name", health.WorkspaceName),
				ui.KV("workspace", health.WorkspacePath),
				ui.KV("port", strconv.Itoa(health.Port)),
				ui.KV("pid", strconv.Itoa(health.PID)),
				ui.KV("healthy", ui.Bool(health.Healthy)),
				ui.KV("capability available", ui.Bool(health.CapabilityAvailable)),
				ui.KV("uptime", time.Duration(health.UptimeSeconds*float64(time.Second)).Round(time.Second).String()),
			}
			if health.ClockHealth != nil {
				pairs = append(pairs,
					ui.KV("clock offset", fmt.Sprintf("%.1fms", health.ClockHealth.OffsetMs)),
					ui.KV("clock healthy", ui.Bool(health.ClockHealth.Healthy)),
				)
			}
			fmt.Print(ui.KeyValues("", pairs...))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Instance id to inspect (defaults to the only live instance, if there is exactly one)")
	return cmd
}

// selectInstance picks the instance matching id, or the sole instance in
// the set when id is empty and exactly one instance is live.
func selectInstance(instances []types.InstanceRecord, id string) (types.InstanceRecord, bool) {
	if id != "" {
		for _, inst := range instances {
			if inst.ID == id {
				return inst, true
			}
		}
		return types.InstanceRecord{}, false
	}
	if len(instances) == 1 {
		return instances[0], true
	}
	return types.InstanceRecord{}, false
}

func fetchHealth(ctx context.Context, port int) (types.HealthResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	url := fmt.Sprintf("http://%s/health", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.HealthResponse{}, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return types.HealthResponse{}, err
	}
	defer resp.Body.Close()

	var health types.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return types.HealthResponse{}, fmt.Errorf("decode health response: %w", err)
	}
	return health, nil
}
