// Package discovery implements the Discovery Client (§4.F): given a
// nominal endpoint for any reachable instance, find the set of
// verified-live instances, falling back to a parallel port-range scan
// when the nominal endpoint is unreachable.
package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/DNGriffin/clankercontext/pkg/sdk/defaults"
	"github.com/DNGriffin/clankercontext/pkg/sdk/types"
)

// Client discovers and dispatches to live instances of the fabric.
type Client struct {
	httpClient *http.Client
}

// New builds a Client. A dedicated *http.Client lets callers tune
// transport-level settings (proxies, TLS — though the fabric is loopback
// only, so these never matter in practice) without touching
// http.DefaultClient process-wide.
func New() *Client {
	return &Client{httpClient: &http.Client{}}
}

// Discover returns the verified-live set of instances reachable from
// nominalHost, a "host:port" of any instance believed to be up. If that
// endpoint doesn't answer, it scans the reserved port range on loopback.
func (c *Client) Discover(ctx context.Context, nominalHost string) ([]types.InstanceRecord, error) {
	records, sourceErr := c.fetchInstances(ctx, nominalHost, defaults.VerifyProbeTimeout)
	if sourceErr != nil {
		var err error
		records, err = c.scanForInstances(ctx)
		if err != nil {
			return nil, err
		}
	}
	return c.verify(ctx, records), nil
}

// fetchInstances GETs /instances from host ("127.0.0.1:port" or
// "host:port") within timeout.
func (c *Client) fetchInstances(ctx context.Context, host string, timeout time.Duration) ([]types.InstanceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("http://%s/instances", host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery: %s returned status %d", url, resp.StatusCode)
	}

	var body types.InstancesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Instances, nil
}

// scanForInstances probes /health on every port in the reserved range in
// parallel, and returns the /instances body from the first port that
// answers. Serial scanning across a 100-port range would be far too slow
// for a fallback path a user is actively waiting on.
func (c *Client) scanForInstances(ctx context.Context) ([]types.InstanceRecord, error) {
	type result struct {
		host string
		ok   bool
	}

	results := make(chan result, defaults.PortRangeSize)
	var wg sync.WaitGroup
	for p := defaults.PortRangeBase; p < defaults.PortRangeBase+defaults.PortRangeSize; p++ {
		wg.Add(1)
		go func(port int) {
			defer wg.Done()
			host := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
			results <- result{host: host, ok: c.probeHealth(ctx, host, defaults.RangeScanProbeTimeout, "")}
		}(p)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var responder string
	for r := range results {
		if r.ok && responder == "" {
			responder = r.host
		}
	}
	if responder == "" {
		return nil, fmt.Errorf("discovery: no instance responded on any port in [%d, %d)", defaults.PortRangeBase, defaults.PortRangeBase+defaults.PortRangeSize)
	}
	return c.fetchInstances(ctx, responder, defaults.VerifyProbeTimeout)
}

// verify probes each candidate record's own port and keeps only those
// that answer /health with a matching instanceId, dropping the rest
// silently (§4.F step 4-5).
func (c *Client) verify(ctx context.Context, candidates []types.InstanceRecord) []types.InstanceRecord {
	verified := make([]types.InstanceRecord, 0, len(candidates))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, rec := range candidates {
		wg.Add(1)
		go func(rec types.InstanceRecord) {
			defer wg.Done()
			host := net.JoinHostPort("127.0.0.1", strconv.Itoa(rec.Port))
			if c.probeHealth(ctx, host, defaults.VerifyProbeTimeout, rec.ID) {
				mu.Lock()
				verified = append(verified, rec)
				mu.Unlock()
			}
		}(rec)
	}
	wg.Wait()
	return verified
}

// probeHealth GETs /health on host within timeout. If wantID is non-empty,
// the response's instanceId must match it for the probe to count as a
// success.
func (c *Client) probeHealth(ctx context.Context, host string, timeout time.Duration, wantID string) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("http://%s/health", host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}
	if wantID == "" {
		return true
	}

	var body types.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false
	}
	return body.InstanceID == wantID
}

// Send dispatches content to instance rec, always via rec.Port — never
// via whatever endpoint was used for discovery, because each instance
// only serves its own id (§4.F).
func (c *Client) Send(ctx context.Context, rec types.InstanceRecord, content string) (types.SendResponse, error) {
	host := net.JoinHostPort("127.0.0.1", strconv.Itoa(rec.Port))
	url := fmt.Sprintf("http://%s/instance/%s/send", host, rec.ID)

	payload, err := json.Marshal(types.SendRequest{Content: content})
	if err != nil {
		return types.SendResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return types.SendResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.SendResponse{}, err
	}
	defer resp.Body.Close()

	var body types.SendResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return types.SendResponse{}, fmt.Errorf("discovery: decode send response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && body.Error == "" {
		body.Error = fmt.Sprintf("send returned status %d", resp.StatusCode)
	}
	return body, nil
}
