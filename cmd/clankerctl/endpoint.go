package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/DNGriffin/clankercontext/pkg/sdk/client"
)

const envEndpoint = "CLANKERCONTEXT_ENDPOINT"

// resolveEndpoint returns the nominal host:port to discover instances from,
// preferring the --endpoint flag, then CLANKERCONTEXT_ENDPOINT, then the
// default base of the reserved port range.
func resolveEndpoint(cmd *cobra.Command) string {
	if v, _ := cmd.Flags().GetString("endpoint"); v != "" {
		return v
	}
	if v := os.Getenv(envEndpoint); v != "" {
		return v
	}
	return client.DefaultNominalEndpoint()
}
