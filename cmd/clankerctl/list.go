package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/DNGriffin/clankercontext/cmd/clankerctl/ui"
	"github.com/DNGriffin/clankercontext/pkg/sdk/client"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List verified-live fabric instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New()
			instances, err := c.ListInstances(cmd.Context(), resolveEndpoint(cmd))
			if err != nil {
				return err
			}
			if len(instances) == 0 {
				fmt.Println(ui.Muted("no live instances found"))
				return nil
			}

			headers := []string{"ID", "NAME", "WORKSPACE", "PORT", "PID"}
			rows := make([][]string, 0, len(instances))
			for _, inst := range instances {
				rows = append(rows, []string{
					inst.ID,
					inst.Name,
					inst.WorkspacePath,
					strconv.Itoa(inst.Port),
					strconv.Itoa(inst.PID),
				})
			}
			fmt.Println(ui.Table(headers, rows))
			return nil
		},
	}
}
