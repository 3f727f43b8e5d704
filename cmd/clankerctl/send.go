package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DNGriffin/clankercontext/cmd/clankerctl/ui"
	"github.com/DNGriffin/clankercontext/pkg/sdk/client"
)

func sendCmd() *cobra.Command {
	var (
		id       string
		content  string
		filePath string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Dispatch content to one fabric instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id is required")
			}

			payload, err := resolveContent(content, filePath)
			if err != nil {
				return err
			}

			c := client.New()
			resp, err := c.SendByID(cmd.Context(), resolveEndpoint(cmd), id, payload)
			if err != nil {
				return err
			}
			if !resp.Success {
				return fmt.Errorf("instance %s rejected the send: %s", id, resp.Error)
			}

			fmt.Println(ui.SuccessMsg("delivered to %s", id))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Target instance id")
	cmd.Flags().StringVar(&content, "content", "", "Content to send, given inline")
	cmd.Flags().StringVar(&filePath, "file", "", "Read content from this file instead of --content")
	return cmd
}

func resolveContent(content, filePath string) (string, error) {
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("read --file %q: %w", filePath, err)
		}
		return string(data), nil
	}
	if content == "" {
		return "", fmt.Errorf("one of --content or --file is required")
	}
	return content, nil
}
