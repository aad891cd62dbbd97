package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"quark/internal/drive"
	"quark/internal/logging"
	"quark/internal/pipeline"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "List the contents of a remote directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			path := "/"
			if len(args) == 1 {
				path = args[0]
			}

			client, err := drive.NewClient(cfg, logging.NewNop())
			if err != nil {
				return err
			}

			runCtx := cmd.Context()
			folderID, err := pipeline.ResolvePath(runCtx, client, path)
			if err != nil {
				return err
			}
			nodes, err := client.List(runCtx, folderID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(nodes) == 0 {
				fmt.Fprintf(out, "%s is empty\n", path)
				return nil
			}

			rows := make([][]string, 0, len(nodes))
			for _, node := range nodes {
				rows = append(rows, []string{
					nodeType(node),
					node.Name,
					nodeSize(node),
					nodeUpdated(node),
					node.ID,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Type", "Name", "Size", "Updated", "ID"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func nodeType(node drive.Node) string {
	if node.Dir {
		return "dir"
	}
	if drive.IsArchive(node) {
		return "archive"
	}
	return "file"
}

func nodeSize(node drive.Node) string {
	if node.Dir {
		return "-"
	}
	return formatSize(node.Size)
}

func nodeUpdated(node drive.Node) string {
	if node.UpdatedAt == 0 {
		return "-"
	}
	return time.UnixMilli(node.UpdatedAt).Local().Format("2006-01-02 15:04")
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return strconv.FormatInt(size, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
