package cmd

import (
	"fmt"

	"github.com/downfa11-org/logseg/pkg/disk"
	"github.com/downfa11-org/logseg/util"
	"github.com/spf13/cobra"
)

var truncateCmd = &cobra.Command{
	Use:   "truncate <segment> <size>",
	Short: "Truncate a segment to the given number of bytes",
	Long: `Truncate drops everything past <size> bytes. The size is not aligned to
frame boundaries; use "search" to find one first.`,
	Args: cobra.ExactArgs(2),
	RunE: runTruncate,
}

func runTruncate(cmd *cobra.Command, args []string) error {
	size := util.ParseInt64(args[1], -1)
	if size < 0 {
		return fmt.Errorf("invalid size %q", args[1])
	}

	segment, err := disk.OpenExisting(cfg.SegmentPath(args[0]), cfg.SegmentOptions(true))
	if err != nil {
		return err
	}

	removed, err := segment.TruncateTo(size)
	if err != nil {
		_ = segment.Close()
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d bytes, size now %d\n", removed, segment.SizeInBytes())
	return segment.Close()
}
