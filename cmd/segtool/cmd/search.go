package cmd

import (
	"fmt"

	"github.com/downfa11-org/logseg/pkg/disk"
	"github.com/downfa11-org/logseg/pkg/types"
	"github.com/downfa11-org/logseg/util"
	"github.com/spf13/cobra"
)

var (
	searchFromPosition int64
	searchMapped       bool
)

var searchCmd = &cobra.Command{
	Use:   "search <segment> <offset>",
	Short: "Find the position of the first frame at or after an offset",
	Args:  cobra.ExactArgs(2),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().Int64Var(&searchFromPosition, "from-position", 0, "byte position to start scanning at")
	searchCmd.Flags().BoolVar(&searchMapped, "mmap", false, "scan through a read-only memory mapping")
}

func runSearch(cmd *cobra.Command, args []string) error {
	target := util.ParseInt64(args[1], -1)
	if target < 0 {
		return fmt.Errorf("invalid offset %q", args[1])
	}

	segment, closeSegment, err := openReadOnly(cfg.SegmentPath(args[0]), searchMapped)
	if err != nil {
		return err
	}
	defer closeSegment()

	pos, found, err := segment.SearchFor(target, searchFromPosition)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintf(cmd.OutOrStdout(), "offset %d not found\n", target)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "offset=%d position=%d\n", pos.Offset, pos.Position)
	return nil
}

// openReadOnly opens path either through the file descriptor or a memory
// mapping; both serve the same read operations.
func openReadOnly(path string, mapped bool) (types.MessageSet, func() error, error) {
	if mapped {
		m, err := disk.OpenMapped(path, cfg.MinPayloadSize)
		if err != nil {
			return nil, nil, err
		}
		return m, m.Close, nil
	}
	s, err := disk.OpenExisting(path, cfg.SegmentOptions(false))
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}
