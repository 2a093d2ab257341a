package cmd

import (
	"fmt"
	"math"

	"github.com/downfa11-org/logseg/pkg/disk"
	"github.com/downfa11-org/logseg/pkg/types"
	"github.com/spf13/cobra"
)

var (
	dumpFromOffset int64
	dumpLimit      int
	dumpDecode     bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump <segment>",
	Short: "Print the frames of a segment",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().Int64Var(&dumpFromOffset, "from-offset", 0, "start at the first frame with at least this offset")
	dumpCmd.Flags().IntVar(&dumpLimit, "limit", 0, "stop after this many frames (0 = all)")
	dumpCmd.Flags().BoolVar(&dumpDecode, "decode", false, "decode payloads as messages")
}

func runDump(cmd *cobra.Command, args []string) error {
	segment, err := disk.OpenExisting(cfg.SegmentPath(args[0]), cfg.SegmentOptions(false))
	if err != nil {
		return err
	}
	defer segment.Close()

	pos, found, err := segment.SearchFor(dumpFromOffset, 0)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintf(cmd.OutOrStdout(), "no frame at or after offset %d\n", dumpFromOffset)
		return nil
	}

	view, err := segment.Slice(pos.Position, math.MaxInt64)
	if err != nil {
		return err
	}
	defer view.Close()

	out := cmd.OutOrStdout()
	it := view.Iterator(cfg.MaxRecordSize)
	printed := 0
	for it.Next() {
		f := it.Frame()
		if !dumpDecode {
			fmt.Fprintf(out, "offset=%d position=%d size=%d\n", f.Offset, pos.Position+f.Position, len(f.Payload))
		} else {
			msg, err := types.DecodeMessage(f.Offset, f.Payload)
			if err != nil {
				return fmt.Errorf("frame at position %d: %w", pos.Position+f.Position, err)
			}
			fmt.Fprintf(out, "position=%d %s\n", pos.Position+f.Position, msg)
		}
		printed++
		if dumpLimit > 0 && printed >= dumpLimit {
			break
		}
	}
	return it.Err()
}
