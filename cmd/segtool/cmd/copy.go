package cmd

import (
	"fmt"
	"math"
	"os"

	"github.com/downfa11-org/logseg/pkg/disk"
	"github.com/spf13/cobra"
)

var (
	copyPosition int64
	copyMaxBytes int64
	copyAppend   bool
)

var copyCmd = &cobra.Command{
	Use:   "copy <segment> <destination>",
	Short: "Copy raw segment bytes to a file without decoding them",
	Long: `Copy transfers a byte range of the segment straight to the destination
file, through sendfile(2) where the platform supports it.`,
	Args: cobra.ExactArgs(2),
	RunE: runCopy,
}

func init() {
	copyCmd.Flags().Int64Var(&copyPosition, "position", 0, "first byte to copy")
	copyCmd.Flags().Int64Var(&copyMaxBytes, "max-bytes", math.MaxInt64, "copy at most this many bytes")
	copyCmd.Flags().BoolVar(&copyAppend, "append", false, "append to the destination instead of replacing it")
}

func runCopy(cmd *cobra.Command, args []string) error {
	segment, err := disk.OpenExisting(cfg.SegmentPath(args[0]), cfg.SegmentOptions(false))
	if err != nil {
		return err
	}
	defer segment.Close()

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if copyAppend {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	dst, err := os.OpenFile(args[1], flags, 0o644)
	if err != nil {
		return fmt.Errorf("open destination: %w", err)
	}

	var total int64
	for total < copyMaxBytes {
		n, err := segment.WriteTo(dst, copyPosition+total, copyMaxBytes-total)
		total += n
		if err != nil {
			_ = dst.Close()
			return err
		}
		if n == 0 {
			break
		}
	}

	if err := dst.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "copied %d bytes to %s\n", total, args[1])
	return nil
}
