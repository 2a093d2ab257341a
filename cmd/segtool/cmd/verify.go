package cmd

import (
	"fmt"

	"github.com/downfa11-org/logseg/pkg/disk"
	"github.com/downfa11-org/logseg/pkg/types"
	"github.com/downfa11-org/logseg/util"
	"github.com/spf13/cobra"
)

var (
	verifyChecksums bool
	verifyRepair    bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify <segment>",
	Short: "Scan a segment and report damaged or partial tail data",
	Long: `Verify maps the segment read-only and walks every frame. Bytes after the
last complete frame are reported; --repair truncates them away.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyChecksums, "checksums", false, "decode payloads and check message checksums")
	verifyCmd.Flags().BoolVar(&verifyRepair, "repair", false, "truncate bytes after the last complete frame")
}

type verifyReport struct {
	frames     int
	validBytes int64
	size       int64
	lastOffset int64
}

func runVerify(cmd *cobra.Command, args []string) error {
	path := cfg.SegmentPath(args[0])
	report, err := scanSegment(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d frames, %d valid bytes of %d", path, report.frames, report.validBytes, report.size)
	if report.frames > 0 {
		fmt.Fprintf(out, ", last offset %d", report.lastOffset)
	}
	fmt.Fprintln(out)

	trailing := report.size - report.validBytes
	if trailing == 0 {
		return nil
	}
	fmt.Fprintf(out, "%d trailing bytes after the last complete frame\n", trailing)
	if !verifyRepair {
		return nil
	}

	segment, err := disk.OpenExisting(path, cfg.SegmentOptions(true))
	if err != nil {
		return err
	}
	removed, err := segment.TruncateTo(report.validBytes)
	if err != nil {
		_ = segment.Close()
		return err
	}
	util.Info("repaired %s: removed %d trailing bytes", path, removed)
	fmt.Fprintf(out, "repaired: removed %d bytes\n", removed)
	return segment.Close()
}

func scanSegment(path string) (verifyReport, error) {
	mapped, err := disk.OpenMapped(path, cfg.MinPayloadSize)
	if err != nil {
		return verifyReport{}, err
	}
	defer mapped.Close()

	report := verifyReport{size: mapped.SizeInBytes()}
	it := mapped.Iterator(cfg.MaxRecordSize)
	for it.Next() {
		f := it.Frame()
		if verifyChecksums {
			if _, err := types.DecodeMessage(f.Offset, f.Payload); err != nil {
				return report, fmt.Errorf("frame at position %d: %w", f.Position, err)
			}
		}
		report.frames++
		report.lastOffset = f.Offset
	}
	report.validBytes = it.ValidBytes()
	return report, it.Err()
}
