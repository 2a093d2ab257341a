package cmd

import (
	"fmt"

	"github.com/downfa11-org/logseg/pkg/disk"
	"github.com/downfa11-org/logseg/pkg/types"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	genCount       int
	genStartOffset int64
	genValueSize   int
	genBatchSize   int
)

var genCmd = &cobra.Command{
	Use:   "gen <segment>",
	Short: "Append generated messages to a segment",
	Long: `Append --count messages with random UUID keys, starting at --start-offset.
The segment is created when it does not exist yet.`,
	Args: cobra.ExactArgs(1),
	RunE: runGen,
}

func init() {
	genCmd.Flags().IntVarP(&genCount, "count", "n", 100, "number of messages")
	genCmd.Flags().Int64Var(&genStartOffset, "start-offset", 0, "offset of the first message")
	genCmd.Flags().IntVar(&genValueSize, "value-size", 64, "value size in bytes")
	genCmd.Flags().IntVar(&genBatchSize, "batch", 32, "messages per append")
}

func runGen(cmd *cobra.Command, args []string) error {
	if genCount < 0 || genValueSize < 0 || genBatchSize <= 0 {
		return fmt.Errorf("count, value-size and batch must be positive")
	}

	manager := disk.NewManager(cfg.LogDir, cfg.SegmentOptions(true))
	defer func() { _ = manager.CloseAll() }()

	segment, err := manager.Get(args[0])
	if err != nil {
		return err
	}

	value := make([]byte, genValueSize)
	for i := range value {
		value[i] = byte('a' + i%26)
	}

	buf := disk.NewFrameBuffer(genBatchSize * (disk.LogOverhead + types.MessageHeaderSize + 36 + genValueSize))
	var written int64
	for i := 0; i < genCount; i++ {
		msg := types.Message{
			Offset: genStartOffset + int64(i),
			Key:    []byte(uuid.NewString()),
			Value:  value,
		}
		if err := buf.AddMessage(msg); err != nil {
			return err
		}
		if buf.Count() == genBatchSize || i == genCount-1 {
			n, err := segment.Append(buf)
			written += n
			if err != nil {
				return err
			}
			buf.Reset()
		}
	}

	if err := segment.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d messages (%d bytes) to %s, size now %d\n",
		genCount, written, segment.Path(), segment.SizeInBytes())
	return manager.CloseAll()
}
