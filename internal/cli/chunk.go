package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdu3/AstarML/internal/chunk"
	"github.com/pdu3/AstarML/internal/logger"
)

var (
	dataRoot     string
	chunkOut     string
	chunkSources []string
	chunkWorkers int
)

// chunkCmd represents the chunk command
var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Chunk docs, forum threads and blog posts into evidence JSONL",
	Long: `Chunk reads local sources under --data-root and writes one JSON object per
passage:
- docs:   data/docs or docs (*.md, *.html), split on H2/H3 with code kept apart
- forums: data/forums/threads.jsonl or forums/threads.jsonl
- blogs:  data/blogs or blogs (*.md with front matter)

Example:
  astarml chunk
  astarml chunk --data-root ./corpus --out artifacts/chunks.jsonl --sources docs,blogs`,
	Args: cobra.NoArgs,
	RunE: runChunk,
}

func init() {
	rootCmd.AddCommand(chunkCmd)

	chunkCmd.Flags().StringVar(&dataRoot, "data-root", ".", "project root containing data/")
	chunkCmd.Flags().StringVar(&chunkOut, "out", "artifacts/chunks.jsonl", "output JSONL file")
	chunkCmd.Flags().StringSliceVar(&chunkSources, "sources", chunk.DefaultSources, "sources to include (docs, forums, blogs)")
	chunkCmd.Flags().IntVar(&chunkWorkers, "workers", runtime.NumCPU(), "files parsed in parallel")
}

func runChunk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if verbose {
		fmt.Fprintf(os.Stderr, "  Data root:  %s\n", dataRoot)
		fmt.Fprintf(os.Stderr, "  Sources:    %v\n", chunkSources)
		fmt.Fprintf(os.Stderr, "  Workers:    %d\n", chunkWorkers)
		fmt.Fprintln(os.Stderr)
	}

	n, err := chunk.Run(cmd.Context(), chunk.Options{
		DataRoot: dataRoot,
		Out:      chunkOut,
		Sources:  chunkSources,
		Workers:  chunkWorkers,
		Log:      log,
	})
	if err != nil {
		return fmt.Errorf("chunk: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d chunks -> %s\n", n, chunkOut)
	return nil
}
