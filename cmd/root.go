package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tanq16/segdl/internal/utils"
)

var SegdlVersion = "dev"

var (
	configPath string
	zeroCopy   bool
	settings   = viper.New()
)

var rootCmd = &cobra.Command{
	Use:     "segdl [URL...]",
	Short:   "segdl downloads files in parallel byte-range segments",
	Long:    "segdl downloads files in parallel byte-range segments.\nWith no URL arguments it reads one URL per line from stdin.",
	Version: SegdlVersion,
	Args:    cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var entries []utils.DownloadEntry
		if len(args) == 0 {
			var err error
			entries, err = utils.ReadURLList(os.Stdin)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading URLs from stdin: %v\n", err)
				os.Exit(1)
			}
		} else {
			for _, arg := range args {
				entries = append(entries, utils.DownloadEntry{URL: arg})
			}
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No URL provided")
			os.Exit(1)
		}
		os.Exit(run(entries))
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "YAML config file")
	flags.IntP("threads", "t", utils.DefaultThreads, "Number of download workers shared by all downloads")
	flags.Int64P("segment-size", "s", utils.DefaultSegmentSize, "Bytes per segment")
	flags.IntP("buffer-size", "b", utils.DefaultBufferSize, "Copy buffer size in bytes for buffered transfers")
	flags.BoolVarP(&zeroCopy, "zero-copy", "z", false, "Move bytes socket to file with splice (linux only)")
	flags.StringP("output-dir", "d", "", "Directory for downloaded files")
	flags.Duration("connect-timeout", utils.DefaultConnectTimeout, "Timeout for connecting and for receiving response headers")
	flags.Duration("progress-interval", utils.DefaultProgressInterval, "Progress refresh interval")
	flags.String("log-file", "", "Write logs to this file")
	flags.Bool("debug", false, "Enable debug logging")
	flags.Bool("no-progress", false, "Disable the live progress display")

	for _, name := range []string{
		"threads", "segment-size", "buffer-size", "output-dir", "connect-timeout",
		"progress-interval", "log-file", "debug", "no-progress",
	} {
		settings.BindPFlag(flagKey(name), flags.Lookup(name))
	}

	rootCmd.AddCommand(newBatchCmd())
}
