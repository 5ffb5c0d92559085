package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"mercator-hq/turnstile/pkg/cli"
)

// Set with -ldflags "-X main.Version=...".
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionFlags struct {
	short  bool
	format string
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the Turnstile version, the commit and date it was built from, and the Go toolchain and platform.`,
	RunE:  printVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolVar(&versionFlags.short, "short", false, "print only the version")
	versionCmd.Flags().StringVar(&versionFlags.format, "format", "text", "output format: text, json")
}

// buildInfo describes the running binary.
type buildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func currentBuild() buildInfo {
	return buildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func printVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	info := currentBuild()

	if versionFlags.short {
		_, err := fmt.Fprintln(out, info.Version)
		return err
	}

	format, err := cli.ParseFormat(versionFlags.format)
	if err != nil {
		return err
	}
	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(out, info)
	}

	_, err = fmt.Fprintf(out, "Turnstile %s\nGit Commit: %s\nBuild Date: %s\nGo Version: %s\nOS/Arch: %s\n",
		info.Version, info.GitCommit, info.BuildDate, info.GoVersion, info.Platform)
	return err
}
