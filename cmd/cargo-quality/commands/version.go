package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/open-rust-Initiative/cargo-plugins/internal/update"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var flagCheckLatest bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cargo-quality %s (commit: %s)\n", Version, Commit)
		if !flagCheckLatest {
			return
		}
		r, err := update.NewChecker().Latest(context.Background(), Version)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: update check: %v\n", err)
			return
		}
		if !r.Newer() {
			fmt.Println("up to date")
			return
		}
		fmt.Printf("update available: %s\n  %s\n", r.Latest, r.Install)
		if bin := installedBinDir(); bin != "" && !dirInPATH(bin) {
			fmt.Printf("  then add %s to PATH so cargo finds `cargo quality`\n", bin)
		}
	},
}

func init() {
	versionCmd.Flags().BoolVar(&flagCheckLatest, "check", false, "Check GitHub for a newer release")
	rootCmd.AddCommand(versionCmd)
}

// installedBinDir is where `go install` puts binaries.
func installedBinDir() string {
	if gobin := os.Getenv("GOBIN"); gobin != "" {
		return gobin
	}
	if gopath := os.Getenv("GOPATH"); gopath != "" {
		return filepath.Join(filepath.SplitList(gopath)[0], "bin")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "go", "bin")
}
