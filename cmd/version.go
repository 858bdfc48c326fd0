// =============================================================================
// DIAN to Siigo Converter - Version Command
// =============================================================================
//
// Prints the converter version and the commit it was built from. Release
// builds stamp both with ldflags:
//
//   go build -ldflags "-X '.../cmd.Version=0.3.0' -X '.../cmd.Commit=$(git rev-parse --short HEAD)' -X '.../cmd.BuildDate=$(date -u +%F)'"
//
// Plain `go build` and `go install` leave the stamps empty; the commit and
// date then come from the VCS data Go embeds in the binary.
//
// =============================================================================

package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	// Version is the release of the converter.
	Version = "0.3.0"
	// Commit is the source revision, set with ldflags.
	Commit = ""
	// BuildDate is the build date, set with ldflags.
	BuildDate = ""
)

var versionJSON bool

// buildInfo is what `version` reports.
type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// currentBuild fills unset stamps from the embedded VCS settings.
func currentBuild() buildInfo {
	info := buildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && info.Commit == "":
				info.Commit = s.Value
				if len(info.Commit) > 12 {
					info.Commit = info.Commit[:12]
				}
			case s.Key == "vcs.time" && info.BuildDate == "":
				info.BuildDate = s.Value
			}
		}
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.BuildDate == "" {
		info.BuildDate = "unknown"
	}
	return info
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the converter version",
	Args:  cobra.NoArgs,
	// version needs no configuration.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		info := currentBuild()
		out := cmd.OutOrStdout()
		if versionJSON {
			return json.NewEncoder(out).Encode(info)
		}
		fmt.Fprintf(out, "dian2siigo %s (%s)\n", info.Version, info.Commit)
		fmt.Fprintf(out, "Built:    %s\n", info.BuildDate)
		fmt.Fprintf(out, "Go:       %s %s\n", info.GoVersion, info.Platform)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print build information as JSON")
}
