package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lamina/internal/buildpipeline"
	"lamina/internal/version"
)

type versionPayload struct {
	Tool      string   `json:"tool"`
	Version   string   `json:"version"`
	GitCommit string   `json:"git_commit,omitempty"`
	BuildDate string   `json:"build_date,omitempty"`
	Targets   []string `json:"targets"`
}

var versionFormat string

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show lamina version and supported targets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		targets := make([]string, len(buildpipeline.Targets))
		for i, t := range buildpipeline.Targets {
			targets[i] = string(t)
		}
		switch strings.ToLower(versionFormat) {
		case "pretty":
			return version.Banner(cmd.OutOrStdout(), targets)
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(versionPayload{
				Tool:      "lamina",
				Version:   version.Version,
				GitCommit: version.GitCommit,
				BuildDate: version.BuildDate,
				Targets:   targets,
			})
		}
		return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
	},
}
