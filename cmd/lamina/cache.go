package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lamina/internal/driver"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the artifact cache",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show where the cache lives and how much it holds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cache, err := driver.OpenUserCache("lamina")
		if err != nil {
			return fmt.Errorf("artifact cache: %w", err)
		}
		n, size, err := cache.Usage()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n%d artifacts, %d bytes\n", cache.Dir(), n, size)
		return nil
	},
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every cached artifact",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cache, err := driver.OpenUserCache("lamina")
		if err != nil {
			return fmt.Errorf("artifact cache: %w", err)
		}
		n, _, err := cache.Usage()
		if err != nil {
			return err
		}
		if err := cache.DropAll(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d artifacts from %s\n", n, cache.Dir())
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheInfoCmd, cacheCleanCmd)
}
