package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/CodMac/arch-depends/cache"
	"github.com/CodMac/arch-depends/logging"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "管理解析缓存",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [path]",
	Short: "清空源码目录对应的解析缓存",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		cfg, err := loadConfig(cmd, root)
		if err != nil {
			return err
		}
		log := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		path := cacheFile(cfg, root)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Fprintln(cmd.OutOrStdout(), "no cache at", path)
			return nil
		}
		store, err := cache.OpenSQLite(path)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Len(cmd.Context())
		if err != nil {
			log.WithError(err).Warn("count cache entries")
		}
		if err := store.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries from %s\n", n, path)
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().StringVar(&af.cachePath, "cache-path", "", "缓存数据库路径")
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
