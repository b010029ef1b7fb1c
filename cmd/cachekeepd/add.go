package main

import (
	"fmt"
	"log/slog"

	"github.com/sagarc03/cachekeep"
	"github.com/spf13/cobra"
)

var addStorePolicy string

var addCmd = &cobra.Command{
	Use:   "add <source> <local-path>",
	Short: "Add a local file to the cache under the given source identifier",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addStorePolicy, "store-policy", "forever", "forever|<duration> (expires-after)|notused:<duration>")
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			slog.Error("failed to close metadata store", "err", err)
		}
	}()

	manager, err := cachekeep.InitWithConfig(store, cfg.Storage.Dir, cachekeep.StorageConfig{
		EvictionPolicy: evictionPolicy(),
	})
	if err != nil {
		return err
	}

	policy, err := parseStorePolicyFlag(addStorePolicy)
	if err != nil {
		return err
	}

	source := cachekeep.ParseSource(args[0])
	file, err := manager.CopyLocalFile(ctx, source, policy, "", args[1])
	if err != nil {
		return err
	}

	fmt.Printf("id=%d status=%s path=%s\n", file.Record.ID, file.Record.Status, file.CachePath())
	return nil
}
