package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/c360studio/semonto/tracking"
)

func logCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "log FILE...",
		Short: "Store tracked objects and convert them into the graph sink",
		Long: `Log reads tracked objects from JSON files, each holding one object or a
list of objects, converts them into the configured graph sink and stores them
in the tracking store.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cmd, opts)
			if err != nil {
				return err
			}
			defer app.Close()

			backend := app.plugin.Backend()
			for _, path := range args {
				objs, err := readObjects(path)
				if err != nil {
					return err
				}
				for _, obj := range objs {
					if err := backend.Log(cmd.Context(), obj); err != nil {
						return fmt.Errorf("log %s object from %s: %w", obj.StorageType(), path, err)
					}
				}
				app.logger.Info("Logged objects", "file", path, "count", len(objs))
			}
			return nil
		},
	}
}

func readObjects(path string) ([]tracking.Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read objects: %w", err)
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	default:
		items = []any{v}
	}

	objs := make([]tracking.Object, 0, len(items))
	for i, item := range items {
		obj, err := tracking.Normalize(item)
		if err != nil {
			return nil, fmt.Errorf("object %d of %s: %w", i, path, err)
		}
		objs = append(objs, obj)
	}
	return objs, nil
}
