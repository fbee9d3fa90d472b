package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"voxelconnect/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <manifest.yaml>",
	Short: "Load structures and experiments from a YAML manifest into the data directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := store.LoadManifest(args[0])
		if err != nil {
			return err
		}
		s, err := store.Create(flagDataDir)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Import(m); err != nil {
			return err
		}
		fmt.Printf("Imported %d structures and %d experiments into %s\n", len(m.Structures), len(m.Experiments), flagDataDir)
		return nil
	},
}
