package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"voxelconnect/internal/models"
	"voxelconnect/internal/store"
	"voxelconnect/pkg/archive"
	"voxelconnect/pkg/connectivity"
)

var flagHemisphere string

var showCmd = &cobra.Command{
	Use:   "show [archive]",
	Short: "Summarize a saved result archive, or list stored groups",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return listGroups()
		}
		h, err := models.ParseHemisphere(flagHemisphere)
		if err != nil {
			return fmt.Errorf("--hemisphere: %w", err)
		}
		var res connectivity.ResultMatrixSet
		if err := archive.Load(args[0], &res); err != nil {
			return err
		}
		printSummary(&res, h)
		return nil
	},
}

func init() {
	showCmd.Flags().StringVar(&flagHemisphere, "hemisphere", "all", "target matrices to summarize: all, ipsi or contra")
}

func listGroups() error {
	s, err := store.Open(flagDataDir)
	if err != nil {
		return err
	}
	defer s.Close()
	names, err := s.Groups()
	if err != nil {
		return err
	}
	for _, name := range names {
		fields, err := s.ReadGroup(name)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d experiments\n", name, len(fields["row_label_list"]))
	}
	return nil
}
