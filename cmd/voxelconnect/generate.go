package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"voxelconnect/internal/models"
	"voxelconnect/internal/store"
	"voxelconnect/pkg/archive"
	"voxelconnect/pkg/connectivity"
	"voxelconnect/pkg/logging"
	"voxelconnect/pkg/visualization"
)

var (
	flagSources       string
	flagTargets       string
	flagExperiments   string
	flagShell         bool
	flagLaplacian     bool
	flagOutput        string
	flagGroup         string
	flagExtractSlices bool
	flagCores         int
)

var regionCmd = &cobra.Command{
	Use:   "region",
	Short: "Build region resolution matrices",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, connectivity.RegionResolution)
	},
}

var voxelCmd = &cobra.Command{
	Use:   "voxel",
	Short: "Build voxel resolution matrices and Laplacians",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, connectivity.VoxelResolution)
	},
}

func init() {
	for _, c := range []*cobra.Command{regionCmd, voxelCmd} {
		c.Flags().StringVar(&flagSources, "sources", "", "comma-separated source structure ids (required)")
		c.Flags().StringVar(&flagTargets, "targets", "", "comma-separated target structure ids (required)")
		c.Flags().StringVar(&flagExperiments, "experiments", "", "comma-separated experiment ids (default: all)")
		c.Flags().BoolVar(&flagShell, "shell", false, "exclude the dilated injection shell from targets")
		c.Flags().IntVar(&flagCores, "cores", 0, "structures processed in parallel (default: from configuration)")
		c.Flags().StringVar(&flagOutput, "output", "", "write the result archive to this file")
		c.Flags().StringVar(&flagGroup, "group", "", "store the result under this group name in the data directory")
		c.MarkFlagRequired("sources")
		c.MarkFlagRequired("targets")
	}
	voxelCmd.Flags().BoolVar(&flagLaplacian, "laplacian", false, "build the source and target Laplacians")
	voxelCmd.Flags().BoolVar(&flagExtractSlices, "extract-slices", false, "save JPEG slices of each experiment's source row")
}

func buildParams(cmd *cobra.Command) (*connectivity.Params, error) {
	params := cfg.Params()
	var err error
	if params.SourceIDs, err = models.ParseStructureIDs(flagSources); err != nil {
		return nil, fmt.Errorf("--sources: %w", err)
	}
	if params.TargetIDs, err = models.ParseStructureIDs(flagTargets); err != nil {
		return nil, fmt.Errorf("--targets: %w", err)
	}
	if flagExperiments != "" {
		if params.ExperimentIDs, err = models.ParseExperimentIDs(flagExperiments); err != nil {
			return nil, fmt.Errorf("--experiments: %w", err)
		}
	}
	if cmd.Flags().Changed("shell") {
		params.SourceShell = flagShell
	}
	if cmd.Flags().Changed("laplacian") {
		params.Laplacian = flagLaplacian
	}
	if cmd.Flags().Changed("cores") {
		params.NumCores = flagCores
	}
	return params, nil
}

func runGenerate(cmd *cobra.Command, resolution connectivity.Resolution) error {
	params, err := buildParams(cmd)
	if err != nil {
		return err
	}

	s, err := store.Open(flagDataDir)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Println("================================")
	fmt.Printf("%s RESOLUTION CONNECTIVITY MATRICES\n", resolutionTitle(resolution))
	fmt.Println("================================")

	gen := connectivity.NewGenerator(s, params)
	startTime := time.Now()
	var res *connectivity.ResultMatrixSet
	if resolution == connectivity.VoxelResolution {
		res, err = gen.VoxelMatrices()
	} else {
		res, err = gen.RegionMatrices()
	}
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	processingTime := time.Since(startTime)

	fmt.Printf("\nGeneration completed successfully in %.2f seconds!\n", processingTime.Seconds())
	printSummary(res, models.AllHemispheres)

	if flagOutput != "" {
		n, err := archive.Save(flagOutput, res, cfg.Compression())
		if err != nil {
			return err
		}
		fmt.Printf("Result archive saved to: %s (%s, %s)\n", flagOutput, humanize.Bytes(uint64(n)), cfg.Compression())
	}
	if flagGroup != "" {
		if err := s.WriteGroup(flagGroup, res.Fields()); err != nil {
			return err
		}
		fmt.Printf("Result stored in group %q of %s\n", flagGroup, flagDataDir)
	}

	extract := cfg.Output.ExtractSlices
	if cmd.Flags().Changed("extract-slices") {
		extract = flagExtractSlices
	}
	if extract && resolution == connectivity.VoxelResolution {
		fmt.Println("\nExtracting source slices for each experiment...")
		if err := extractSlices(res, cfg.Output.SlicesDir); err != nil {
			logging.Warningf("Failed to save slices: %v", err)
		} else {
			fmt.Println("Slice extraction completed!")
		}
	}
	return nil
}

func resolutionTitle(r connectivity.Resolution) string {
	if r == connectivity.VoxelResolution {
		return "VOXEL"
	}
	return "REGION"
}

// printSummary prints the result overview. Target matrices of the other
// hemisphere are left out unless h is AllHemispheres.
func printSummary(res *connectivity.ResultMatrixSet, h models.Hemisphere) {
	sum := connectivity.Summarize(res)
	fmt.Printf("\nSummary (%s resolution, %s hemispheres):\n", res.Resolution, h)
	fmt.Printf("=======================================\n")
	fmt.Printf("Experiments: %d\n", sum.Experiments)
	for _, m := range []struct {
		name  string
		h     models.Hemisphere
		stats connectivity.MatrixStats
	}{
		{"Source", h, sum.Source},
		{"Target ipsi", models.Ipsi, sum.TargetIpsi},
		{"Target contra", models.Contra, sum.TargetContra},
	} {
		if h != models.AllHemispheres && m.h != h {
			continue
		}
		fmt.Printf("%-14s %d × %d, %.1f%% nonzero, mean %.4g, std %.4g\n",
			m.name+":", m.stats.Rows, m.stats.Columns, 100*m.stats.NonzeroFraction, m.stats.Mean, m.stats.StdDev)
	}
	if res.Lx != nil {
		fmt.Printf("Laplacian nonzeros: %s\n", humanize.Comma(int64(sum.LaplacianNonzeros)))
	}
	if len(res.QualifiedSources) > 0 {
		fmt.Printf("Qualified sources: %v\n", res.QualifiedSources)
	}
	if sum.Warnings > 0 {
		fmt.Printf("\nProjection density warnings (%d):\n", sum.Warnings)
		for _, w := range res.Warnings {
			fmt.Printf("- %s\n", w)
		}
	}
}

func extractSlices(res *connectivity.ResultMatrixSet, dir string) error {
	if res.Source == nil {
		return fmt.Errorf("no source voxels to view")
	}
	for i, id := range res.Rows {
		viewer, err := visualization.NewViewer(res.Source.RawRowView(i), res.SourceVoxels)
		if err != nil {
			return err
		}
		for _, axis := range []string{"x", "y", "z"} {
			axisDir := filepath.Join(dir, strconv.Itoa(int(id)), axis)
			n, err := viewer.SaveSliceSequence(axis, axisDir)
			if err != nil {
				return err
			}
			logging.Debugf("saved %d %s-axis slices of experiment %d to %s", n, axis, id, axisDir)
		}
	}
	return nil
}
