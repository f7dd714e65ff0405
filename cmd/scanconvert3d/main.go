package main

import (
	"flag"
	"fmt"
	"log"
	"runtime"
	"time"

	"scanconvert3d/internal/rawio"
	"scanconvert3d/pkg/config"
	"scanconvert3d/pkg/resample"
	"scanconvert3d/pkg/visualization"
	"scanconvert3d/pkg/volume"
)

func main() {
	// Parse command line arguments
	inputPath := flag.String("input", "", "Input volume data file (raw float64 voxels with a .yaml sidecar header)")
	outputPath := flag.String("output", "output.vol", "Output volume data file")
	configPath := flag.String("config", "scanconvert3d.yaml", "Configuration file")
	methodName := flag.String("method", "", "Resampling method (overrides the config)")
	numCores := flag.Int("cores", 0, "Number of CPU cores to use (default: config value or all available)")
	extractSlices := flag.Bool("extract-slices", false, "Extract and save slice images of the resampled volume")
	slicesDir := flag.String("slices-dir", "", "Directory to save extracted slices (default: config value)")
	slicesFormat := flag.String("slices-format", "jpeg", "Slice image format: jpeg or tiff")
	writeConfig := flag.Bool("write-default-config", false, "Write a default configuration file and exit")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write default config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	// Validate inputs
	if *inputPath == "" {
		flag.Usage()
		log.Fatal("an input volume is required")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command line overrides
	if *methodName != "" {
		cfg.Resampling.Method = *methodName
	}
	if *numCores > 0 {
		cfg.Processing.NumCores = *numCores
	}
	if cfg.Processing.NumCores <= 0 {
		cfg.Processing.NumCores = runtime.NumCPU()
	}
	if *extractSlices {
		cfg.Output.ExtractSlices = true
	}
	if *slicesDir != "" {
		cfg.Output.SlicesDir = *slicesDir
	}

	fmt.Println("================================")
	fmt.Println("SCAN CONVERSION OF CURVILINEAR VOLUMES TO CARTESIAN GRIDS")
	fmt.Println("================================")

	// Load the input volume
	input, err := rawio.ReadVolume(*inputPath)
	if err != nil {
		log.Fatalf("Failed to read input volume: %v", err)
	}
	fmt.Printf("Input volume: %dx%dx%d voxels\n",
		input.Grid.Size[0], input.Grid.Size[1], input.Grid.Size[2])

	// Build the output grid descriptor from the configuration
	grid := volume.Grid{
		Size:      cfg.Grid.Size,
		Spacing:   cfg.Grid.Spacing,
		Origin:    cfg.Grid.Origin,
		Direction: cfg.Grid.Direction,
	}
	if !cfg.HasDirection() {
		grid.Direction = volume.DefaultDirection()
	}

	method := resample.ParseMethod(cfg.Resampling.Method)
	if method.String() != cfg.Resampling.Method && cfg.Resampling.Method != "" {
		fmt.Printf("Unrecognized method %q, using %s\n", cfg.Resampling.Method, method)
	}

	var progress resample.ProgressCallback
	if cfg.Output.Verbose {
		progress = consoleProgress
	}

	// Run the scan conversion
	fmt.Printf("Resampling with %s on %d cores...\n", method, cfg.Processing.NumCores)
	startTime := time.Now()
	output, err := resample.ResampleParallel(input, grid, method, progress, cfg.Processing.NumCores)
	if err != nil {
		log.Fatalf("Resampling failed: %v", err)
	}
	processingTime := time.Since(startTime)

	fmt.Printf("\nResampling completed successfully in %.2f seconds!\n", processingTime.Seconds())

	if err := rawio.WriteVolume(*outputPath, output); err != nil {
		log.Fatalf("Failed to write output volume: %v", err)
	}
	fmt.Printf("Output volume saved to: %s\n", *outputPath)

	// Extract and save slice images if requested
	if cfg.Output.ExtractSlices {
		fmt.Println("\nExtracting slices along all axes...")

		viewer := visualization.NewViewer(output)
		for _, axis := range []string{"x", "y", "z"} {
			axisDir := fmt.Sprintf("%s/%s", cfg.Output.SlicesDir, axis)
			fmt.Printf("Saving %s-axis slices to: %s\n", axis, axisDir)

			if err := viewer.SaveSliceSequence(axis, axisDir, *slicesFormat); err != nil {
				log.Printf("Warning: Failed to save %s-axis slices: %v", axis, err)
			}
		}

		fmt.Println("Slice extraction completed!")
	}
}

// consoleProgress prints informational messages and a percentage line for
// slice progress.
func consoleProgress(completed, total int, message string) {
	if message != "" {
		fmt.Println(message)
		return
	}
	if total > 0 {
		percentage := float64(completed) / float64(total) * 100
		fmt.Printf("\rProgress: %.1f%% (%d/%d)", percentage, completed, total)
		if completed >= total {
			fmt.Println()
		}
	}
}
