// Command stereoprep runs the full preprocessing chain over a stereo
// pair: ingestion, multi-scale pyramid, sub-pixel shifted right
// images, and per-level census descriptors and windowed statistics.
// Mean and standard deviation grids can be dumped as grayscale PNGs
// for inspection.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"stereoprep/census"
	"stereoprep/internal/logger"
	"stereoprep/pyramid"
	"stereoprep/raster"
	"stereoprep/stats"
	"stereoprep/subpixel"
)

func main() {
	var (
		leftPath     = flag.String("left", "", "path to the left image (required)")
		rightPath    = flag.String("right", "", "path to the right image (required)")
		leftMask     = flag.String("left-mask", "", "optional left input mask")
		rightMask    = flag.String("right-mask", "", "optional right input mask")
		noData       = flag.Float64("no-data", raster.DefaultNoData, "no-data sentinel value (NaN accepted)")
		numScales    = flag.Int("scales", 1, "number of pyramid scales")
		scaleFactor  = flag.Int("scale-factor", 2, "pyramid decimation factor")
		subpix       = flag.Int("subpix", 1, "subpixel precision: 1, 2 or 4")
		censusWindow = flag.Int("census-window", 5, "census window size (odd)")
		statsWindow  = flag.Int("stats-window", 5, "statistics window size (odd)")
		outDir       = flag.String("out", "", "directory for mean/std PNG dumps (optional)")
		verbose      = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := logger.NewConsoleLogger(level)
	logger.SetDefault(log)

	if *leftPath == "" || *rightPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(log, config{
		leftPath:     *leftPath,
		rightPath:    *rightPath,
		leftMask:     *leftMask,
		rightMask:    *rightMask,
		noData:       float32(*noData),
		numScales:    *numScales,
		scaleFactor:  *scaleFactor,
		subpix:       *subpix,
		censusWindow: *censusWindow,
		statsWindow:  *statsWindow,
		outDir:       *outDir,
	}); err != nil {
		log.Error("stereoprep", err, nil)
		os.Exit(1)
	}
}

type config struct {
	leftPath, rightPath  string
	leftMask, rightMask  string
	noData               float32
	numScales            int
	scaleFactor          int
	subpix               int
	censusWindow         int
	statsWindow          int
	outDir               string
}

func run(log logger.Logger, cfg config) error {
	left, err := readInput(cfg.leftPath, cfg.leftMask, cfg.noData)
	if err != nil {
		return err
	}
	right, err := readInput(cfg.rightPath, cfg.rightMask, cfg.noData)
	if err != nil {
		return err
	}
	log.Info("stereoprep", "pair ingested", map[string]interface{}{
		"rows": left.Rows(),
		"cols": left.Cols(),
	})

	leftPyr, rightPyr, err := pyramid.Prepare(left, right, cfg.numScales, cfg.scaleFactor)
	if err != nil {
		return fmt.Errorf("build pyramid: %w", err)
	}

	shifted, err := subpixel.ShiftRight(right, cfg.subpix)
	if err != nil {
		return fmt.Errorf("shift right image: %w", err)
	}
	log.Info("stereoprep", "right image shifted", map[string]interface{}{
		"buffers": len(shifted),
	})

	sides := []string{"left", "right"}
	for level := range leftPyr {
		for i, buf := range []*raster.Buffer{leftPyr[level], rightPyr[level]} {
			side := sides[i]
			desc, err := census.Transform(buf, cfg.censusWindow)
			if err != nil {
				return fmt.Errorf("census level %d %s: %w", level, side, err)
			}
			mean, err := stats.MeanRaster(buf, cfg.statsWindow)
			if err != nil {
				return fmt.Errorf("mean level %d %s: %w", level, side, err)
			}
			std, err := stats.StdRaster(buf, cfg.statsWindow)
			if err != nil {
				return fmt.Errorf("std level %d %s: %w", level, side, err)
			}
			log.Info("stereoprep", "level processed", map[string]interface{}{
				"level":       level,
				"side":        side,
				"rows":        buf.Rows(),
				"cols":        buf.Cols(),
				"census_rows": desc.Rows,
				"census_cols": desc.Cols,
			})
			if cfg.outDir != "" {
				if err := writeGrid(filepath.Join(cfg.outDir, fmt.Sprintf("%s_mean_%d.png", side, level)), mean); err != nil {
					return err
				}
				if err := writeGrid(filepath.Join(cfg.outDir, fmt.Sprintf("%s_std_%d.png", side, level)), std); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func readInput(path, maskPath string, noData float32) (*raster.Buffer, error) {
	var opts []raster.ReadOption
	if maskPath != "" {
		opts = append(opts, raster.WithMaskFile(maskPath))
	}
	buf, err := raster.ReadImage(path, noData, opts...)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", path, err)
	}
	return buf, nil
}

// writeGrid dumps a statistics grid as an 8-bit grayscale PNG,
// linearly stretched over the grid's value range.
func writeGrid(path string, g *stats.Grid) error {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range g.Data {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	scale := 0.0
	if hi > lo {
		scale = 255 / (hi - lo)
	}

	img := image.NewGray(image.Rect(0, 0, g.Cols, g.Rows))
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			img.SetGray(c, r, color.Gray{Y: uint8((g.At(r, c) - lo) * scale)})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
