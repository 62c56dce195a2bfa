// Command aris2png writes the frames of an ARIS recording as grayscale PNG
// images, one file per frame. Frames are scan-converted into their polar fan
// unless -rectangular is given.
//
// Usage:
//
//	aris2png [-start N] [-end N] [-rectangular] [-fov deg] [-log-level level] <input.aris> <outdir>
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mvaldenegro/auv-perception/internal/logging"
	"github.com/mvaldenegro/auv-perception/internal/sonar"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("aris2png", flag.ContinueOnError)
	start := fs.Int("start", 0, "first frame to export")
	end := fs.Int("end", -1, "last frame to export, inclusive (-1 for the last frame)")
	rectangular := fs.Bool("rectangular", false, "write the raw samples x beams raster instead of the polar fan")
	fov := fs.Float64("fov", sonar.DefaultFOV, "horizontal field of view in degrees for the polar fan")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: aris2png [options] <input.aris> <outdir>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}

	logger := logging.New(*logLevel, os.Stderr)

	f, err := sonar.Open(fs.Arg(0))
	if err != nil {
		logger.Error("failed to open recording", "error", err)
		return 1
	}
	defer f.Close()

	report, err := sonar.ExportFrames(f, sonar.ExportOptions{
		Start:       *start,
		End:         *end,
		OutputDir:   fs.Arg(1),
		Rectangular: *rectangular,
		FOV:         *fov,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("export failed", "error", err)
		return 1
	}

	logger.Info("export finished", "written", len(report.Written), "failed", len(report.Failed))
	if len(report.Failed) > 0 {
		return 1
	}
	return 0
}
