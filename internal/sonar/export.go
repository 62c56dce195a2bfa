package sonar

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// ExportOptions selects which frames ExportFrames writes and where.
type ExportOptions struct {
	// Start is the first frame index to export.
	Start int

	// End is the last frame index to export, inclusive. A negative End means
	// the last frame in the file.
	End int

	// OutputDir receives the PNG files. It is created if missing.
	OutputDir string

	// BaseName prefixes every file name. Defaults to the input file name
	// without its extension.
	BaseName string

	// Rectangular writes the raw samples x beams raster instead of the
	// scan-converted fan.
	Rectangular bool

	// FOV is the fan's field of view in degrees. Defaults to DefaultFOV.
	FOV float64

	// Logger receives one record per frame. Defaults to slog.Default().
	Logger *slog.Logger
}

// FrameFailure records a frame that could not be decoded or written.
type FrameFailure struct {
	Frame int    `json:"frame"`
	Error string `json:"error"`
}

// ExportReport summarizes an ExportFrames run.
type ExportReport struct {
	Written []string       `json:"written"`
	Failed  []FrameFailure `json:"failed,omitempty"`
}

// FrameFileName returns the PNG name used for frame index: base-frameNNNNN.png.
func FrameFileName(base string, index int) string {
	return fmt.Sprintf("%s-frame%05d.png", base, index)
}

// ExportFrames writes frames Start..End of f as grayscale PNG files, as
// polar fans unless opts.Rectangular is set.
//
// A frame that fails to decode or write is recorded in the report and the
// export continues with the next index. An error is returned only when the
// range is invalid or the output directory cannot be created.
func ExportFrames(f *File, opts ExportOptions) (*ExportReport, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	end := opts.End
	if end < 0 {
		end = f.FrameCount() - 1
	}
	if opts.Start < 0 || opts.Start > end {
		return nil, fmt.Errorf("invalid frame range [%d, %d]", opts.Start, end)
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	base := opts.BaseName
	if base == "" {
		base = strings.TrimSuffix(filepath.Base(f.Name()), filepath.Ext(f.Name()))
	}

	fov := opts.FOV
	if fov == 0 {
		fov = DefaultFOV
	}

	report := &ExportReport{Written: []string{}}
	for i := opts.Start; i <= end; i++ {
		frame, err := f.Frame(i)
		if err != nil {
			logger.Warn("skipping frame", "frame", i, "error", err)
			report.Failed = append(report.Failed, FrameFailure{Frame: i, Error: err.Error()})
			continue
		}

		img := frame.Image()
		if !opts.Rectangular {
			if img, err = PolarImage(frame, fov); err != nil {
				logger.Warn("failed to project frame", "frame", i, "error", err)
				report.Failed = append(report.Failed, FrameFailure{Frame: i, Error: err.Error()})
				continue
			}
		}

		path := filepath.Join(opts.OutputDir, FrameFileName(base, i))
		if err := imaging.Save(img, path); err != nil {
			logger.Warn("failed to write frame", "frame", i, "path", path, "error", err)
			report.Failed = append(report.Failed, FrameFailure{Frame: i, Error: err.Error()})
			continue
		}

		logger.Debug("exported frame", "frame", i, "path", path,
			"beams", frame.Beams, "samples", frame.Samples)
		report.Written = append(report.Written, path)
	}

	return report, nil
}
