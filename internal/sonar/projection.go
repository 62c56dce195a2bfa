package sonar

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

// DefaultFOV is the horizontal field of view of an ARIS Explorer 3000 in
// degrees, centered on the sonar axis.
const DefaultFOV = 30.0

// PolarImage scan-converts frame into the fan it images.
//
// Beams span fovDeg degrees, beam 0 on the left, and range bins span the
// frame's own acquisition window, nearest bin at the bottom. The output is the
// bounding box of the fan at Samples pixels per window length; pixels outside
// the fan are 0. Each pixel takes the nearest beam and range bin.
func PolarImage(frame *Frame, fovDeg float64) (*image.Gray, error) {
	if fovDeg <= 0 || fovDeg >= 180 {
		return nil, fmt.Errorf("invalid field of view %v: must be in (0, 180) degrees", fovDeg)
	}
	if frame.Beams <= 0 || frame.Samples <= 0 {
		return nil, fmt.Errorf("frame %d has no pixels", frame.Index)
	}

	rMin, rMax := frame.WindowStart(), frame.WindowEnd()
	if rMin < 0 || !(rMax > rMin) {
		return nil, fmt.Errorf("frame %d has an invalid window [%v, %v]", frame.Index, rMin, rMax)
	}

	half := fovDeg / 2 * math.Pi / 180
	scale := float64(frame.Samples) / (rMax - rMin)

	width := int(math.Ceil(2 * rMax * math.Sin(half) * scale))
	height := int(math.Ceil((rMax - rMin*math.Cos(half)) * scale))
	width = max(width, 1)
	height = max(height, 1)

	img := image.NewGray(image.Rect(0, 0, width, height))
	parallel.Line(height, func(start, end int) {
		for py := start; py < end; py++ {
			// Distance along the sonar axis from the apex.
			along := rMax - (float64(py)+0.5)/scale
			row := img.Pix[py*img.Stride : py*img.Stride+width]
			for px := range row {
				across := (float64(px) + 0.5 - float64(width)/2) / scale

				r := math.Hypot(across, along)
				theta := math.Atan2(across, along)
				if r < rMin || r > rMax || math.Abs(theta) > half {
					continue
				}

				beam := int((theta + half) / (2 * half) * float64(frame.Beams))
				sample := int((r - rMin) / (rMax - rMin) * float64(frame.Samples))
				row[px] = frame.At(min(sample, frame.Samples-1), min(beam, frame.Beams-1))
			}
		}
	})

	return img, nil
}
