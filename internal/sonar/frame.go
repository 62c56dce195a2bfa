package sonar

import "image"

// Frame is one decoded sonar ping.
//
// Pixels holds Samples rows of Beams bytes each: row i is range bin i across
// every beam.
type Frame struct {
	Index   int
	Header  FrameHeader
	Beams   int
	Samples int
	Pixels  []byte
}

// Width returns the image width, which is the beam count.
func (f *Frame) Width() int { return f.Beams }

// Height returns the image height, which is the number of samples per beam.
func (f *Frame) Height() int { return f.Samples }

// At returns the intensity of range bin sample on beam beam.
func (f *Frame) At(sample, beam int) uint8 {
	return f.Pixels[sample*f.Beams+beam]
}

// WindowStart returns the range-gate start of this frame in meters.
func (f *Frame) WindowStart() float64 {
	return float64(f.Header.WindowStart)
}

// WindowEnd returns WindowStart plus this frame's window length.
func (f *Frame) WindowEnd() float64 {
	return float64(f.Header.WindowStart) + float64(f.Header.WindowLength)
}

// Image returns a copy of the pixel data as a Beams x Samples grayscale image.
func (f *Frame) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.Beams, f.Samples))
	copy(img.Pix, f.Pixels)
	return img
}
