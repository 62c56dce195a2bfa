package sonar

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvaldenegro/auv-perception/internal/polar"
)

// syntheticFrame builds a 48-beam frame over the window [1.5, 11.75] whose
// pixels are value(sample, beam).
func syntheticFrame(samples int, value func(sample, beam int) uint8) *Frame {
	const beams = 48
	pixels := make([]byte, beams*samples)
	for s := 0; s < samples; s++ {
		for b := 0; b < beams; b++ {
			pixels[s*beams+b] = value(s, b)
		}
	}
	return &Frame{
		Header:  testFrameHeader(0, 1, uint32(samples)),
		Beams:   beams,
		Samples: samples,
		Pixels:  pixels,
	}
}

func TestPolarImageFan(t *testing.T) {
	frame := syntheticFrame(64, func(int, int) uint8 { return 200 })

	img, err := PolarImage(frame, DefaultFOV)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 38, 65), img.Bounds())

	for _, v := range img.Pix {
		if v != 0 && v != 200 {
			t.Fatalf("pixel value %d, want 0 or 200", v)
		}
	}

	assert.Equal(t, uint8(0), img.GrayAt(0, 0).Y, "top-left corner is outside the fan")
	assert.Equal(t, uint8(0), img.GrayAt(19, 64).Y, "below the near range is outside the fan")
	assert.Equal(t, uint8(200), img.GrayAt(19, 32).Y, "axis at mid range is inside the fan")

	fraction := polar.ValidFraction(polar.ExtractMask(img))
	assert.Greater(t, fraction, 0.0)
	assert.Less(t, fraction, 1.0)
	assert.InDelta(t, 0.56, fraction, 0.05)
}

func TestPolarImageOrientation(t *testing.T) {
	byBeam := syntheticFrame(64, func(_, b int) uint8 { return uint8(b + 1) })
	img, err := PolarImage(byBeam, DefaultFOV)
	require.NoError(t, err)

	var row []uint8
	for x := 0; x < img.Bounds().Dx(); x++ {
		if v := img.GrayAt(x, 5).Y; v != 0 {
			row = append(row, v)
		}
	}
	require.NotEmpty(t, row)
	assert.Equal(t, uint8(1), row[0], "beam 0 on the left")
	assert.Equal(t, uint8(48), row[len(row)-1], "last beam on the right")

	byRange := syntheticFrame(64, func(s, _ int) uint8 { return uint8(s + 1) })
	img, err = PolarImage(byRange, DefaultFOV)
	require.NoError(t, err)
	assert.Equal(t, uint8(64), img.GrayAt(19, 0).Y, "far range at the top")
	assert.Equal(t, uint8(9), img.GrayAt(19, 55).Y, "near range toward the bottom")
}

func TestPolarImageErrors(t *testing.T) {
	frame := syntheticFrame(8, func(int, int) uint8 { return 1 })

	for _, fov := range []float64{0, -30, 180} {
		_, err := PolarImage(frame, fov)
		assert.Error(t, err, "fov %v", fov)
	}

	flat := syntheticFrame(8, func(int, int) uint8 { return 1 })
	flat.Header.WindowLength = 0
	_, err := PolarImage(flat, DefaultFOV)
	assert.Error(t, err)

	empty := &Frame{Header: testFrameHeader(0, 1, 0), Beams: 48}
	_, err = PolarImage(empty, DefaultFOV)
	assert.Error(t, err)
}
