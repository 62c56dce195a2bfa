package main

import (
	"bytes"
	"encoding/binary"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/mvaldenegro/auv-perception/internal/imaging"
	"github.com/mvaldenegro/auv-perception/internal/polar"
	"github.com/mvaldenegro/auv-perception/internal/sonar"
)

func writeRecording(t *testing.T, frames int) string {
	t.Helper()

	pad := func(v any, size int) []byte {
		var buf bytes.Buffer
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("encode: %v", err)
		}
		out := make([]byte, size)
		copy(out, buf.Bytes())
		return out
	}

	const samples = 64
	fh := sonar.FileHeader{Version: sonar.VersionDDF05, FrameCount: uint32(frames), Beams: 48, SamplesPerBeam: samples}
	var data bytes.Buffer
	data.Write(pad(&fh, sonar.FileHeaderSize))
	for i := 0; i < frames; i++ {
		h := sonar.FrameHeader{FrameIndex: uint32(i), Version: sonar.VersionDDF05, PingMode: 1, SamplesPerBeam: samples, WindowStart: 1, WindowLength: 4}
		data.Write(pad(&h, sonar.FrameHeaderSize))
		data.Write(bytes.Repeat([]byte{byte(i*10 + 10)}, 48*samples))
	}

	path := filepath.Join(t.TempDir(), "dive.aris")
	if err := os.WriteFile(path, data.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestRun(t *testing.T) {
	in := writeRecording(t, 3)
	out := t.TempDir()

	if code := run([]string{"-start", "1", "-log-level", "error", in, out}); code != 0 {
		t.Fatalf("run() = %d, want 0", code)
	}

	for i, want := range []bool{false, true, true} {
		_, err := os.Stat(filepath.Join(out, sonar.FrameFileName("dive", i)))
		if got := err == nil; got != want {
			t.Errorf("frame %d written = %v, want %v", i, got, want)
		}
	}
}

func TestRunProjection(t *testing.T) {
	in := writeRecording(t, 1)

	polarDir, rectDir := t.TempDir(), t.TempDir()
	if code := run([]string{"-log-level", "error", in, polarDir}); code != 0 {
		t.Fatalf("run() = %d, want 0", code)
	}
	if code := run([]string{"-rectangular", "-log-level", "error", in, rectDir}); code != 0 {
		t.Fatalf("run(-rectangular) = %d, want 0", code)
	}

	rect, err := imaging.LoadGray(filepath.Join(rectDir, sonar.FrameFileName("dive", 0)))
	if err != nil {
		t.Fatalf("open rectangular frame: %v", err)
	}
	if got := rect.Bounds().Size(); got != image.Pt(48, 64) {
		t.Errorf("rectangular size = %v, want 48x64", got)
	}

	fan, err := imaging.LoadGray(filepath.Join(polarDir, sonar.FrameFileName("dive", 0)))
	if err != nil {
		t.Fatalf("open polar frame: %v", err)
	}
	mask := polar.ExtractMask(fan)
	if f := polar.ValidFraction(mask); f <= 0 || f >= 1 {
		t.Errorf("polar frame valid fraction = %v, want strictly between 0 and 1", f)
	}
}

func TestRunInvalidFOV(t *testing.T) {
	in := writeRecording(t, 1)
	if code := run([]string{"-fov", "-5", "-log-level", "error", in, t.TempDir()}); code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
}

func TestRunUsage(t *testing.T) {
	if code := run([]string{"only-one-arg"}); code != 2 {
		t.Errorf("run() = %d, want 2", code)
	}
	if code := run([]string{"-bogus", "a", "b"}); code != 2 {
		t.Errorf("run() with unknown flag = %d, want 2", code)
	}
}

func TestRunMissingInput(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.aris")
	if code := run([]string{"-log-level", "error", missing, t.TempDir()}); code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
}
