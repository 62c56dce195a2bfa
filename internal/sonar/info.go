package sonar

import "fmt"

// FileInfo summarizes a recording's global header.
type FileInfo struct {
	Path           string  `json:"path"`
	Version        string  `json:"version"`
	FrameCount     int     `json:"frame_count"`
	FrameRate      int     `json:"frame_rate"`
	SamplesPerBeam int     `json:"samples_per_beam"`
	WindowStart    float64 `json:"window_start"`
	WindowEnd      float64 `json:"window_end"`
	SerialNumber   uint32  `json:"serial_number"`
	Date           string  `json:"date,omitempty"`
	HeaderID       string  `json:"header_id,omitempty"`
}

// FrameInfo summarizes one decoded frame.
type FrameInfo struct {
	Index       int     `json:"index"`
	PingMode    uint32  `json:"ping_mode"`
	Beams       int     `json:"beams"`
	Samples     int     `json:"samples"`
	WindowStart float64 `json:"window_start"`
	WindowEnd   float64 `json:"window_end"`
	FrameTime   uint64  `json:"frame_time"`
	SoundSpeed  float64 `json:"sound_speed"`
	Frequency   uint32  `json:"frequency"`
}

// Info returns the header summary of f.
func (f *File) Info() FileInfo {
	h := f.header
	return FileInfo{
		Path:           f.name,
		Version:        versionString(h.Version),
		FrameCount:     int(h.FrameCount),
		FrameRate:      int(h.FrameRate),
		SamplesPerBeam: int(h.SamplesPerBeam),
		WindowStart:    float64(h.WindowStart),
		WindowEnd:      float64(h.WindowEnd),
		SerialNumber:   h.SerialNumber,
		Date:           h.Date(),
		HeaderID:       h.HeaderID(),
	}
}

// Info returns the header summary of fr.
func (fr *Frame) Info() FrameInfo {
	return FrameInfo{
		Index:       fr.Index,
		PingMode:    fr.Header.PingMode,
		Beams:       fr.Beams,
		Samples:     fr.Samples,
		WindowStart: fr.WindowStart(),
		WindowEnd:   fr.WindowEnd(),
		FrameTime:   fr.Header.FrameTime,
		SoundSpeed:  float64(fr.Header.SoundSpeed),
		Frequency:   fr.Header.Frequency,
	}
}

// versionString renders the DDF signature, e.g. "DDF_05".
func versionString(v uint32) string {
	if v&0x00ffffff != VersionDDF05&0x00ffffff {
		return fmt.Sprintf("0x%08x", v)
	}
	return fmt.Sprintf("DDF_%02x", v>>24)
}
