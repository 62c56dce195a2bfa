package sonar

import (
	"bytes"
	"encoding/binary"
	"strings"
)

// ARIS DDF v5 container constants.
const (
	// VersionDDF05 is the only frame header version tag accepted by Frame ("DDF\x05").
	VersionDDF05 = 0x05464444

	FileHeaderSize  = 1024 // File header record size, padding included
	FrameHeaderSize = 1024 // Frame header record size, padding included
)

// FileHeader is the packed layout of the 1024-byte file header record.
// Fields appear in on-disk order; binary.Read decodes them without padding.
type FileHeader struct {
	Version        uint32
	FrameCount     uint32
	FrameRate      uint32
	HighResolution uint32
	Beams          uint32 // Raw beam count, used only for the frame stride
	SampleRate     float32
	SamplesPerBeam uint32
	ReceiverGain   uint32
	WindowStart    float32
	WindowEnd      float32
	Reverse        uint32
	SerialNumber   uint32
	DateRaw        [32]byte
	HeaderIDRaw    [256]byte
}

// Date returns the recording date string without trailing NULs.
func (h *FileHeader) Date() string {
	return cString(h.DateRaw[:])
}

// HeaderID returns the opaque identification string without trailing NULs.
func (h *FileHeader) HeaderID() string {
	return cString(h.HeaderIDRaw[:])
}

// FrameStride returns the byte distance between consecutive frame records.
func (h *FileHeader) FrameStride() int64 {
	return FrameHeaderSize + int64(h.Beams)*int64(h.SamplesPerBeam)
}

// FrameHeader is the packed layout of the 1024-byte per-frame header record.
//
// Only FrameIndex, Version, PingMode, SamplesPerBeam, WindowStart and
// WindowLength drive decoding. The remaining fields are acquisition telemetry
// passed through untouched.
type FrameHeader struct {
	FrameIndex     uint32
	FrameTime      uint64
	Version        uint32
	Status         uint32
	SonarTimestamp uint64
	TsDay          uint32
	TsHour         uint32
	TsMinute       uint32
	TsSecond       uint32
	TsHSecond      uint32
	TransmitMode   uint32
	WindowStart    float32 // Range-gate start in meters
	WindowLength   float32 // Range-gate length in meters
	Threshold      uint32
	Intensity      int32
	ReceiverGain   uint32
	DegC1          uint32
	DegC2          uint32
	Humidity       uint32
	Focus          uint32
	Battery        uint32
	UserValues     [8]float32

	Velocity       float32
	Depth          float32
	Altitude       float32
	Pitch          float32
	PitchRate      float32
	Roll           float32
	RollRate       float32
	Heading        float32
	HeadingRate    float32
	CompassHeading float32
	CompassPitch   float32
	CompassRoll    float32
	Latitude       float64
	Longitude      float64
	SonarPosition  float32

	ConfigFlags      uint32
	BeamTilt         float32
	TargetRange      float32
	TargetBearing    float32
	TargetPresent    uint32
	FirmwareRevision uint32
	Flags            uint32
	SourceFrame      uint32
	WaterTemperature float32
	TimerPeriod      uint32

	SonarX    float32
	SonarY    float32
	SonarZ    float32
	SonarPan  float32
	SonarTilt float32
	SonarRoll float32
	PanPNNL   float32
	TiltPNNL  float32
	RollPNNL  float32

	VehicleTime float64
	TimeGGK     float32
	DateGGK     uint32
	QualityGGK  uint32
	NumSatsGGK  uint32
	DopGGK      float32
	EhtGGK      float32
	HeaveTSS    float32

	YearGPS    uint32
	MonthGPS   uint32
	DayGPS     uint32
	HourGPS    uint32
	MinuteGPS  uint32
	SecondGPS  uint32
	HSecondGPS uint32

	SonarPanOffset  float32
	SonarTiltOffset float32
	SonarRollOffset float32
	SonarXOffset    float32
	SonarYOffset    float32
	SonarZOffset    float32
	TransformMatrix [16]float32

	SampleRate float32
	AccelX     float32
	AccelY     float32
	AccelZ     float32

	PingMode          uint32
	Frequency         uint32
	PulseWidth        uint32
	CyclePeriod       uint32
	SamplePeriod      uint32
	TransmitEnable    uint32
	FrameRate         float32
	SoundSpeed        float32
	SamplesPerBeam    uint32
	Enable150Volts    uint32
	SampleStartDelay  uint32
	LargeLens         uint32
	SystemType        uint32
	SonarSerialNumber uint32
	EncryptedKey      uint64
	ErrorFlags        uint32
	MissedPackets     uint32
	AppVersion        uint32
	Available2        uint32
	ReorderedSamples  uint32
	Salinity          uint32
	Pressure          float32
	BatteryVoltage    float32
	MainVoltage       float32
	SwitchVoltage     float32

	FocusMotorMoving      uint32
	VoltageChanging       uint32
	FocusTimeoutFault     uint32
	FocusOverCurrentFault uint32
	FocusNotFoundFault    uint32
	FocusStalledFault     uint32
	FPGATimeoutFault      uint32
	FPGABusyFault         uint32
	FPGAStuckFault        uint32
	CPUTempFault          uint32
	PSUTempFault          uint32
	WaterTempFault        uint32
	HumidityFault         uint32
	PressureFault         uint32
	VoltageReadFault      uint32
	VoltageWriteFault     uint32
	FocusCurrentPosition  uint32

	TargetPan          float32
	TargetTilt         float32
	TargetRoll         float32
	PanMotorErrorCode  uint32
	TiltMotorErrorCode uint32
	RollMotorErrorCode uint32
	PanAbsPosition     float32
	TiltAbsPosition    float32
	RollAbsPosition    float32
	PanAccelX          float32
	PanAccelY          float32
	PanAccelZ          float32
	TiltAccelX         float32
	TiltAccelY         float32
	TiltAccelZ         float32
	RollAccelX         float32
	RollAccelY         float32
	RollAccelZ         float32

	AppliedSettings        uint32
	ConstrainedSettings    uint32
	InvalidSettings        uint32
	EnableInterpacketDelay uint32
	InterpacketDelayPeriod uint32
	Uptime                 uint32
	AppVersionMajor        uint16
	AppVersionMinor        uint16
	PanVelocity            float32
	TiltVelocity           float32
	RollVelocity           float32
	Sentinel               uint32
}

// Packed sizes of the populated part of each record.
var (
	fileHeaderFieldsSize  = binary.Size(FileHeader{})
	frameHeaderFieldsSize = binary.Size(FrameHeader{})
)

func decodeFileHeader(buf []byte) (FileHeader, error) {
	var h FileHeader
	err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &h)
	return h, err
}

func decodeFrameHeader(buf []byte) (FrameHeader, error) {
	var h FrameHeader
	err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &h)
	return h, err
}

// encodeRecord writes v little-endian into a zero-padded record of size bytes.
func encodeRecord(v any, size int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(size)
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, buf.Bytes())
	return out, nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}
