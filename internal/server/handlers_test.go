package server

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/mvaldenegro/auv-perception/internal/config"
	"github.com/mvaldenegro/auv-perception/internal/detection"
	"github.com/mvaldenegro/auv-perception/internal/imaging"
	"github.com/mvaldenegro/auv-perception/internal/logging"
	"github.com/mvaldenegro/auv-perception/internal/sonar"
)

func newTestServer() *Server {
	return New(config.Default(), logging.Discard())
}

// createTestImageFile writes a uniform grayscale PNG and returns its path.
func createTestImageFile(t *testing.T, width, height int, v uint8) string {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = v
	}

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	return path
}

// record packs v little-endian into a zero-padded record of size bytes.
func record(t *testing.T, v any, size int) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		t.Fatalf("failed to encode record: %v", err)
	}
	out := make([]byte, size)
	copy(out, buf.Bytes())
	return out
}

// createTestRecording writes a two-frame ARIS recording of 48 beams by 30
// samples, every pixel set to 80, and returns its path.
func createTestRecording(t *testing.T) string {
	t.Helper()

	const beams, samples = 48, 30
	fh := sonar.FileHeader{
		Version:        sonar.VersionDDF05,
		FrameCount:     2,
		FrameRate:      5,
		Beams:          beams,
		SamplesPerBeam: samples,
	}

	var data bytes.Buffer
	data.Write(record(t, &fh, sonar.FileHeaderSize))
	for i := 0; i < 2; i++ {
		frame := sonar.FrameHeader{
			FrameIndex:     uint32(i),
			Version:        sonar.VersionDDF05,
			PingMode:       1,
			SamplesPerBeam: samples,
			WindowStart:    2,
			WindowLength:   8,
		}
		data.Write(record(t, &frame, sonar.FrameHeaderSize))
		data.Write(bytes.Repeat([]byte{80}, beams*samples))
	}

	path := filepath.Join(t.TempDir(), "survey.aris")
	if err := os.WriteFile(path, data.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write recording: %v", err)
	}
	return path
}

// callTool runs a tools/call request and decodes the text content into out.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}, out interface{}) {
	t.Helper()

	resp := toolsCall(t, s, name, args)
	if resp.Error != nil {
		t.Fatalf("%s: unexpected error: %+v", name, resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("%s: result should be a map", name)
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("%s: result should hold one content item", name)
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("%s: failed to decode result %q: %v", name, text, err)
	}
}

func toolsCall(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	return s.handleToolsCall(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
}

func rectJSON(x, y, w, h int) map[string]interface{} {
	return map[string]interface{}{"x": x, "y": y, "width": w, "height": h}
}

func TestHandleToolsCall_SonarFileInfo(t *testing.T) {
	s := newTestServer()
	path := createTestRecording(t)

	var info sonar.FileInfo
	callTool(t, s, "sonar_file_info", map[string]interface{}{"path": path}, &info)

	if info.FrameCount != 2 {
		t.Errorf("FrameCount = %d, want 2", info.FrameCount)
	}
	if info.Version != "DDF_05" {
		t.Errorf("Version = %q, want DDF_05", info.Version)
	}
	if info.SamplesPerBeam != 30 {
		t.Errorf("SamplesPerBeam = %d, want 30", info.SamplesPerBeam)
	}
}

func TestHandleToolsCall_SonarFrameInfo(t *testing.T) {
	s := newTestServer()
	path := createTestRecording(t)

	var info frameInfoResult
	callTool(t, s, "sonar_frame_info", map[string]interface{}{
		"path":          path,
		"frame":         1,
		"include_image": true,
	}, &info)

	if info.Index != 1 || info.Beams != 48 || info.Samples != 30 {
		t.Errorf("frame info = %+v, want index 1 with 48 beams by 30 samples", info.FrameInfo)
	}
	if info.WindowEnd != 10 {
		t.Errorf("WindowEnd = %v, want 10", info.WindowEnd)
	}
	if info.Image == nil || info.Image.Width != 48 || info.Image.Height != 30 {
		t.Errorf("image = %+v, want a 48x30 PNG", info.Image)
	}
}

func TestHandleToolsCall_SonarFrameInfo_OutOfRange(t *testing.T) {
	s := newTestServer()
	resp := toolsCall(t, s, "sonar_frame_info", map[string]interface{}{
		"path":  createTestRecording(t),
		"frame": 2,
	})
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Errorf("expected tool execution error, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_SonarExportFrames(t *testing.T) {
	s := newTestServer()
	outDir := filepath.Join(t.TempDir(), "frames")

	var report sonar.ExportReport
	callTool(t, s, "sonar_export_frames", map[string]interface{}{
		"path":       createTestRecording(t),
		"output_dir": outDir,
	}, &report)

	if len(report.Written) != 2 || len(report.Failed) != 0 {
		t.Fatalf("report = %+v, want 2 written", report)
	}
	if _, err := os.Stat(filepath.Join(outDir, "survey-frame00001.png")); err != nil {
		t.Errorf("second frame not written: %v", err)
	}
}

func TestHandleToolsCall_SonarExportFrames_End(t *testing.T) {
	s := newTestServer()

	var report sonar.ExportReport
	callTool(t, s, "sonar_export_frames", map[string]interface{}{
		"path":       createTestRecording(t),
		"output_dir": t.TempDir(),
		"end":        0,
	}, &report)

	if len(report.Written) != 1 {
		t.Errorf("wrote %d frames, want 1", len(report.Written))
	}
}

func TestHandleToolsCall_SonarExportFrames_Rectangular(t *testing.T) {
	s := newTestServer()
	outDir := t.TempDir()

	var report sonar.ExportReport
	callTool(t, s, "sonar_export_frames", map[string]interface{}{
		"path":        createTestRecording(t),
		"output_dir":  outDir,
		"end":         0,
		"rectangular": true,
	}, &report)

	if len(report.Written) != 1 {
		t.Fatalf("wrote %d frames, want 1", len(report.Written))
	}
	img, err := imaging.LoadGray(report.Written[0])
	if err != nil {
		t.Fatalf("failed to load exported frame: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(48, 30) {
		t.Errorf("size = %v, want 48x30", got)
	}
}

func TestHandleToolsCall_PolarMask(t *testing.T) {
	s := newTestServer()

	var result polarMaskResult
	callTool(t, s, "polar_mask", map[string]interface{}{
		"image_path": createTestImageFile(t, 40, 30, 50),
	}, &result)

	if result.ValidPixels != 1200 || result.ValidFraction != 1 {
		t.Errorf("mask = %d pixels (%v), want 1200 (1)", result.ValidPixels, result.ValidFraction)
	}
	if result.Mask == nil || result.Mask.MimeType != "image/png" {
		t.Errorf("mask image = %+v, want a PNG", result.Mask)
	}
}

func TestHandleToolsCall_PolarMask_PolarFrame(t *testing.T) {
	s := newTestServer()

	var result polarMaskResult
	callTool(t, s, "polar_mask", map[string]interface{}{
		"sonar_path": createTestRecording(t),
		"polar":      true,
	}, &result)

	// Window [2, 10] m at 30 samples gives a 20x31 fan bounding box.
	if result.Width != 20 || result.Height != 31 {
		t.Errorf("size = %dx%d, want 20x31", result.Width, result.Height)
	}
	if result.ValidFraction <= 0 || result.ValidFraction >= 1 {
		t.Errorf("valid fraction = %v, want strictly between 0 and 1", result.ValidFraction)
	}
}

func TestHandleToolsCall_PolarWindows(t *testing.T) {
	s := newTestServer()

	var result windowsResult
	callTool(t, s, "polar_windows", map[string]interface{}{
		"image_path":    createTestImageFile(t, 40, 30, 50),
		"window_width":  10,
		"window_height": 10,
		"stride":        10,
	}, &result)

	// x in {0, 10, 20}, y in {0, 10}
	if result.Count != 6 || len(result.Windows) != 6 {
		t.Fatalf("got %d windows, want 6", result.Count)
	}
	if result.Windows[1].Left() != 0 || result.Windows[1].Top() != 10 {
		t.Errorf("second window = %v, want (0,10)", result.Windows[1])
	}
}

func TestHandleToolsCall_PolarWindows_NoSource(t *testing.T) {
	s := newTestServer()
	resp := toolsCall(t, s, "polar_windows", map[string]interface{}{})
	if resp.Error == nil {
		t.Error("expected error without image_path or sonar_path")
	}
}

// smallSearch overrides the search so a 40x30 frame yields a handful of
// 10x10 windows.
func smallSearch() map[string]interface{} {
	return map[string]interface{}{
		"min_window_size": 10,
		"max_window_size": 10,
		"stride":          10,
	}
}

func acceptAll() map[string]interface{} {
	return map[string]interface{}{
		"mode":       "random",
		"threshold":  -1,
		"input_size": 10,
	}
}

func TestHandleToolsCall_GenerateProposals(t *testing.T) {
	s := newTestServer()

	var result proposalsResult
	callTool(t, s, "generate_proposals", map[string]interface{}{
		"image_path": createTestImageFile(t, 40, 30, 50),
		"search":     smallSearch(),
		"evaluator":  acceptAll(),
	}, &result)

	if result.Count != 6 {
		t.Errorf("got %d proposals, want 6", result.Count)
	}
	for _, p := range result.Proposals {
		if p.Window.Width() != 10 || p.Window.Height() != 10 {
			t.Errorf("window %v, want 10x10", p.Window)
		}
	}
}

func TestHandleToolsCall_GenerateProposals_SonarFrame(t *testing.T) {
	s := newTestServer()

	var result proposalsResult
	callTool(t, s, "generate_proposals", map[string]interface{}{
		"sonar_path": createTestRecording(t),
		"frame":      1,
		"search":     smallSearch(),
		"evaluator":  acceptAll(),
	}, &result)

	// The frame is 48x30: x in {0, 10, 20, 30}, y in {0, 10}.
	if result.Count != 8 {
		t.Errorf("got %d proposals, want 8", result.Count)
	}
}

func TestHandleToolsCall_GenerateProposals_Multi(t *testing.T) {
	s := newTestServer()

	var result bucketsResult
	callTool(t, s, "generate_proposals", map[string]interface{}{
		"image_path": createTestImageFile(t, 40, 30, 50),
		"mode":       "multi",
		"thresholds": []float64{-1, 2},
		"search":     smallSearch(),
		"evaluator":  acceptAll(),
	}, &result)

	if len(result.Buckets) != 2 {
		t.Fatalf("got %d buckets, want 2", len(result.Buckets))
	}
	if got := len(result.Buckets.At(-1)); got != 6 {
		t.Errorf("bucket -1 has %d proposals, want 6", got)
	}
	if got := len(result.Buckets.At(2)); got != 0 {
		t.Errorf("bucket 2 has %d proposals, want 0", got)
	}
}

func TestHandleToolsCall_GenerateProposals_Dense(t *testing.T) {
	s := newTestServer()

	evaluator := acceptAll()
	evaluator["threshold"] = 2

	var result proposalsResult
	callTool(t, s, "generate_proposals", map[string]interface{}{
		"image_path": createTestImageFile(t, 40, 30, 50),
		"mode":       "dense",
		"search":     smallSearch(),
		"evaluator":  evaluator,
	}, &result)

	if result.Count != 6 {
		t.Errorf("got %d dense scores, want one per window (6)", result.Count)
	}
}

func TestHandleToolsCall_GenerateProposals_Class(t *testing.T) {
	s := newTestServer()

	var result proposalsResult
	callTool(t, s, "generate_proposals", map[string]interface{}{
		"image_path": createTestImageFile(t, 40, 30, 50),
		"mode":       "class",
		"label":      "tire",
		"search":     smallSearch(),
		"evaluator":  acceptAll(),
	}, &result)

	if result.Count != 6 {
		t.Fatalf("got %d detections, want 6", result.Count)
	}
	for _, p := range result.Proposals {
		if p.Class != "tire" {
			t.Errorf("class = %q, want tire", p.Class)
		}
	}
}

func TestHandleToolsCall_GenerateProposals_Errors(t *testing.T) {
	s := newTestServer()
	img := createTestImageFile(t, 40, 30, 50)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"unknown mode", map[string]interface{}{"image_path": img, "mode": "sparse"}},
		{"bad stride", map[string]interface{}{"image_path": img, "search": map[string]interface{}{"stride": 0}}},
		{"unknown evaluator", map[string]interface{}{"image_path": img, "evaluator": map[string]interface{}{"mode": "cnn"}}},
		{"missing image", map[string]interface{}{"image_path": "/nonexistent/frame.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := toolsCall(t, s, "generate_proposals", tt.args)
			if resp.Error == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestHandleToolsCall_GenerateProposals_KeepsServerConfig(t *testing.T) {
	s := newTestServer()

	search := smallSearch()
	search["aspect_ratios"] = []float64{0.9}

	var result proposalsResult
	callTool(t, s, "generate_proposals", map[string]interface{}{
		"image_path": createTestImageFile(t, 40, 30, 50),
		"search":     search,
		"evaluator":  acceptAll(),
	}, &result)

	if got := s.cfg.Search.AspectRatios; len(got) != 1 || got[0] != 1 {
		t.Errorf("server aspect ratios = %v, want [1]", got)
	}
	if s.cfg.Search.MinWindowSize != 96 {
		t.Errorf("server min window size = %d, want 96", s.cfg.Search.MinWindowSize)
	}
}

func TestHandleToolsCall_ObjectnessProposals(t *testing.T) {
	s := newTestServer()

	obj := image.NewGray(image.Rect(0, 0, 40, 30))
	obj.Pix[obj.PixOffset(15, 15)] = 255
	objPath := filepath.Join(t.TempDir(), "objectness.png")
	if err := imaging.Save(obj, objPath); err != nil {
		t.Fatalf("failed to write objectness map: %v", err)
	}

	var result bucketsResult
	callTool(t, s, "objectness_proposals", map[string]interface{}{
		"image_path":      createTestImageFile(t, 40, 30, 50),
		"objectness_path": objPath,
		"thresholds":      []float64{0, 0.5},
		"window_size":     10,
		"stride":          10,
	}, &result)

	if got := len(result.Buckets.At(0)); got != 6 {
		t.Errorf("bucket 0 has %d proposals, want 6", got)
	}
	high := result.Buckets.At(0.5)
	if len(high) != 1 || high[0].Window.Left() != 10 || high[0].Window.Top() != 10 {
		t.Errorf("bucket 0.5 = %+v, want the window at (10,10)", high)
	}
}

func TestHandleToolsCall_ObjectnessProposals_CoarseMap(t *testing.T) {
	s := newTestServer()
	objPath := createTestImageFile(t, 20, 15, 255)

	var result bucketsResult
	callTool(t, s, "objectness_proposals", map[string]interface{}{
		"image_path":      createTestImageFile(t, 40, 30, 50),
		"objectness_path": objPath,
		"thresholds":      []float64{0.5},
		"window_size":     10,
		"stride":          10,
	}, &result)

	if got := len(result.Buckets.At(0.5)); got != 6 {
		t.Errorf("got %d proposals from a resampled map, want 6", got)
	}
}

func TestHandleToolsCall_SuppressProposals(t *testing.T) {
	s := newTestServer()

	var result proposalsResult
	callTool(t, s, "suppress_proposals", map[string]interface{}{
		"proposals": []map[string]interface{}{
			{"window": rectJSON(0, 0, 10, 10), "score": 0.4},
			{"window": rectJSON(1, 1, 10, 10), "score": 0.9},
			{"window": rectJSON(30, 30, 10, 10), "score": 0.2},
		},
		"iou_threshold": 0.5,
	}, &result)

	if result.Count != 2 {
		t.Fatalf("kept %d proposals, want 2", result.Count)
	}
	// The stronger overlapping proposal takes the first slot.
	if result.Proposals[0].Score != 0.9 || result.Proposals[0].Window.Left() != 1 {
		t.Errorf("first proposal = %+v, want the 0.9 window at (1,1)", result.Proposals[0])
	}
}

func TestHandleToolsCall_SuppressProposals_BadThreshold(t *testing.T) {
	s := newTestServer()
	resp := toolsCall(t, s, "suppress_proposals", map[string]interface{}{
		"proposals":     []map[string]interface{}{},
		"iou_threshold": 2,
	})
	if resp.Error == nil {
		t.Error("expected error for IoU threshold above 1")
	}
}

func TestHandleToolsCall_ComputeRecall(t *testing.T) {
	s := newTestServer()

	var result detection.RecallResult
	callTool(t, s, "compute_recall", map[string]interface{}{
		"ground_truth": []map[string]interface{}{rectJSON(0, 0, 10, 10), rectJSON(50, 50, 10, 10)},
		"proposals":    []map[string]interface{}{rectJSON(0, 0, 10, 10)},
	}, &result)

	if result.Recall != 0.5 || result.Matched != 1 {
		t.Errorf("recall = %v (%d matched), want 0.5 (1)", result.Recall, result.Matched)
	}
	if len(result.IoUs) != 2 || result.IoUs[0] != 1 || result.IoUs[1] != 0 {
		t.Errorf("IoUs = %v, want [1 0]", result.IoUs)
	}
}

func TestHandleToolsCall_RenderProposals(t *testing.T) {
	s := newTestServer()
	args := map[string]interface{}{
		"image_path":   createTestImageFile(t, 40, 30, 50),
		"proposals":    []map[string]interface{}{{"window": rectJSON(2, 2, 10, 10), "score": 0.7}},
		"ground_truth": []map[string]interface{}{rectJSON(20, 10, 8, 8)},
		"show_scores":  true,
	}

	var encoded imaging.EncodedImage
	callTool(t, s, "render_proposals", args, &encoded)
	if encoded.Width != 40 || encoded.Height != 30 || encoded.ImageBase64 == "" {
		t.Errorf("encoded = %dx%d, want 40x30 with data", encoded.Width, encoded.Height)
	}

	out := filepath.Join(t.TempDir(), "overlay.png")
	args["output_path"] = out

	var saved savedImageResult
	callTool(t, s, "render_proposals", args, &saved)
	if saved.Path != out {
		t.Errorf("path = %q, want %q", saved.Path, out)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("overlay not written: %v", err)
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := newTestServer()
	resp := toolsCall(t, s, "sonar_unknown", map[string]interface{}{})

	if resp.Error == nil {
		t.Fatal("Expected error for unknown tool")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer()
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  json.RawMessage(`{invalid json}`),
	}

	resp := s.handleToolsCall(context.Background(), req)

	if resp.Error == nil {
		t.Fatal("Expected error for invalid params")
	}
	if resp.Error.Code != -32602 {
		t.Errorf("Error code: got %d, want -32602", resp.Error.Code)
	}
}

func TestExecuteTool_AllTools(t *testing.T) {
	s := newTestServer()

	// Every defined tool must be dispatched; bad arguments are fine, an
	// unknown-tool error is not.
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			_, err := s.executeTool(context.Background(), tool.Name, json.RawMessage(`{}`))
			if err != nil && err.Error() == "unknown tool: "+tool.Name {
				t.Errorf("tool %s is defined but not dispatched", tool.Name)
			}
		})
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := newTestServer()
	_, err := s.executeTool(context.Background(), "sonar_file_info", json.RawMessage(`{bad`))
	if err == nil {
		t.Error("Expected error for invalid JSON arguments")
	}
}
