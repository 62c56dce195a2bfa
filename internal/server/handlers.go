package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"slices"

	"github.com/mvaldenegro/auv-perception/internal/config"
	"github.com/mvaldenegro/auv-perception/internal/detection"
	"github.com/mvaldenegro/auv-perception/internal/geometry"
	"github.com/mvaldenegro/auv-perception/internal/imaging"
	"github.com/mvaldenegro/auv-perception/internal/polar"
	"github.com/mvaldenegro/auv-perception/internal/render"
	"github.com/mvaldenegro/auv-perception/internal/sonar"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "sonar_file_info", "generate_proposals").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON over the configured defaults
//  2. Loads the input frame from a recording or the image cache
//  3. Calls the appropriate sonar/polar/detection/render function
//  4. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Recordings
	case "sonar_file_info":
		return s.handleSonarFileInfo(args)
	case "sonar_frame_info":
		return s.handleSonarFrameInfo(args)
	case "sonar_export_frames":
		return s.handleSonarExportFrames(args)

	// Field of view
	case "polar_mask":
		return s.handlePolarMask(args)
	case "polar_windows":
		return s.handlePolarWindows(args)

	// Proposals
	case "generate_proposals":
		return s.handleGenerateProposals(ctx, args)
	case "objectness_proposals":
		return s.handleObjectnessProposals(ctx, args)
	case "suppress_proposals":
		return s.handleSuppressProposals(args)

	// Evaluation and inspection
	case "compute_recall":
		return s.handleComputeRecall(args)
	case "render_proposals":
		return s.handleRenderProposals(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// frameSource names the input of an image tool: either an image file or one
// frame of a recording.
type frameSource struct {
	ImagePath string `json:"image_path"`
	SonarPath string `json:"sonar_path"`
	Frame     int    `json:"frame"`
	Polar     bool   `json:"polar"`
}

// load returns the source as a grayscale image. Image files go through the
// cache; recording frames are decoded on every call.
func (s *Server) load(src frameSource) (*image.Gray, error) {
	switch {
	case src.SonarPath != "":
		f, err := sonar.Open(src.SonarPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		frame, err := f.Frame(src.Frame)
		if err != nil {
			return nil, err
		}
		if src.Polar {
			return sonar.PolarImage(frame, sonar.DefaultFOV)
		}
		return frame.Image(), nil
	case src.ImagePath != "":
		return s.cache.Load(src.ImagePath)
	default:
		return nil, fmt.Errorf("either image_path or sonar_path is required")
	}
}

// === Recording Handlers ===

type sonarFileArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleSonarFileInfo(args json.RawMessage) (interface{}, error) {
	var a sonarFileArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	f, err := sonar.Open(a.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.Info(), nil
}

type sonarFrameArgs struct {
	Path         string `json:"path"`
	Frame        int    `json:"frame"`
	IncludeImage bool   `json:"include_image"`
}

type frameInfoResult struct {
	sonar.FrameInfo
	Image *imaging.EncodedImage `json:"image,omitempty"`
}

func (s *Server) handleSonarFrameInfo(args json.RawMessage) (interface{}, error) {
	var a sonarFrameArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	f, err := sonar.Open(a.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	frame, err := f.Frame(a.Frame)
	if err != nil {
		return nil, err
	}

	result := &frameInfoResult{FrameInfo: frame.Info()}
	if a.IncludeImage {
		result.Image, err = imaging.EncodePNG(frame.Image())
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

type sonarExportArgs struct {
	Path        string `json:"path"`
	OutputDir   string `json:"output_dir"`
	Start       int    `json:"start"`
	End         *int   `json:"end"`
	Rectangular bool   `json:"rectangular"`
}

func (s *Server) handleSonarExportFrames(args json.RawMessage) (interface{}, error) {
	var a sonarExportArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OutputDir == "" {
		return nil, fmt.Errorf("output_dir is required")
	}
	end := -1
	if a.End != nil {
		end = *a.End
	}

	f, err := sonar.Open(a.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return sonar.ExportFrames(f, sonar.ExportOptions{
		Start:       a.Start,
		End:         end,
		OutputDir:   a.OutputDir,
		Rectangular: a.Rectangular,
		Logger:      s.logger,
	})
}

// === Field of View Handlers ===

type polarMaskResult struct {
	Width         int                   `json:"width"`
	Height        int                   `json:"height"`
	ValidPixels   int                   `json:"valid_pixels"`
	ValidFraction float64               `json:"valid_fraction"`
	Mask          *imaging.EncodedImage `json:"mask"`
}

func (s *Server) handlePolarMask(args json.RawMessage) (interface{}, error) {
	var a frameSource
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a)
	if err != nil {
		return nil, err
	}

	mask := polar.ExtractMask(img)
	encoded, err := imaging.EncodePNG(mask)
	if err != nil {
		return nil, err
	}

	return &polarMaskResult{
		Width:         mask.Bounds().Dx(),
		Height:        mask.Bounds().Dy(),
		ValidPixels:   polar.CountValid(mask),
		ValidFraction: polar.ValidFraction(mask),
		Mask:          encoded,
	}, nil
}

type polarWindowsArgs struct {
	frameSource
	WindowWidth  int `json:"window_width"`
	WindowHeight int `json:"window_height"`
	Stride       int `json:"stride"`
}

type windowsResult struct {
	Count   int                  `json:"count"`
	Windows []geometry.Rectangle `json:"windows"`
}

func (s *Server) handlePolarWindows(args json.RawMessage) (interface{}, error) {
	a := polarWindowsArgs{
		WindowWidth:  s.cfg.Search.MinWindowSize,
		WindowHeight: s.cfg.Search.MinWindowSize,
		Stride:       s.cfg.Search.Stride,
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a.frameSource)
	if err != nil {
		return nil, err
	}

	mask := polar.ExtractMask(img)
	windows, err := polar.SlidingWindows(img.Bounds().Size(), image.Pt(a.WindowWidth, a.WindowHeight), mask, a.Stride)
	if err != nil {
		return nil, err
	}
	return &windowsResult{Count: len(windows), Windows: windows}, nil
}

// === Proposal Handlers ===

// Search modes of generate_proposals.
const (
	searchSingle = "single"
	searchMulti  = "multi"
	searchDense  = "dense"
	searchClass  = "class"
)

type generateProposalsArgs struct {
	frameSource
	Mode       string                 `json:"mode"`
	Label      string                 `json:"label"`
	Thresholds []float64              `json:"thresholds"`
	Search     config.SearchConfig    `json:"search"`
	Evaluator  config.EvaluatorConfig `json:"evaluator"`
}

type proposalsResult struct {
	Count     int                  `json:"count"`
	Proposals []detection.Proposal `json:"proposals"`
}

type bucketsResult struct {
	Buckets detection.Buckets `json:"buckets"`
}

// requestConfig returns a copy of the server configuration with the search
// and evaluator sections replaced by a's, validated.
func (s *Server) requestConfig(a *generateProposalsArgs) (*config.Config, error) {
	cfg := *s.cfg
	cfg.Search = a.Search
	cfg.Evaluator = a.Evaluator
	cfg.Thresholds = a.Thresholds
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *Server) handleGenerateProposals(ctx context.Context, args json.RawMessage) (interface{}, error) {
	a := generateProposalsArgs{
		Mode:       searchSingle,
		Label:      "object",
		Thresholds: slices.Clone(s.cfg.Thresholds),
		Search:     s.cfg.Search,
		Evaluator:  s.cfg.Evaluator,
	}
	// Unmarshal reuses slice backing arrays; keep the server's own intact.
	a.Search.AspectRatios = slices.Clone(a.Search.AspectRatios)
	a.Evaluator.Templates = slices.Clone(a.Evaluator.Templates)
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	cfg, err := s.requestConfig(&a)
	if err != nil {
		return nil, err
	}
	img, err := s.load(a.frameSource)
	if err != nil {
		return nil, err
	}
	eval, err := cfg.NewEvaluator()
	if err != nil {
		return nil, err
	}
	opts := cfg.SearchOptions(s.logger)

	switch a.Mode {
	case searchSingle:
		proposals, err := detection.Proposals(ctx, img, eval, opts)
		if err != nil {
			return nil, err
		}
		return &proposalsResult{Count: len(proposals), Proposals: proposals}, nil
	case searchMulti:
		if len(cfg.Thresholds) == 0 {
			return nil, fmt.Errorf("multi mode needs at least one threshold")
		}
		buckets, err := detection.ProposalsMultiThreshold(ctx, img, eval, cfg.Thresholds, opts)
		if err != nil {
			return nil, err
		}
		return &bucketsResult{Buckets: buckets}, nil
	case searchDense:
		scores, err := detection.DenseScores(ctx, img, eval, opts)
		if err != nil {
			return nil, err
		}
		return &proposalsResult{Count: len(scores), Proposals: scores}, nil
	case searchClass:
		detections, err := detection.ClassDetections(ctx, img, detection.WithClass(eval, a.Label), opts)
		if err != nil {
			return nil, err
		}
		return &proposalsResult{Count: len(detections), Proposals: detections}, nil
	default:
		return nil, fmt.Errorf("unknown mode %q: want single, multi, dense or class", a.Mode)
	}
}

type objectnessProposalsArgs struct {
	frameSource
	ObjectnessPath string    `json:"objectness_path"`
	Thresholds     []float64 `json:"thresholds"`
	WindowSize     int       `json:"window_size"`
	Stride         int       `json:"stride"`
	NMS            bool      `json:"nms"`
	NMSThreshold   float64   `json:"nms_threshold"`
}

func (s *Server) handleObjectnessProposals(ctx context.Context, args json.RawMessage) (interface{}, error) {
	d := detection.DefaultObjectnessOptions()
	a := objectnessProposalsArgs{
		WindowSize:   d.WindowSize,
		Stride:       d.Stride,
		NMSThreshold: d.NMSThreshold,
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ObjectnessPath == "" {
		return nil, fmt.Errorf("objectness_path is required")
	}
	if len(a.Thresholds) == 0 {
		a.Thresholds = slices.Clone(s.cfg.Thresholds)
	}

	img, err := s.load(a.frameSource)
	if err != nil {
		return nil, err
	}
	objImg, err := s.cache.Load(a.ObjectnessPath)
	if err != nil {
		return nil, err
	}

	// Dense scorers usually emit a coarser map than the frame.
	objectness := detection.ObjectnessFromGray(objImg)
	size := img.Bounds().Size()
	if r, c := objectness.Dims(); r != size.Y || c != size.X {
		objectness = detection.ResampleObjectness(objectness, size.Y, size.X)
	}

	buckets, err := detection.ObjectnessProposalsMultiThreshold(ctx, img, objectness, a.Thresholds, detection.ObjectnessOptions{
		WindowSize:   a.WindowSize,
		Stride:       a.Stride,
		NMS:          a.NMS,
		NMSThreshold: a.NMSThreshold,
	})
	if err != nil {
		return nil, err
	}
	return &bucketsResult{Buckets: buckets}, nil
}

type suppressArgs struct {
	Proposals    []detection.Proposal `json:"proposals"`
	IoUThreshold float64              `json:"iou_threshold"`
}

func (s *Server) handleSuppressProposals(args json.RawMessage) (interface{}, error) {
	a := suppressArgs{IoUThreshold: s.cfg.Search.NMSThreshold}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.IoUThreshold < 0 || a.IoUThreshold > 1 {
		return nil, &detection.ConfigurationError{Field: "iou threshold", Value: a.IoUThreshold, Reason: "must be within [0, 1]"}
	}

	kept := detection.Suppress(a.Proposals, a.IoUThreshold)
	return &proposalsResult{Count: len(kept), Proposals: kept}, nil
}

// === Evaluation and Inspection Handlers ===

type recallArgs struct {
	GroundTruth  []geometry.Rectangle `json:"ground_truth"`
	Proposals    []geometry.Rectangle `json:"proposals"`
	IoUThreshold float64              `json:"iou_threshold"`
}

func (s *Server) handleComputeRecall(args json.RawMessage) (interface{}, error) {
	a := recallArgs{IoUThreshold: s.cfg.RecallIoU}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	result := detection.ComputeRecall(a.GroundTruth, a.Proposals, a.IoUThreshold)
	return &result, nil
}

type renderArgs struct {
	frameSource
	Proposals   []detection.Proposal `json:"proposals"`
	GroundTruth []geometry.Rectangle `json:"ground_truth"`
	ShowScores  bool                 `json:"show_scores"`
	OutputPath  string               `json:"output_path"`
}

type savedImageResult struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (s *Server) handleRenderProposals(args json.RawMessage) (interface{}, error) {
	var a renderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a.frameSource)
	if err != nil {
		return nil, err
	}

	opts := render.DefaultOptions()
	opts.ShowScores = a.ShowScores
	out, err := render.Proposals(img, a.Proposals, a.GroundTruth, opts)
	if err != nil {
		return nil, err
	}

	if a.OutputPath == "" {
		return imaging.EncodePNG(out)
	}
	if err := imaging.Save(out, a.OutputPath); err != nil {
		return nil, err
	}
	return &savedImageResult{
		Path:   a.OutputPath,
		Width:  out.Bounds().Dx(),
		Height: out.Bounds().Dy(),
	}, nil
}
