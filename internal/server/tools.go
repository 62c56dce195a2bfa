package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// withFrameSource adds the image_path / sonar_path / frame input properties
// shared by every tool that operates on a single frame.
func withFrameSource(props map[string]interface{}) map[string]interface{} {
	props["image_path"] = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to a grayscale sonar image. Ignored when sonar_path is set",
	}
	props["sonar_path"] = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to an ARIS recording to read the frame from",
	}
	props["frame"] = map[string]interface{}{
		"type":        "integer",
		"description": "Frame index within sonar_path (0-based). Default 0",
		"default":     0,
	}
	props["polar"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Scan-convert the sonar_path frame into its polar fan instead of using the raw samples x beams raster. Default false",
		"default":     false,
	}
	return props
}

var rectangleSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"x":      map[string]interface{}{"type": "integer"},
		"y":      map[string]interface{}{"type": "integer"},
		"width":  map[string]interface{}{"type": "integer"},
		"height": map[string]interface{}{"type": "integer"},
	},
	"required": []string{"x", "y", "width", "height"},
}

var proposalSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"window": rectangleSchema,
		"score":  map[string]interface{}{"type": "number"},
		"class":  map[string]interface{}{"type": "string"},
	},
	"required": []string{"window", "score"},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Recordings
		{
			Name:        "sonar_file_info",
			Description: "Read the global header of an ARIS recording: format version, frame count, frame rate, samples per beam and range window.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the .aris file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "sonar_frame_info",
			Description: "Decode one frame of an ARIS recording and report its ping mode, beam count, sample count and range window. Optionally returns the frame as a base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the .aris file",
					},
					"frame": map[string]interface{}{
						"type":        "integer",
						"description": "Frame index (0-based)",
					},
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the decoded frame as a PNG. Default false",
						"default":     false,
					},
				},
				"required": []string{"path", "frame"},
			},
		},
		{
			Name:        "sonar_export_frames",
			Description: "Write a range of frames from an ARIS recording as grayscale PNG files, scan-converted into the sonar's polar fan by default. Frames that fail to decode are reported and skipped.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the .aris file",
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory receiving <name>-frameNNNNN.png files. Created if missing",
					},
					"start": map[string]interface{}{
						"type":        "integer",
						"description": "First frame to export. Default 0",
						"default":     0,
					},
					"end": map[string]interface{}{
						"type":        "integer",
						"description": "Last frame to export, inclusive. Default is the last frame",
					},
					"rectangular": map[string]interface{}{
						"type":        "boolean",
						"description": "Write the raw samples x beams raster instead of the polar fan. Default false",
						"default":     false,
					},
				},
				"required": []string{"path", "output_dir"},
			},
		},

		// Field of view
		{
			Name:        "polar_mask",
			Description: "Extract the polar field-of-view mask of a sonar frame by flood-filling the non-zero region connected to the frame center.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": withFrameSource(map[string]interface{}{}),
			},
		},
		{
			Name:        "polar_windows",
			Description: "List the sliding windows of a given size whose corners or center fall inside the field of view.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withFrameSource(map[string]interface{}{
					"window_width": map[string]interface{}{
						"type":        "integer",
						"description": "Window width in pixels. Default is the configured min window size",
					},
					"window_height": map[string]interface{}{
						"type":        "integer",
						"description": "Window height in pixels. Default is the configured min window size",
					},
					"stride": map[string]interface{}{
						"type":        "integer",
						"description": "Step between windows in pixels. Default is the configured stride",
					},
				}),
			},
		},

		// Proposals
		{
			Name:        "generate_proposals",
			Description: "Run the multi-scale sliding-window proposal search over a sonar frame. Mode single returns accepted windows, multi buckets them by score thresholds, dense returns every window's score, class labels accepted windows.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withFrameSource(map[string]interface{}{
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"single", "multi", "dense", "class"},
						"description": "Search mode. Default single",
						"default":     "single",
					},
					"label": map[string]interface{}{
						"type":        "string",
						"description": "Class label attached to accepted windows in class mode. Default object",
						"default":     "object",
					},
					"thresholds": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "number"},
						"description": "Score thresholds for multi mode",
					},
					"search": map[string]interface{}{
						"type":        "object",
						"description": "Overrides of the configured search: min_window_size, max_window_size, scale_factor, aspect_ratios, stride, nms, nms_threshold, workers",
					},
					"evaluator": map[string]interface{}{
						"type":        "object",
						"description": "Overrides of the configured evaluator: mode (random, template-cc, template-sqd), threshold, seed, input_size, templates",
					},
				}),
			},
		},
		{
			Name:        "objectness_proposals",
			Description: "Threshold a dense objectness map (grayscale PNG, 255 = 1.0) at the centers of sliding windows. Coarser maps are bilinearly resampled to the frame size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withFrameSource(map[string]interface{}{
					"objectness_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the objectness map image",
					},
					"thresholds": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "number"},
						"description": "Objectness thresholds, compared inclusively",
					},
					"window_size": map[string]interface{}{
						"type":        "integer",
						"description": "Square window side in pixels. Default 96",
						"default":     96,
					},
					"stride": map[string]interface{}{
						"type":        "integer",
						"description": "Step between windows in pixels. Default 8",
						"default":     8,
					},
					"nms": map[string]interface{}{
						"type":        "boolean",
						"description": "Apply non-maximum suppression to every bucket. Default false",
						"default":     false,
					},
					"nms_threshold": map[string]interface{}{
						"type":        "number",
						"description": "IoU above which proposals are merged. Default 0.5",
						"default":     0.5,
					},
				}),
				"required": []string{"objectness_path"},
			},
		},
		{
			Name:        "suppress_proposals",
			Description: "Greedy non-maximum suppression: drops proposals overlapping an earlier one above the IoU threshold, keeping the higher score in the earlier position.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"proposals": map[string]interface{}{
						"type":        "array",
						"items":       proposalSchema,
						"description": "Proposals in search order",
					},
					"iou_threshold": map[string]interface{}{
						"type":        "number",
						"description": "IoU above which two proposals are merged. Default is the configured NMS threshold",
					},
				},
				"required": []string{"proposals"},
			},
		},

		// Evaluation and inspection
		{
			Name:        "compute_recall",
			Description: "Fraction of ground-truth boxes matched by some proposal with IoU at or above the threshold, with the best IoU per ground-truth box.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"ground_truth": map[string]interface{}{
						"type":        "array",
						"items":       rectangleSchema,
						"description": "Ground-truth boxes",
					},
					"proposals": map[string]interface{}{
						"type":        "array",
						"items":       rectangleSchema,
						"description": "Proposal windows",
					},
					"iou_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Matching IoU. Default is the configured recall_iou",
					},
				},
				"required": []string{"ground_truth", "proposals"},
			},
		},
		{
			Name:        "render_proposals",
			Description: "Draw proposals colored by score (blue to red) and ground truth (green) over a sonar frame. Returns a base64 PNG or writes it to output_path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withFrameSource(map[string]interface{}{
					"proposals": map[string]interface{}{
						"type":  "array",
						"items": proposalSchema,
					},
					"ground_truth": map[string]interface{}{
						"type":  "array",
						"items": rectangleSchema,
					},
					"show_scores": map[string]interface{}{
						"type":        "boolean",
						"description": "Print each proposal's score above its box. Default false",
						"default":     false,
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional PNG path. When empty the image is returned inline",
					},
				}),
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
