package types

// PlatformsResponse wraps the list returned by GET /platforms.
type PlatformsResponse struct {
	// example: ["Linux","Win64","Mac","Android"]
	Platforms []TargetPlatform `json:"platforms"`
}

// PlanResponse is returned by GET /plan/{platform}.
type PlanResponse struct {
	Plan LinkPlan `json:"plan"`
	// Fingerprint of the plan, stable across identical inputs.
	// example: 9f1c2a3b4d5e6f70
	Fingerprint string `json:"fingerprint" example:"9f1c2a3b4d5e6f70"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: Win64: /opt/llama (LLAMA_PATH): missing ggml.lib
	Error string `json:"error" example:"Win64: /opt/llama (LLAMA_PATH): missing ggml.lib"`
	// HTTP status code.
	// example: 422
	Code int `json:"code" example:"422"`
}
