package core

// Level maps a visitor threshold to the difficulty served once traffic
// reaches it.
type Level struct {
	VisitorThreshold uint32 `json:"visitor_threshold"`
	DifficultyFactor uint32 `json:"difficulty_factor"`
}

// CaptchaConfig is the payload sent to the cache module when a captcha is
// registered.
type CaptchaConfig struct {
	Levels   []Level `json:"levels"`
	Duration uint64  `json:"duration"` // Visitor window in seconds
}

// AddVisitorResult is what the cache module reports after counting a visitor
type AddVisitorResult struct {
	Duration         uint64 `json:"duration"`
	DifficultyFactor uint32 `json:"difficulty_factor"`
}

// RegisterRequest asks for a captcha to be created under ID
type RegisterRequest struct {
	ID     string
	Config CaptchaConfig
}

// AddVisitorRequest records one visitor against the captcha ID
type AddVisitorRequest struct {
	ID string
}
