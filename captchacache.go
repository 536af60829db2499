package captchacache

import (
	cc "github.com/yourusername/captchacache/pkg/captchacache"
)

// Re-export main types for convenience
type (
	Cache  = cc.Cache
	Conn   = cc.Conn
	Option = cc.Option
)

// New connects to Redis and verifies the mCaptcha cache module
var New = cc.New
