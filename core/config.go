package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when a captcha configuration is rejected
	ErrInvalidConfig = errors.New("invalid captcha configuration")

	// ErrNoLevels is returned when a configuration has no difficulty levels
	ErrNoLevels = errors.New("at least one level is required")

	// ErrZeroDuration is returned when the visitor window is zero
	ErrZeroDuration = errors.New("duration must be positive")

	// ErrZeroDifficulty is returned when a level has no difficulty
	ErrZeroDifficulty = errors.New("difficulty factor must be positive")

	// ErrLevelOrder is returned when visitor thresholds are not strictly ascending
	ErrLevelOrder = errors.New("visitor thresholds must be strictly ascending")
)

// Validate checks that the configuration can be accepted by the cache module.
func (c *CaptchaConfig) Validate() error {
	if len(c.Levels) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrNoLevels)
	}
	if c.Duration == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrZeroDuration)
	}

	for i, level := range c.Levels {
		if level.DifficultyFactor == 0 {
			return fmt.Errorf("%w: level %d: %w", ErrInvalidConfig, i, ErrZeroDifficulty)
		}
		if i > 0 && level.VisitorThreshold <= c.Levels[i-1].VisitorThreshold {
			return fmt.Errorf("%w: level %d: %w", ErrInvalidConfig, i, ErrLevelOrder)
		}
	}

	return nil
}

// DifficultyFor returns the difficulty of the first level whose threshold
// covers visitors. Traffic beyond the last threshold gets the last level.
func (c *CaptchaConfig) DifficultyFor(visitors uint32) uint32 {
	if len(c.Levels) == 0 {
		return 0
	}
	for _, level := range c.Levels {
		if visitors <= level.VisitorThreshold {
			return level.DifficultyFactor
		}
	}
	return c.Levels[len(c.Levels)-1].DifficultyFactor
}
