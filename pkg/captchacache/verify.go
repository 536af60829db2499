package captchacache

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"
)

// verify checks that the module is loaded and exposes every catalog command.
// Every record returned by MODULE LIST must carry the module name.
func (c *Conn) verify(ctx context.Context) error {
	reply, err := c.exec.Do(ctx, "MODULE", "LIST").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return storeError("MODULE LIST", err)
	}

	records, err := decodeModuleList(reply)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: MODULE LIST is empty", ErrExtensionNotLoaded)
	}
	for i, fields := range records {
		if !slices.Contains(fields, c.catalog.Module) {
			return fmt.Errorf("%w: %s missing from module record %d", ErrExtensionNotLoaded, c.catalog.Module, i)
		}
	}

	for _, name := range c.catalog.Commands() {
		reply, err := c.exec.Do(ctx, "COMMAND", "INFO", name).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return storeError("COMMAND INFO "+name, err)
		}

		switch status := decodeCommandInfo(reply); status {
		case infoAbsent:
			return &CommandMissingError{Command: name}
		case infoMalformed:
			c.logger.Printf("captchacache: COMMAND INFO %s returned %s reply %v, assuming command exists", name, status, reply)
		}
	}

	return nil
}
