package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yourusername/captchacache/core"
	"github.com/yourusername/captchacache/pkg/captchacache"
)

var captchaCommands = []*cobra.Command{
	{
		Use:   "verify",
		Short: "Check that the cache module and its commands are loaded",
		Args:  cobra.NoArgs,
		RunE: withConn(func(ctx context.Context, conn *captchacache.Conn, args []string) (interface{}, error) {
			return map[string]string{"module": core.ModuleName, "status": "ok"}, nil
		}),
	},
	registerCmd,
	{
		Use:   "add-visitor <id>",
		Short: "Record a visitor and print the difficulty to serve",
		Args:  cobra.ExactArgs(1),
		RunE: withConn(func(ctx context.Context, conn *captchacache.Conn, args []string) (interface{}, error) {
			return conn.AddVisitor(ctx, core.AddVisitorRequest{ID: args[0]})
		}),
	},
	{
		Use:   "count <id>",
		Short: "Print the number of visitors in the captcha's window",
		Args:  cobra.ExactArgs(1),
		RunE: withConn(func(ctx context.Context, conn *captchacache.Conn, args []string) (interface{}, error) {
			return conn.VisitorCount(ctx, args[0])
		}),
	},
	{
		Use:   "exists <id>",
		Short: "Print whether a captcha is registered",
		Args:  cobra.ExactArgs(1),
		RunE: withConn(func(ctx context.Context, conn *captchacache.Conn, args []string) (interface{}, error) {
			return conn.Exists(ctx, args[0])
		}),
	},
	{
		Use:   "delete <id>",
		Short: "Delete a captcha",
		Args:  cobra.ExactArgs(1),
		RunE: withConn(func(ctx context.Context, conn *captchacache.Conn, args []string) (interface{}, error) {
			return "deleted", conn.Delete(ctx, args[0])
		}),
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <id>",
	Short: "Register a captcha",
	Long: `Register a captcha with one or more difficulty levels.

Levels are given as threshold:difficulty pairs in ascending
threshold order, e.g. --level 50:500 --level 500:5000`,
	Args: cobra.ExactArgs(1),
	RunE: withConn(func(ctx context.Context, conn *captchacache.Conn, args []string) (interface{}, error) {
		levels, err := parseLevels(viper.GetStringSlice("level"))
		if err != nil {
			return nil, err
		}
		config := core.CaptchaConfig{Levels: levels, Duration: viper.GetUint64("duration")}
		if err := config.Validate(); err != nil {
			return nil, err
		}
		return "registered", conn.Register(ctx, core.RegisterRequest{ID: args[0], Config: config})
	}),
}

func init() {
	registerCmd.Flags().Uint64("duration", 30, "Visitor window in seconds")
	registerCmd.Flags().StringSlice("level", nil, "Difficulty level as threshold:difficulty (repeatable)")
}

// withConn opens a verified connection, runs fn and prints its result as JSON
func withConn(fn func(ctx context.Context, conn *captchacache.Conn, args []string) (interface{}, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cache, err := openCache(cmd.Context())
		if err != nil {
			return err
		}
		defer cache.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), viper.GetDuration("timeout"))
		defer cancel()

		result, err := fn(ctx, cache.Conn(), args)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
}

// parseLevels turns "threshold:difficulty" pairs into levels
func parseLevels(raw []string) ([]core.Level, error) {
	levels := make([]core.Level, 0, len(raw))
	for _, pair := range raw {
		threshold, difficulty, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("level %q: want threshold:difficulty", pair)
		}
		t, err := strconv.ParseUint(threshold, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("level %q: bad threshold: %w", pair, err)
		}
		d, err := strconv.ParseUint(difficulty, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("level %q: bad difficulty: %w", pair, err)
		}
		levels = append(levels, core.Level{VisitorThreshold: uint32(t), DifficultyFactor: uint32(d)})
	}
	return levels, nil
}
