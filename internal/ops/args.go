package ops

import (
	"strconv"

	"github.com/me/herd/internal/command"
	"github.com/me/herd/pkg/model"
)

// stringArg extracts a required string argument.
func stringArg(args command.Args, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", model.NewValidationError("missing required argument '%s'", name)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", model.NewValidationError("argument '%s' must be a non-empty string", name)
	}
	return s, nil
}

// optionalStringArg extracts an optional string argument, returning
// fallback when absent or empty.
func optionalStringArg(args command.Args, name, fallback string) string {
	if s, ok := args[name].(string); ok && s != "" {
		return s
	}
	return fallback
}

// int64Arg extracts a required integer argument. JSON decoding delivers
// numbers as float64, so the accepted representations are wider than
// the canonical type.
func int64Arg(args command.Args, name string) (int64, error) {
	v, ok := args[name]
	if !ok {
		return 0, model.NewValidationError("missing required argument '%s'", name)
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, model.NewValidationError("argument '%s' is not an integer: %v", name, err)
		}
		return parsed, nil
	default:
		return 0, model.NewValidationError("argument '%s' must be an integer", name)
	}
}
