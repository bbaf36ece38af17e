package toolserver

import (
	"encoding/json"

	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// decodeParams re-marshals a generic params value (as produced by
// encoding/json's interface{} decoding) into dst.
func decodeParams(params any, dst any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func argString(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func argStringSlice(args map[string]any, key string) []string {
	v, ok := args[key]
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func argInt(args map[string]any, key string, def int) int {
	v, ok := args[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}

func argFloat(args map[string]any, key string, def float64) float64 {
	v, ok := args[key]
	if !ok {
		return def
	}
	if n, ok := v.(float64); ok {
		return n
	}
	return def
}

func argBool(args map[string]any, key string, def bool) bool {
	v, ok := args[key]
	if !ok {
		return def
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

func requireString(args map[string]any, key string) (string, error) {
	s, ok := argString(args, key)
	if !ok || s == "" {
		return "", types.NewError(types.KindValidation, "missing required field: "+key, nil)
	}
	return s, nil
}

func clampLimit(v int) int {
	if v <= 0 {
		return types.DefaultQueryLimit
	}
	if v > types.ToolSurfaceMaxLimit {
		return types.ToolSurfaceMaxLimit
	}
	return v
}
