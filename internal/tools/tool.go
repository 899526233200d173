package tools

// Tool tool interface
type Tool interface {
	Name() string                                // Tool name
	Description() string                         // Tool description (for LLM)
	Parameters() []ParameterDef                  // Parameter definitions
	Execute(args map[string]any) (string, error) // Execute
}

// ParameterDef parameter definition
type ParameterDef struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "string" | "number" | "boolean"
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// stringArg returns a string argument
func stringArg(args map[string]any, name string) (string, bool) {
	val, ok := args[name].(string)
	if !ok {
		return "", false
	}
	return val, true
}

// intArg accepts JSON numbers (float64) as well as Go ints
func intArg(args map[string]any, name string) (int, bool) {
	switch val := args[name].(type) {
	case float64:
		return int(val), true
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}
