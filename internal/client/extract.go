package client

import (
	"encoding/json"
	"fmt"

	"github.com/jmespath/go-jmespath"
)

// ExtractString applies a JMESPath expression to a JSON body and returns the
// matched value as a string. Numeric matches are formatted without a decimal
// point when integral, so `id: 42` extracts as "42".
func ExtractString(body string, expression string) (string, error) {
	var data interface{}
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}

	jp, err := jmespath.Compile(expression)
	if err != nil {
		return "", fmt.Errorf("invalid JMESPath expression '%s': %w", expression, err)
	}

	result, err := jp.Search(data)
	if err != nil {
		return "", fmt.Errorf("failed to apply expression: %w", err)
	}
	if result == nil {
		return "", fmt.Errorf("expression '%s' matched nothing", expression)
	}

	switch v := result.(type) {
	case string:
		return v, nil
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v)), nil
		}
		return fmt.Sprintf("%v", v), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}
