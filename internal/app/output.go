package app

import (
	"encoding/json"
	"fmt"
)

// formatValue renders a result the way it would be written in a grid file.
func formatValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
