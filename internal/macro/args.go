package macro

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatArg renders a single macro argument the way the controller expects it.
func FormatArg(a any) string {
	switch v := a.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(v)
	}
}

// JoinArgs renders the argument list as it appears in the macro path.
func JoinArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = FormatArg(a)
	}
	return strings.Join(parts, ",")
}

// SplitArgs parses the comma separated argument segment of a macro path.
func SplitArgs(segment string) []string {
	segment = strings.Trim(segment, "/")
	if segment == "" {
		return nil
	}
	return strings.Split(segment, ",")
}
