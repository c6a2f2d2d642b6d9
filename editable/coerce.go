package editable

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// coerce converts field text to the column's type. Text that does not parse
// is kept as it is.
func coerce(col Column, text string) any {
	switch col.Type {
	case TypeInt:
		v, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			log.Warn().Str("field", col.Field).Str("text", text).Msg("not an integer, keeping text")
			return text
		}
		return v
	case TypeFloat:
		v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			log.Warn().Str("field", col.Field).Str("text", text).Msg("not a number, keeping text")
			return text
		}
		return v
	case TypeBool:
		v, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			log.Warn().Str("field", col.Field).Str("text", text).Msg("not a boolean, keeping text")
			return text
		}
		return v
	default:
		return text
	}
}
