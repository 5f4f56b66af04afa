// Package output formats CLI results as aligned text tables or JSON.
package output

// Format represents the output format type.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// FromJSONFlag maps the conventional --json flag to a Format.
func FromJSONFlag(jsonMode bool) Format {
	if jsonMode {
		return FormatJSON
	}
	return FormatText
}

// Formatter is the interface for output formatters.
// Types implementing this interface can output in text or JSON format.
type Formatter interface {
	FormatText() string
	FormatJSON() ([]byte, error)
}

// Render formats the given Formatter based on the specified format.
func Render(f Formatter, format Format) (string, error) {
	switch format {
	case FormatJSON:
		data, err := f.FormatJSON()
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return f.FormatText(), nil
	}
}
