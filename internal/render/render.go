package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/subrules/internal/model"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

type RenderError struct {
	AppError model.AppError
	Cause    error
}

func (e *RenderError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *RenderError) Unwrap() error { return e.Cause }

// ParseFormat accepts "yaml", "yml" and "json"; empty means yaml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", &RenderError{
			AppError: model.AppError{
				Code:    "UNSUPPORTED_FORMAT",
				Message: fmt.Sprintf("不支持的输出格式：%s", s),
				Stage:   "render",
				Hint:    "format must be yaml or json",
			},
		}
	}
}

// Render encodes the whole document in key order.
func Render(format Format, cfg *model.Config) ([]byte, error) {
	if cfg == nil {
		return nil, &RenderError{
			AppError: model.AppError{
				Code:    "INVALID_ARGUMENT",
				Message: "render input 不能为空",
				Stage:   "render",
			},
		}
	}

	var buf bytes.Buffer
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, encodeErr(err)
		}
		if err := enc.Close(); err != nil {
			return nil, encodeErr(err)
		}
	case FormatJSON:
		raw, err := json.Marshal(cfg)
		if err != nil {
			return nil, encodeErr(err)
		}
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return nil, encodeErr(err)
		}
		buf.WriteByte('\n')
	default:
		return nil, &RenderError{
			AppError: model.AppError{
				Code:    "UNSUPPORTED_FORMAT",
				Message: fmt.Sprintf("不支持的输出格式：%s", format),
				Stage:   "render",
			},
		}
	}
	return buf.Bytes(), nil
}

// Detect reports the format a document was written in: JSON when its first
// non-blank byte opens an object, YAML otherwise.
func Detect(b []byte) Format {
	b = bytes.TrimLeft(b, " \t\r\n\ufeff")
	if len(b) > 0 && b[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}

func ContentType(format Format) string {
	if format == FormatJSON {
		return "application/json; charset=utf-8"
	}
	return "text/yaml; charset=utf-8"
}

// Extension is the file extension used for downloads.
func Extension(format Format) string {
	if format == FormatJSON {
		return ".json"
	}
	return ".yaml"
}

func encodeErr(err error) error {
	return &RenderError{
		AppError: model.AppError{
			Code:    "RENDER_ERROR",
			Message: "配置编码失败",
			Stage:   "render",
		},
		Cause: err,
	}
}
