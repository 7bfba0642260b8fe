package settings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/subrules/internal/model"
)

// Settings is the optional YAML settings file. Command line flags override
// whatever is set here.
type Settings struct {
	ProxyName   string   `yaml:"proxy_name"`
	CustomRules []string `yaml:"custom_rules"`
	UniqueNames bool     `yaml:"unique_names"`

	DNS    DNS    `yaml:"dns"`
	Log    Log    `yaml:"log"`
	Server Server `yaml:"server"`
}

type DNS struct {
	Domestic   []string `yaml:"domestic"`
	Trusted    []string `yaml:"trusted"`
	GeoXMirror string   `yaml:"geox_mirror"` // "none" disables the mirror
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

type Server struct {
	Listen            string        `yaml:"listen"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	RateLimit         float64       `yaml:"rate_limit"` // requests/second per client, 0 disables
	Burst             int           `yaml:"burst"`
	CORSOrigins       []string      `yaml:"cors_origins"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes"`
}

func Default() Settings {
	return Settings{
		Log: Log{Level: "info", Format: "text"},
		Server: Server{
			Listen:            "127.0.0.1:25500",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			RateLimit:         10,
			Burst:             20,
			MaxBodyBytes:      8 << 20,
		},
	}
}

type ParseError struct {
	AppError model.AppError
	Cause    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Load reads the settings file at path. An empty path yields Default().
func Load(path string) (Settings, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, &ParseError{
			AppError: model.AppError{
				Code:    "SETTINGS_READ_ERROR",
				Message: fmt.Sprintf("读取配置文件失败：%s", path),
				Stage:   "load_settings",
			},
			Cause: err,
		}
	}
	return Parse(string(b))
}

// Parse decodes content over Default(). Unknown keys are rejected.
func Parse(content string) (Settings, error) {
	s := Default()
	if strings.TrimSpace(content) != "" {
		if err := yamlDecodeStrict(content, &s); err != nil {
			return Settings{}, &ParseError{
				AppError: model.AppError{
					Code:    "SETTINGS_PARSE_ERROR",
					Message: "配置文件 YAML 解析失败",
					Stage:   "load_settings",
					Snippet: truncateSnippet(content, 200),
				},
				Cause: err,
			}
		}
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	if _, err := logrus.ParseLevel(s.Log.Level); err != nil {
		return validateErr("log.level 不合法", "expected: trace, debug, info, warn, error", err)
	}
	switch s.Log.Format {
	case "text", "json":
	default:
		return validateErr(fmt.Sprintf("log.format 不合法：%s", s.Log.Format), "expected: text or json", nil)
	}
	if s.Server.ReadHeaderTimeout <= 0 || s.Server.ShutdownTimeout <= 0 {
		return validateErr("server 超时必须大于 0", "e.g. read_header_timeout: 5s", nil)
	}
	if s.Server.RateLimit < 0 || s.Server.Burst < 0 {
		return validateErr("server.rate_limit/burst 不能为负数", "", nil)
	}
	if s.Server.RateLimit > 0 && s.Server.Burst == 0 {
		return validateErr("启用限流时 server.burst 必须大于 0", "", nil)
	}
	if s.Server.MaxBodyBytes <= 0 {
		return validateErr("server.max_body_bytes 必须大于 0", "", nil)
	}
	return nil
}

func validateErr(msg, hint string, cause error) error {
	return &ParseError{
		AppError: model.AppError{
			Code:    "SETTINGS_VALIDATE_ERROR",
			Message: msg,
			Stage:   "load_settings",
			Hint:    hint,
		},
		Cause: cause,
	}
}

func yamlDecodeStrict(content string, out any) error {
	dec := yaml.NewDecoder(strings.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return err
	}

	// Reject multi-document YAML to keep behavior deterministic.
	var extra any
	if err := dec.Decode(&extra); err == nil {
		return errors.New("multiple YAML documents are not allowed")
	} else if !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func truncateSnippet(s string, max int) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	i := max
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return s[:i]
}
