package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	_ "go.uber.org/automaxprocs"

	"github.com/John-Robertt/subrules/internal/dns"
	"github.com/John-Robertt/subrules/internal/httpapi"
	"github.com/John-Robertt/subrules/internal/logging"
	"github.com/John-Robertt/subrules/internal/model"
	"github.com/John-Robertt/subrules/internal/render"
	"github.com/John-Robertt/subrules/internal/settings"
	"github.com/John-Robertt/subrules/internal/transform"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, "\n") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type cliFlags struct {
	config      string
	in          string
	out         string
	format      string
	proxyName   string
	customRules stringList
	uniqueNames bool
	logLevel    string
	logFormat   string
	listen      string
	serve       bool
	healthcheck bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("subrules", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var f cliFlags
	fs.StringVar(&f.config, "config", "", "YAML 配置文件路径（可选）")
	fs.StringVar(&f.in, "in", "-", "输入的 Clash 配置文件，- 表示标准输入")
	fs.StringVar(&f.out, "out", "-", "输出文件，- 表示标准输出")
	fs.StringVar(&f.format, "format", "yaml", "输出格式：yaml 或 json")
	fs.StringVar(&f.proxyName, "proxy-name", "", "默认策略组名称")
	fs.Var(&f.customRules, "custom-rule", "自定义规则 TYPE,VALUE,TARGET（可重复）")
	fs.BoolVar(&f.uniqueNames, "unique-names", false, "为重名节点追加 -2、-3 后缀")
	fs.StringVar(&f.logLevel, "log-level", "", "日志级别")
	fs.StringVar(&f.logFormat, "log-format", "", "日志格式：text 或 json")
	fs.StringVar(&f.listen, "listen", "", "HTTP 监听地址（设置后进入服务模式）")
	fs.BoolVar(&f.serve, "serve", false, "以配置文件中的监听地址进入服务模式")
	fs.BoolVar(&f.healthcheck, "healthcheck", false, "探测 /healthz 后退出（容器健康检查）")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	s, err := settings.Load(f.config)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	explicit := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { explicit[fl.Name] = true })
	applyFlags(&s, f, explicit)
	if err := s.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	log, err := logging.New(logging.Options{Level: s.Log.Level, Format: s.Log.Format, Output: stderr})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	if f.healthcheck {
		u, err := deriveHealthzURL(s.Server.Listen)
		if err == nil {
			err = runHealthcheck(u, 3*time.Second)
		}
		if err != nil {
			log.WithError(err).Error("healthcheck failed")
			return 1
		}
		return 0
	}

	topt := transformOptions(s, log)
	if f.serve || explicit["listen"] {
		if err := serve(s, topt, log); err != nil {
			log.WithError(err).Error("server stopped")
			return 1
		}
		return 0
	}
	return transformFile(f, topt, stdin, stdout, log)
}

func applyFlags(s *settings.Settings, f cliFlags, explicit map[string]bool) {
	if explicit["proxy-name"] {
		s.ProxyName = f.proxyName
	}
	if explicit["custom-rule"] {
		s.CustomRules = f.customRules
	}
	if explicit["unique-names"] {
		s.UniqueNames = f.uniqueNames
	}
	if explicit["log-level"] {
		s.Log.Level = f.logLevel
	}
	if explicit["log-format"] {
		s.Log.Format = f.logFormat
	}
	if explicit["listen"] {
		s.Server.Listen = f.listen
	}
}

func transformOptions(s settings.Settings, log logrus.FieldLogger) transform.Options {
	return transform.Options{
		DefaultGroup: s.ProxyName,
		CustomRules:  s.CustomRules,
		UniqueNames:  s.UniqueNames,
		DNS: dns.Options{
			Domestic:   s.DNS.Domestic,
			Trusted:    s.DNS.Trusted,
			GeoXMirror: s.DNS.GeoXMirror,
		},
		Logger: log,
	}
}

// transformFile runs one transform. On failure the input bytes are written
// back unchanged and the exit status is 1.
func transformFile(f cliFlags, opt transform.Options, stdin io.Reader, stdout io.Writer, log *logrus.Logger) int {
	format, err := render.ParseFormat(f.format)
	if err != nil {
		log.WithError(err).Error("invalid output format")
		return 2
	}
	t, err := transform.New(opt)
	if err != nil {
		log.WithError(err).Error("invalid options")
		return 2
	}

	raw, err := readInput(f.in, stdin)
	if err != nil {
		log.WithError(err).Error("read input failed")
		return 1
	}

	cfg, err := model.ParseConfig(raw)
	if err != nil {
		log.WithError(err).Error("input is not a Clash document")
		if werr := writeOutput(f.out, stdout, raw); werr != nil {
			log.WithError(werr).Error("write output failed")
		}
		return 1
	}

	out, rep, runErr := t.Run(cfg)
	if runErr != nil {
		if err := writeOutput(f.out, stdout, raw); err != nil {
			log.WithError(err).Error("write output failed")
		}
		return 1
	}
	b, err := render.Render(format, out)
	if err != nil {
		log.WithError(err).Error("render failed")
		return 1
	}
	if err := writeOutput(f.out, stdout, b); err != nil {
		log.WithError(err).Error("write output failed")
		return 1
	}
	log.WithFields(logrus.Fields{"kept": rep.Kept, "dropped": rep.Junk + rep.Errors}).Debug("output written")
	return 0
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, stdout io.Writer, b []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func serve(s settings.Settings, topt transform.Options, log *logrus.Logger) error {
	srv := &http.Server{
		Addr: s.Server.Listen,
		Handler: httpapi.NewHandlerWithOptions(httpapi.Options{
			Transform:    topt,
			Logger:       log,
			RateLimit:    s.Server.RateLimit,
			Burst:        s.Server.Burst,
			CORSOrigins:  s.Server.CORSOrigins,
			MaxBodyBytes: s.Server.MaxBodyBytes,
		}),
		ReadHeaderTimeout: s.Server.ReadHeaderTimeout,
	}

	log.Infof("listening on http://%s", s.Server.Listen)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")

		shCtx, cancel := context.WithTimeout(context.Background(), s.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			log.WithError(err).Warn("graceful shutdown failed")
			_ = srv.Close()
		}

		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// deriveHealthzURL turns a listen address into a loopback /healthz URL.
// Unspecified hosts (0.0.0.0, ::, empty) are reached via 127.0.0.1.
func deriveHealthzURL(listen string) (string, error) {
	listen = strings.TrimSpace(listen)
	if listen == "" {
		return "", errors.New("listen address is empty")
	}

	if strings.Contains(listen, "://") {
		u, err := url.Parse(listen)
		if err != nil || u.Host == "" {
			return "", fmt.Errorf("invalid listen url %q", listen)
		}
		u.Path = "/healthz"
		u.RawQuery = ""
		u.Fragment = ""
		return u.String(), nil
	}

	if !strings.Contains(listen, ":") {
		listen = ":" + listen
	}
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "", fmt.Errorf("invalid listen address %q: %w", listen, err)
	}
	if port == "" {
		return "", fmt.Errorf("listen address %q has no port", listen)
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/healthz", nil
}

func runHealthcheck(u string, timeout time.Duration) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, u)
	}
	return nil
}
