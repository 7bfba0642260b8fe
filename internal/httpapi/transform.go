package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/John-Robertt/subrules/internal/model"
	"github.com/John-Robertt/subrules/internal/render"
	"github.com/John-Robertt/subrules/internal/transform"
)

// errorHeader carries the error code when a failed run falls back to the
// original document.
const errorHeader = "X-Subrules-Error"

var notFound = model.AppError{
	Code:    "NOT_FOUND",
	Message: "接口不存在",
	Stage:   "validate_request",
}

type transformRequest struct {
	ProxyName   *string
	CustomRules []string
	UniqueNames *bool
	Format      render.Format
	Strict      bool
	FileName    string
}

type transformHandler struct {
	opt Options
}

func (h transformHandler) handleTransform(w http.ResponseWriter, r *http.Request) {
	req, err := parseTransformQuery(r.URL.Query())
	if err != nil {
		writeErrorFromErr(w, r, err)
		return
	}
	filename, err := outputFileName(req.FileName, req.Format)
	if err != nil {
		writeErrorFromErr(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opt.MaxBodyBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeErrorFromErr(w, r, apiError(http.StatusRequestEntityTooLarge, model.AppError{
				Code:    "BODY_TOO_LARGE",
				Message: "请求体过大",
				Stage:   "validate_request",
				Hint:    fmt.Sprintf("max=%d bytes", mbe.Limit),
			}, err))
			return
		}
		writeErrorFromErr(w, r, apiError(http.StatusBadRequest, model.AppError{
			Code:    "INVALID_ARGUMENT",
			Message: "读取请求体失败",
			Stage:   "validate_request",
		}, err))
		return
	}

	cfg, err := model.ParseConfig(body)
	if err != nil {
		writeErrorFromErr(w, r, apiError(http.StatusBadRequest, model.AppError{
			Code:    "INVALID_DOCUMENT",
			Message: "请求体不是合法的 Clash 配置",
			Stage:   "validate_request",
			Hint:    err.Error(),
		}, err))
		return
	}

	t, err := transform.New(h.transformOptions(r, req))
	if err != nil {
		var te *transform.Error
		if errors.As(err, &te) {
			err = apiError(http.StatusBadRequest, te.AppError, err)
		}
		writeErrorFromErr(w, r, err)
		return
	}

	out, _, runErr := t.Run(cfg)
	if runErr != nil {
		if req.Strict {
			writeErrorFromErr(w, r, runErr)
			return
		}
		writeOriginal(w, body, req.FileName, runErr)
		return
	}

	b, err := render.Render(req.Format, out)
	if err != nil {
		writeErrorFromErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", render.ContentType(req.Format))
	w.Header().Set("Content-Disposition", contentDispositionAttachment(filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h transformHandler) transformOptions(r *http.Request, req transformRequest) transform.Options {
	opt := h.opt.Transform
	opt.Logger = opt.Logger.WithField("request_id", RequestID(r.Context()))
	if req.ProxyName != nil {
		opt.DefaultGroup = *req.ProxyName
	}
	if len(req.CustomRules) > 0 {
		opt.CustomRules = req.CustomRules
	}
	if req.UniqueNames != nil {
		opt.UniqueNames = *req.UniqueNames
	}
	return opt
}

func parseTransformQuery(q url.Values) (transformRequest, error) {
	for key := range q {
		switch key {
		case "proxy_name", "custom_rule", "unique_names", "format", "strict", "fileName":
		default:
			return transformRequest{}, requestError("INVALID_ARGUMENT", fmt.Sprintf("不支持的 query 参数：%s", key), "")
		}
	}

	var req transformRequest

	if v, ok, err := singleQuery(q, "proxy_name"); err != nil {
		return transformRequest{}, err
	} else if ok {
		v = strings.TrimSpace(v)
		if v == "" {
			return transformRequest{}, requestError("INVALID_ARGUMENT", "proxy_name 不能为空", "")
		}
		req.ProxyName = &v
	}

	for _, line := range q["custom_rule"] {
		if strings.TrimSpace(line) == "" {
			return transformRequest{}, requestError("INVALID_ARGUMENT", "custom_rule 不能为空", "expected: TYPE,VALUE,TARGET")
		}
		req.CustomRules = append(req.CustomRules, line)
	}

	if v, ok, err := singleQuery(q, "unique_names"); err != nil {
		return transformRequest{}, err
	} else if ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return transformRequest{}, requestError("INVALID_ARGUMENT", "unique_names 不合法", "expected: 0/1/true/false")
		}
		req.UniqueNames = &b
	}

	format, _, err := singleQuery(q, "format")
	if err != nil {
		return transformRequest{}, err
	}
	req.Format, err = render.ParseFormat(format)
	if err != nil {
		return transformRequest{}, requestError("INVALID_ARGUMENT", fmt.Sprintf("不支持的 format：%s", format), "expected: yaml or json")
	}

	if v, ok, err := singleQuery(q, "strict"); err != nil {
		return transformRequest{}, err
	} else if ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return transformRequest{}, requestError("INVALID_ARGUMENT", "strict 不合法", "expected: 0/1/true/false")
		}
		req.Strict = b
	}

	if req.FileName, _, err = singleQuery(q, "fileName"); err != nil {
		return transformRequest{}, err
	}
	return req, nil
}

func singleQuery(q url.Values, key string) (string, bool, error) {
	values, ok := q[key]
	if !ok || len(values) == 0 {
		return "", false, nil
	}
	if len(values) != 1 {
		return "", false, requestError("INVALID_ARGUMENT", fmt.Sprintf("%s 参数只能出现一次", key), "")
	}
	return values[0], true, nil
}

// writeOriginal answers a failed non-strict run with the request body as
// received, labelled with the format it was written in.
func writeOriginal(w http.ResponseWriter, body []byte, fileName string, runErr error) {
	format := render.Detect(body)
	if name, err := outputFileName(fileName, format); err == nil {
		w.Header().Set("Content-Disposition", contentDispositionAttachment(name))
	}
	_, app := statusFor(runErr)
	w.Header().Set(errorHeader, app.Code)
	w.Header().Set("Content-Type", render.ContentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
