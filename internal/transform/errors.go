package transform

import (
	"errors"
	"fmt"

	"github.com/John-Robertt/subrules/internal/dns"
	"github.com/John-Robertt/subrules/internal/groups"
	"github.com/John-Robertt/subrules/internal/model"
	"github.com/John-Robertt/subrules/internal/rules"
)

// Pipeline stages, reported in AppError.Stage.
const (
	StageValidateInput  = "validate_input"
	StageNormalize      = "normalize"
	StageAssembleRules  = "assemble_rules"
	StageAssembleGroups = "assemble_groups"
	StageAssembleDNS    = "assemble_dns"
	StageValidateOutput = "validate_output"
)

// Error is a top level failure: the run was aborted and the input returned.
type Error struct {
	AppError model.AppError
	Cause    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// wrap lifts a stage error into *Error, keeping the AppError the stage
// produced and forcing the pipeline stage name.
func wrap(stage string, err error) *Error {
	var te *Error
	if errors.As(err, &te) {
		return te
	}

	app := model.AppError{Code: "TRANSFORM_ERROR", Message: err.Error()}
	var (
		pe  *rules.ParseError
		rae *rules.AssembleError
		gae *groups.AssembleError
		dae *dns.AssembleError
	)
	switch {
	case errors.As(err, &pe):
		app = pe.AppError
	case errors.As(err, &rae):
		app = rae.AppError
	case errors.As(err, &gae):
		app = gae.AppError
	case errors.As(err, &dae):
		app = dae.AppError
	}
	app.Stage = stage
	return &Error{AppError: app, Cause: err}
}

func newError(stage, code, msg string, cause error) *Error {
	return &Error{
		AppError: model.AppError{Code: code, Message: msg, Stage: stage},
		Cause:    cause,
	}
}
