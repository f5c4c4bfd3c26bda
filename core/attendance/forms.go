package attendance

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/attendance/core"
)

// Rule types
const (
	RuleTypeConsecutive = "consecutive"
	RuleTypePercentage  = "percentage"
	RuleTypeAdvanced    = "advanced"
)

var (
	RuleTypes = []string{RuleTypeConsecutive, RuleTypePercentage, RuleTypeAdvanced}

	ruleParamsTag  = "ruleparams"
	ruleParamsText = "this field is required for the selected rule type"
)

type (
	ConsecutiveParams struct {
		ConsecutiveLimit int `json:"consecutive_limit" validate:"min=1"`
	}

	PercentageParams struct {
		PercentageLimit float64 `json:"percentage_limit" validate:"gt=0,lte=1"`
		MinSessions     int     `json:"min_sessions" validate:"min=0"`
	}

	AdvancedParams struct {
		RuleExpression string `json:"rule_expression" validate:"notblank"`
	}

	// NewRule contains information needed to create a class attendance rule.
	// Exactly the params matching RuleType are sent.
	NewRule struct {
		Title             string             `json:"title" validate:"notblank,max=100"`
		Description       string             `json:"description" validate:"max=500"`
		RuleType          string             `json:"rule_type" validate:"required,oneof=consecutive percentage advanced"`
		ConsecutiveParams *ConsecutiveParams `json:"consecutive_params,omitempty"`
		PercentageParams  *PercentageParams  `json:"percentage_params,omitempty"`
		AdvancedParams    *AdvancedParams    `json:"advanced_params,omitempty"`
	}

	// RuleForm is the flat HTML form a NewRule is built from.
	RuleForm struct {
		Title            string  `form:"title"`
		Description      string  `form:"description"`
		RuleType         string  `form:"rule_type"`
		ConsecutiveLimit int     `form:"consecutive_limit"`
		PercentageLimit  float64 `form:"percentage_limit"`
		MinSessions      int     `form:"min_sessions"`
		RuleExpression   string  `form:"rule_expression"`
	}

	// AttendanceUpdate marks a student present or absent in an upcoming session.
	AttendanceUpdate struct {
		Attended      bool   `json:"attended" form:"attended"`
		UserID        string `json:"user_id" form:"user_id" validate:"notblank"`
		UserSignature string `json:"user_signature" form:"user_signature" validate:"notblank"`
	}
)

// InitValidators registers the attendance forms validations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(ruleStructValidation, NewRule{})
	core.RegisterCustomTranslation(validate, translator, ruleParamsTag, ruleParamsText)
}

// NewRule builds the API payload, keeping only the params of the selected rule type.
func (f RuleForm) NewRule() NewRule {
	nr := NewRule{
		Title:       f.Title,
		Description: f.Description,
		RuleType:    f.RuleType,
	}
	switch f.RuleType {
	case RuleTypeConsecutive:
		nr.ConsecutiveParams = &ConsecutiveParams{ConsecutiveLimit: f.ConsecutiveLimit}
	case RuleTypePercentage:
		nr.PercentageParams = &PercentageParams{PercentageLimit: f.PercentageLimit, MinSessions: f.MinSessions}
	case RuleTypeAdvanced:
		nr.AdvancedParams = &AdvancedParams{RuleExpression: f.RuleExpression}
	}
	return nr
}

func (nr *NewRule) Validate(validate *validator.Validate) error {
	nr.Title = core.CleanString(nr.Title)
	nr.Description = core.CleanString(nr.Description)
	nr.RuleType = core.CleanString(nr.RuleType, true /* lower */)
	if nr.AdvancedParams != nil {
		nr.AdvancedParams.RuleExpression = core.CleanString(nr.AdvancedParams.RuleExpression)
	}
	return validate.Struct(nr)
}

func (au *AttendanceUpdate) Validate(validate *validator.Validate) error {
	au.UserID = core.CleanString(au.UserID)
	au.UserSignature = core.CleanString(au.UserSignature)
	return validate.Struct(au)
}

// ruleStructValidation checks that the params matching the rule type are provided.
func ruleStructValidation(sl validator.StructLevel) {
	nr, ok := sl.Current().Interface().(NewRule)
	if !ok {
		return
	}
	switch nr.RuleType {
	case RuleTypeConsecutive:
		if nr.ConsecutiveParams == nil {
			sl.ReportError(nr.ConsecutiveParams, "consecutive_params", "ConsecutiveParams", ruleParamsTag, "")
		}
	case RuleTypePercentage:
		if nr.PercentageParams == nil {
			sl.ReportError(nr.PercentageParams, "percentage_params", "PercentageParams", ruleParamsTag, "")
		}
	case RuleTypeAdvanced:
		if nr.AdvancedParams == nil {
			sl.ReportError(nr.AdvancedParams, "advanced_params", "AdvancedParams", ruleParamsTag, "")
		}
	}
}
