package domain

import (
	"encoding/json"
	"net/mail"
	"regexp"
	"strings"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/smallbiznis/scholaris/internal/plan/domain"
	"gorm.io/datatypes"
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// SchoolTypes lists the accepted values for the profile step's school_type.
var SchoolTypes = map[string]bool{
	"primary":   true,
	"secondary": true,
	"tertiary":  true,
	"training":  true,
}

// ProfileData is the typed view of the profile step payload.
type ProfileData struct {
	SchoolName     string `json:"school_name"`
	OwnerEmail     string `json:"owner_email"`
	Country        string `json:"country"`
	SchoolType     string `json:"school_type"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	Timezone       string `json:"timezone"`
}

// PlanData is the typed view of the plan step payload.
type PlanData struct {
	PlanID       string `json:"plan_id"`
	BillingCycle string `json:"billing_cycle"`
}

// PaymentData is the typed view of the payment step payload.
type PaymentData struct {
	PaystackReference string `json:"paystack_reference"`
}

// ParsePlanID parses the plan step's plan identifier.
func (p PlanData) ParsePlanID() (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(p.PlanID))
}

// DecodeProfile converts the stored profile blob into its typed form.
func DecodeProfile(m datatypes.JSONMap) (ProfileData, error) {
	var out ProfileData
	return out, decodeStep(m, &out)
}

// DecodePlan converts the stored plan blob into its typed form.
func DecodePlan(m datatypes.JSONMap) (PlanData, error) {
	var out PlanData
	return out, decodeStep(m, &out)
}

// DecodePayment converts the stored payment blob into its typed form.
func DecodePayment(m datatypes.JSONMap) (PaymentData, error) {
	var out PaymentData
	return out, decodeStep(m, &out)
}

func decodeStep(m datatypes.JSONMap, out any) error {
	if m == nil {
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// Validate checks the profile step. school_type and colors are optional but
// rejected when malformed.
func (p ProfileData) Validate() ValidationErrors {
	var errs ValidationErrors

	name := strings.TrimSpace(p.SchoolName)
	if name == "" {
		errs = append(errs, ValidationError{Field: "school_name", Code: "required", Message: "School name is required"})
	} else if len(name) > 255 {
		errs = append(errs, ValidationError{Field: "school_name", Code: "too_long", Message: "School name must be at most 255 characters"})
	}

	email := strings.TrimSpace(p.OwnerEmail)
	if email == "" {
		errs = append(errs, ValidationError{Field: "owner_email", Code: "required", Message: "Owner email is required"})
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs = append(errs, ValidationError{Field: "owner_email", Code: "invalid", Message: "Owner email is not a valid email address"})
	}

	country := strings.TrimSpace(p.Country)
	if country == "" {
		errs = append(errs, ValidationError{Field: "country", Code: "required", Message: "Country is required"})
	} else if len(country) != 2 {
		errs = append(errs, ValidationError{Field: "country", Code: "invalid", Message: "Country must be a 2-letter code"})
	}

	if t := strings.TrimSpace(p.SchoolType); t != "" && !SchoolTypes[t] {
		errs = append(errs, ValidationError{Field: "school_type", Code: "invalid", Message: "School type must be one of: primary, secondary, tertiary, training"})
	}
	if c := strings.TrimSpace(p.PrimaryColor); c != "" && !hexColorRe.MatchString(c) {
		errs = append(errs, ValidationError{Field: "primary_color", Code: "invalid", Message: "Primary color must be a hex color like #3B82F6"})
	}
	if c := strings.TrimSpace(p.SecondaryColor); c != "" && !hexColorRe.MatchString(c) {
		errs = append(errs, ValidationError{Field: "secondary_color", Code: "invalid", Message: "Secondary color must be a hex color like #F97316"})
	}

	return errs
}

// Validate checks the plan step's shape. Plan existence is checked by the
// service against the plan catalog.
func (p PlanData) Validate() ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(p.PlanID) == "" {
		errs = append(errs, ValidationError{Field: "plan_id", Code: "required", Message: "Plan is required"})
	} else if _, err := p.ParsePlanID(); err != nil {
		errs = append(errs, ValidationError{Field: "plan_id", Code: "invalid", Message: "Plan identifier is invalid"})
	}

	if _, err := plandomain.ParseBillingCycle(p.BillingCycle); err != nil {
		errs = append(errs, ValidationError{Field: "billing_cycle", Code: "invalid", Message: "Billing cycle must be monthly or yearly"})
	}

	return errs
}

// ValidateForPlan checks the payment step against the chosen plan: paid
// plans need a gateway reference, free plans do not.
func (p PaymentData) ValidateForPlan(plan *plandomain.Plan) ValidationErrors {
	var errs ValidationErrors
	if plan != nil && !plan.IsFree() && strings.TrimSpace(p.PaystackReference) == "" {
		errs = append(errs, ValidationError{Field: "paystack_reference", Code: "required", Message: "Payment reference is required for paid plans"})
	}
	return errs
}
