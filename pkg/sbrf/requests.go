package sbrf

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/go-querystring/query"
)

// Request fields map one to one onto gateway form keys. Params carries any
// additional gateway key the structs do not model; it never overrides a
// typed field, and it cannot satisfy a required one.

// RegisterRequest registers a new order. Amount is in minor currency units;
// a nil Amount is missing, a pointer to zero is sent as amount=0.
type RegisterRequest struct {
	OrderNumber string `url:"orderNumber,omitempty" validate:"required"`
	Amount      *int64 `url:"amount,omitempty" validate:"required"`
	ReturnURL   string `url:"returnUrl,omitempty" validate:"required"`
	FailURL     string `url:"failUrl,omitempty"`

	Currency           string `url:"currency,omitempty"`
	Description        string `url:"description,omitempty"`
	Language           string `url:"language,omitempty"`
	PageView           string `url:"pageView,omitempty"`
	ClientID           string `url:"clientId,omitempty"`
	MerchantLogin      string `url:"merchantLogin,omitempty"`
	JSONParams         string `url:"jsonParams,omitempty"`
	SessionTimeoutSecs int    `url:"sessionTimeoutSecs,omitempty"`
	ExpirationDate     string `url:"expirationDate,omitempty"`
	BindingID          string `url:"bindingId,omitempty"`

	Params map[string]string `url:"-" validate:"-"`
}

// ReverseRequest cancels an authorized but not yet completed order.
type ReverseRequest struct {
	OrderID  string `url:"orderId,omitempty" validate:"required"`
	Language string `url:"language,omitempty"`

	Params map[string]string `url:"-" validate:"-"`
}

// RefundRequest returns Amount minor units of a completed order to the payer.
type RefundRequest struct {
	OrderID  string `url:"orderId,omitempty" validate:"required"`
	Amount   *int64 `url:"amount,omitempty" validate:"required"`
	Language string `url:"language,omitempty"`

	Params map[string]string `url:"-" validate:"-"`
}

type OrderStatusRequest struct {
	OrderID  string `url:"orderId,omitempty" validate:"required"`
	Language string `url:"language,omitempty"`

	Params map[string]string `url:"-" validate:"-"`
}

// OrderStatusExtendedRequest needs at least one of OrderID and OrderNumber.
type OrderStatusExtendedRequest struct {
	OrderID     string `url:"orderId,omitempty" validate:"required_without=OrderNumber"`
	OrderNumber string `url:"orderNumber,omitempty"`
	Language    string `url:"language,omitempty"`

	Params map[string]string `url:"-" validate:"-"`
}

type VerifyEnrollmentRequest struct {
	Pan string `url:"pan,omitempty" validate:"required"`

	Params map[string]string `url:"-" validate:"-"`
}

// Int64 returns a pointer to v, for the Amount fields.
func Int64(v int64) *int64 {
	return &v
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(wireName)
	return v
}

// wireName reports the form key a struct field is sent under.
func wireName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("url"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// validateRequest collects every missing required key of req, in field order.
func validateRequest(operation string, req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %s: %w", operation, err)
	}

	missing := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		name := fe.Field()
		if fe.Tag() == "required_without" {
			if alt, ok := reflect.Indirect(reflect.ValueOf(req)).Type().FieldByName(fe.Param()); ok {
				name += " or " + wireName(alt)
			}
		}
		missing = append(missing, name)
	}
	return &ValidationError{Operation: operation, Missing: missing}
}

// encodeForm builds the form body: typed fields, then unclaimed extra params,
// then the credentials, which always replace any caller-supplied value.
func encodeForm(req any, extra map[string]string, cfg Config) (url.Values, error) {
	form, err := query.Values(req)
	if err != nil {
		return nil, fmt.Errorf("encode form: %w", err)
	}
	for key, value := range extra {
		if _, ok := form[key]; !ok {
			form.Set(key, value)
		}
	}
	form.Set("userName", cfg.UserName)
	form.Set("password", cfg.Password)
	return form, nil
}
