package sbrf

// Response carries the result code every gateway endpoint returns.
// ErrorCode 0 means the gateway accepted the request.
type Response struct {
	ErrorCode    int    `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

func (r Response) Success() bool {
	return r.ErrorCode == 0
}

func newResponse(p payload) Response {
	return Response{
		ErrorCode:    int(p.integer(fieldErrorCode)),
		ErrorMessage: p.str(fieldErrorMessage),
	}
}

// RegisterResponse is returned by register.do. FormURL is the payment page the payer is redirected to.
type RegisterResponse struct {
	Response
	OrderID string `json:"orderId"`
	FormURL string `json:"formUrl"`
}

func newRegisterResponse(p payload) RegisterResponse {
	return RegisterResponse{
		Response: newResponse(p),
		OrderID:  p.str(fieldOrderID),
		FormURL:  p.str(fieldFormURL),
	}
}

// OrderStatusResponse is shared by getOrderStatus.do and getOrderStatusExtended.do.
// Only the flat fields below are modeled; Raw exposes the rest of the payload.
type OrderStatusResponse struct {
	Response
	OrderStatus    int    `json:"orderStatus"`
	OrderNumber    string `json:"orderNumber"`
	Pan            string `json:"pan"`
	Expiration     string `json:"expiration"`
	CardholderName string `json:"cardholderName"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	ApprovalCode   string `json:"approvalCode"`
	IP             string `json:"ip"`

	raw payload
}

func newOrderStatusResponse(p payload) OrderStatusResponse {
	return OrderStatusResponse{
		Response:       newResponse(p),
		OrderStatus:    int(p.integer(fieldOrderStatus)),
		OrderNumber:    p.str(fieldOrderNumber),
		Pan:            p.str(fieldPan),
		Expiration:     p.str(fieldExpiration),
		CardholderName: p.str(fieldCardholderName),
		Amount:         p.integer(fieldAmount),
		Currency:       p.str(fieldCurrency),
		ApprovalCode:   p.str(fieldApprovalCode),
		IP:             p.str(fieldIP),
		raw:            p,
	}
}

// Raw returns a deep copy of the decoded payload, including nested
// objects such as cardAuthInfo that are not modeled as fields.
// Numbers are json.Number values.
func (r OrderStatusResponse) Raw() map[string]any {
	if r.raw == nil {
		return nil
	}
	return cloneObject(r.raw)
}

func cloneObject(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneObject(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// EnrollmentResponse is returned by verifyEnrollment.do.
type EnrollmentResponse struct {
	Response
	Enrollment         string `json:"enrolled"`
	EmitterName        string `json:"emitterName"`
	EmitterCountryCode string `json:"emitterCountryCode"`
}

func newEnrollmentResponse(p payload) EnrollmentResponse {
	return EnrollmentResponse{
		Response:           newResponse(p),
		Enrollment:         p.str(fieldEnrolled),
		EmitterName:        p.str(fieldEmitterName),
		EmitterCountryCode: p.str(fieldEmitterCountryCode),
	}
}

// Enrolled reports whether the card takes part in 3-D Secure. Only the exact flag "Y" counts.
func (r EnrollmentResponse) Enrolled() bool {
	return r.Enrollment == "Y"
}
