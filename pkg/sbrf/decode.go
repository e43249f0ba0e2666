package sbrf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// field is the ordered list of wire keys accepted for one logical response field.
// The first key present with a non-null value wins.
type field []string

var (
	fieldErrorCode    = field{"ErrorCode", "errorCode"}
	fieldErrorMessage = field{"ErrorMessage", "errorMessage"}

	fieldOrderID = field{"orderId"}
	fieldFormURL = field{"formUrl"}

	fieldOrderStatus    = field{"OrderStatus", "orderStatus"}
	fieldOrderNumber    = field{"OrderNumber", "orderNumber"}
	fieldPan            = field{"Pan", "pan"}
	fieldExpiration     = field{"expiration"}
	fieldCardholderName = field{"cardholderName"}
	fieldAmount         = field{"Amount", "amount"}
	fieldCurrency       = field{"currency"}
	fieldApprovalCode   = field{"approvalCode"}
	fieldIP             = field{"ip"}

	fieldEnrolled           = field{"enrolled"}
	fieldEmitterName        = field{"emitterName"}
	fieldEmitterCountryCode = field{"emitterCountryCode"}
)

type payload map[string]any

func decodePayload(body []byte) (payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var p payload
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decode gateway response: trailing data after JSON object at offset %d", dec.InputOffset())
	}
	if p == nil {
		p = payload{}
	}
	return p, nil
}

func (p payload) lookup(f field) (any, bool) {
	for _, key := range f {
		if v, ok := p[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (p payload) str(f field) string {
	v, _ := p.lookup(f)
	return coerceString(v)
}

func (p payload) integer(f field) int64 {
	v, _ := p.lookup(f)
	return coerceInt(v)
}

// coerceInt accepts codes sent as JSON numbers or strings. Numbers truncate
// toward zero, strings yield their leading signed digits, anything else is 0.
func coerceInt(v any) int64 {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return int64(f)
		}
		return leadingInt(t.String())
	case string:
		return leadingInt(t)
	case float64:
		return int64(t)
	case int64:
		return t
	case int:
		return int64(t)
	default:
		return 0
	}
}

func leadingInt(s string) int64 {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
