package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedPayload = errors.New("malformed webhook payload")

// Event is a parsed provider callback.
type Event struct {
	Method     Method
	ProviderID string
	Type       string
	Transition Transition
	Raw        json.RawMessage
}

type paypalPayload struct {
	EventType string `json:"event_type"`
	Resource  struct {
		ID                string `json:"id"`
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
	} `json:"resource"`
}

// ParsePayPal extracts the PayPal order id from resource.id, falling back
// to resource.supplementary_data.related_ids.order_id. Any event naming a
// known order completes it.
func ParsePayPal(body []byte) (Event, error) {
	raw, err := objectBody(body)
	if err != nil {
		return Event{}, err
	}
	var p paypalPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	id := strings.TrimSpace(p.Resource.ID)
	if id == "" {
		id = strings.TrimSpace(p.Resource.SupplementaryData.RelatedIDs.OrderID)
	}
	if id == "" {
		return Event{}, fmt.Errorf("%w: missing resource id", ErrMalformedPayload)
	}
	return Event{
		Method:     MethodPayPal,
		ProviderID: id,
		Type:       p.EventType,
		Transition: TransitionComplete,
		Raw:        raw,
	}, nil
}

type coinbasePayload struct {
	Type string `json:"type"`
	Data struct {
		ID       string `json:"id"`
		Timeline []struct {
			Status string `json:"status"`
		} `json:"timeline"`
	} `json:"data"`
}

const (
	CoinbaseChargeConfirmed = "charge:confirmed"
	CoinbaseChargeFailed    = "charge:failed"
	CoinbaseChargeExpired   = "charge:expired"
)

// ParseCoinbase reads type, data.id and the latest timeline status.
func ParseCoinbase(body []byte) (Event, error) {
	raw, err := objectBody(body)
	if err != nil {
		return Event{}, err
	}
	var p coinbasePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	id := strings.TrimSpace(p.Data.ID)
	if id == "" {
		return Event{}, fmt.Errorf("%w: missing charge id", ErrMalformedPayload)
	}
	var last string
	if n := len(p.Data.Timeline); n > 0 {
		last = p.Data.Timeline[n-1].Status
	}
	return Event{
		Method:     MethodCoinbase,
		ProviderID: id,
		Type:       p.Type,
		Transition: CoinbaseTransition(p.Type, last),
		Raw:        raw,
	}, nil
}

// CoinbaseTransition maps an event type and the latest timeline status.
func CoinbaseTransition(eventType, lastStatus string) Transition {
	switch {
	case eventType == CoinbaseChargeConfirmed || lastStatus == "COMPLETED":
		return TransitionComplete
	case eventType == CoinbaseChargeFailed || eventType == CoinbaseChargeExpired,
		lastStatus == "FAILED" || lastStatus == "EXPIRED":
		return TransitionFail
	default:
		return TransitionNone
	}
}

// objectBody treats an empty body as {} and rejects anything that is not
// a JSON object.
func objectBody(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		trimmed = []byte("{}")
	}
	if trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: body is not a JSON object", ErrMalformedPayload)
	}
	return json.RawMessage(trimmed), nil
}
