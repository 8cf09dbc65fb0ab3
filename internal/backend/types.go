package backend

import "encoding/json"

// MsgServiceUnavailable is the generic user-facing fallback when the
// backend returned nothing usable.
const MsgServiceUnavailable = "Сервис сейчас недоступен. Попробуй ещё раз чуть позже 🙏"

// Limits describes the chat quota of a user.
//
// RemainingRequests and CanSendMessage are pointers because the backend
// may omit them and "absent" has different semantics than zero/false.
type Limits struct {
	HasActiveSubscription bool  `json:"hasActiveSubscription"`
	RequestCount          int   `json:"requestCount"`
	RequestLimit          int   `json:"requestLimit"`
	RemainingRequests     *int  `json:"remainingRequests"`
	CanSendMessage        *bool `json:"canSendMessage"`
}

// UnmarshalJSON accepts both the flat shape and the same structure
// nested under a "limits" key. The backend has been seen sending both.
func (l *Limits) UnmarshalJSON(data []byte) error {
	type plain Limits

	var envelope struct {
		Limits *plain `json:"limits"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Limits != nil {
		*l = Limits(*envelope.Limits)
		return nil
	}

	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = Limits(p)
	return nil
}

// Exhausted reports whether the user has run out of free messages
func (l *Limits) Exhausted() bool {
	if l == nil {
		return false
	}
	if l.RemainingRequests != nil && *l.RemainingRequests <= 0 {
		return true
	}
	if l.CanSendMessage != nil && !*l.CanSendMessage {
		return true
	}
	return false
}

// SubscriptionStatus is the payment service's view of a user
type SubscriptionStatus struct {
	SubscriptionStatus    string `json:"subscriptionStatus"`
	UserID                int64  `json:"userId"`
	Email                 string `json:"email"`
	HasActiveSubscription bool   `json:"hasActiveSubscription"`
}

// AIMessage is the nested answer object of a successful chat turn
type AIMessage struct {
	Message string `json:"message"`
}

// ChatResponse is one chat-turn reply from the backend. Exactly which
// fields are populated varies, Answer resolves that in one place.
type ChatResponse struct {
	AIResponse       *AIMessage `json:"aiResponse,omitempty"`
	Message          string     `json:"message,omitempty"`
	Error            string     `json:"error,omitempty"`
	NeedSubscription bool       `json:"needSubscription,omitempty"`
}

// Answer extracts the text to show the user, in fallback order: nested
// AI message, top-level message, error rendered as a notice, generic
// unavailability text.
func (r *ChatResponse) Answer() string {
	if r == nil {
		return MsgServiceUnavailable
	}
	if r.AIResponse != nil && r.AIResponse.Message != "" {
		return r.AIResponse.Message
	}
	if r.Message != "" {
		return r.Message
	}
	if r.Error != "" {
		return "Сервис прислал ошибку: " + r.Error
	}
	return MsgServiceUnavailable
}
