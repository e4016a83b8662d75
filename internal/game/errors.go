package game

import (
	"encoding/json"
	"fmt"
)

// ErrorKind classifies a rejected request.
type ErrorKind int

const (
	KindIllegalAction ErrorKind = iota
	KindInsufficientResources
	KindInvalidPlacement
	KindInvalidTradeOffer
	KindConfigurationFault
	KindDuplicateColor
)

var kindNames = [...]string{
	"illegal_action",
	"insufficient_resources",
	"invalid_placement",
	"invalid_trade_offer",
	"configuration_fault",
	"duplicate_color",
}

func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

func (k ErrorKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *ErrorKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, n := range kindNames {
		if n == s {
			*k = ErrorKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", s)
}

// RuleError is returned by every engine operation that rejects a request.
type RuleError struct {
	Kind    ErrorKind
	Message string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches any RuleError of the same kind, so errors.Is(err, ErrIllegalAction) works.
func (e *RuleError) Is(target error) bool {
	t, ok := target.(*RuleError)
	return ok && t.Kind == e.Kind
}

// Recoverable reports whether the session survives the error.
func (e *RuleError) Recoverable() bool {
	return e.Kind != KindConfigurationFault
}

// Sentinels for errors.Is.
var (
	ErrIllegalAction         = &RuleError{Kind: KindIllegalAction, Message: "illegal action"}
	ErrInsufficientResources = &RuleError{Kind: KindInsufficientResources, Message: "insufficient resources"}
	ErrInvalidPlacement      = &RuleError{Kind: KindInvalidPlacement, Message: "invalid placement"}
	ErrInvalidTradeOffer     = &RuleError{Kind: KindInvalidTradeOffer, Message: "invalid trade offer"}
	ErrConfigurationFault    = &RuleError{Kind: KindConfigurationFault, Message: "configuration fault"}
	ErrDuplicateColor        = &RuleError{Kind: KindDuplicateColor, Message: "color already taken"}
)

func illegal(format string, args ...interface{}) *RuleError {
	return &RuleError{Kind: KindIllegalAction, Message: fmt.Sprintf(format, args...)}
}

func insufficient(format string, args ...interface{}) *RuleError {
	return &RuleError{Kind: KindInsufficientResources, Message: fmt.Sprintf(format, args...)}
}

func badPlacement(format string, args ...interface{}) *RuleError {
	return &RuleError{Kind: KindInvalidPlacement, Message: fmt.Sprintf(format, args...)}
}

func badTrade(format string, args ...interface{}) *RuleError {
	return &RuleError{Kind: KindInvalidTradeOffer, Message: fmt.Sprintf(format, args...)}
}
