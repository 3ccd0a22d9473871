package models

// BusinessError is the typed failure the core returns to its callers.
// Presentation (HTTP status, user text) stays outside the core.
type BusinessError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *BusinessError) Error() string { return e.Message }

// Is matches on Code so callers can use errors.Is against the sentinels
// below regardless of the message.
func (e *BusinessError) Is(target error) bool {
	t, ok := target.(*BusinessError)
	return ok && t.Code == e.Code
}

func BizError(code, msg string) *BusinessError { return &BusinessError{Code: code, Message: msg} }

const (
	CodeSchema           = "schema_error"
	CodeEmptyData        = "empty_data"
	CodeNotFound         = "not_found"
	CodeNoData           = "no_data"
	CodeCurrencyNotFound = "currency_not_found"
	CodeInvalidAmount    = "invalid_amount"
)

var (
	ErrSchema           = &BusinessError{Code: CodeSchema}
	ErrEmptyData        = &BusinessError{Code: CodeEmptyData}
	ErrNotFound         = &BusinessError{Code: CodeNotFound}
	ErrNoData           = &BusinessError{Code: CodeNoData}
	ErrCurrencyNotFound = &BusinessError{Code: CodeCurrencyNotFound}
	ErrInvalidAmount    = &BusinessError{Code: CodeInvalidAmount}
)
