package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// エラーの種類。ハンドラーはStatusだけ見ればよい
type ErrorKind string

const (
	KindInvalidInput        ErrorKind = "InvalidInput"
	KindUnauthorized        ErrorKind = "Unauthorized"
	KindNotFound            ErrorKind = "NotFound"
	KindConfiguration       ErrorKind = "ConfigurationError"
	KindGateway             ErrorKind = "GatewayError"
	KindUpstreamUnavailable ErrorKind = "UpstreamUnavailable"
	KindInternal            ErrorKind = "InternalError"
	KindInvalidAmount       ErrorKind = "InvalidAmount"
	KindInvalidTransition   ErrorKind = "InvalidTransition"
)

var kindStatus = map[ErrorKind]int{
	KindInvalidInput:        http.StatusBadRequest,
	KindUnauthorized:        http.StatusUnauthorized,
	KindNotFound:            http.StatusNotFound,
	KindConfiguration:       http.StatusInternalServerError,
	KindGateway:             http.StatusInternalServerError,
	KindUpstreamUnavailable: http.StatusInternalServerError,
	KindInternal:            http.StatusInternalServerError,
	KindInvalidAmount:       http.StatusBadRequest,
	KindInvalidTransition:   http.StatusConflict,
}

type HTTPError struct {
	Status  int
	Message string
	Kind    ErrorKind
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
		Kind:    kindFromStatus(status),
	}
}

func newKindError(kind ErrorKind, message string) error {
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &HTTPError{
		Status:  status,
		Message: message,
		Kind:    kind,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// errがkindのHTTPErrorか
func IsKind(err error, kind ErrorKind) bool {
	he, ok := AsHTTPError(err)
	return ok && he.Kind == kind
}

func kindFromStatus(status int) ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return KindInvalidInput
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindInvalidTransition
	default:
		return KindInternal
	}
}
