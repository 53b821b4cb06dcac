package views

import (
	"errors"
	"net/http"

	"opsdesk/src/gateway"
)

type NoticeKind string

const (
	NoticeNone        NoticeKind = ""
	NoticeInvalid     NoticeKind = "invalid"
	NoticeLogin       NoticeKind = "login"
	NoticeDenied      NoticeKind = "denied"
	NoticeNotFound    NoticeKind = "not_found"
	NoticeUnavailable NoticeKind = "unavailable"
	NoticeError       NoticeKind = "error"
)

// Notice is what the user is told about a failed operation.
type Notice struct {
	Kind    NoticeKind
	Message string
}

var ErrDenied = errors.New("access denied")

// Classify turns err into a notice. fallback is used when the server gave no message.
func Classify(err error, fallback string) Notice {
	if err == nil {
		return Notice{}
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return Notice{Kind: NoticeInvalid, Message: ve.Error()}
	}
	if errors.Is(err, ErrDenied) {
		return Notice{Kind: NoticeDenied, Message: "You do not have permission to do that."}
	}
	var ae *gateway.APIError
	if !errors.As(err, &ae) {
		return Notice{Kind: NoticeError, Message: fallback}
	}
	switch ae.Status {
	case http.StatusUnauthorized:
		return Notice{Kind: NoticeLogin, Message: "Your session has expired. Please log in again."}
	case http.StatusForbidden:
		return Notice{Kind: NoticeDenied, Message: "You do not have permission to do that."}
	case http.StatusNotFound:
		return Notice{Kind: NoticeNotFound, Message: orDefault(ae.Message, "Record not found.")}
	case http.StatusServiceUnavailable:
		return Notice{Kind: NoticeUnavailable, Message: "The service is temporarily unavailable. Try again in a few minutes."}
	}
	return Notice{Kind: NoticeError, Message: orDefault(ae.Message, fallback)}
}

func orDefault(s string, d string) string {
	if s == "" {
		return d
	}
	return s
}
