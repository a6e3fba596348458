package comms

// CommsError is an error that can cross the wire.
type CommsError struct {
	Code string `json:"code"`
	Msg  string `json:"message"`
}

func (e *CommsError) Error() string { return e.Msg }

type coded interface {
	ErrorCode() string
}

// WrapError turns any error into one that can be sent. nil stays nil.
func WrapError(err error) *CommsError {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*CommsError); ok {
		return ce
	}
	if ce, ok := err.(coded); ok {
		return &CommsError{Code: ce.ErrorCode(), Msg: err.Error()}
	}
	return &CommsError{Code: "UNKNOWN", Msg: err.Error()}
}

// ConnectResponse is the first thing a client hears.
type ConnectResponse struct {
	User string      `json:"user"`
	Err  *CommsError `json:"error"`
}

// Response answers one request.
type Response struct {
	Err *CommsError `json:"error"`
}
