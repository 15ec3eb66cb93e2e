package models

type Response struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message,omitempty"`
	Error    string      `json:"error,omitempty"`
	Credits  *int        `json:"credits,omitempty"`
	Required *int        `json:"required,omitempty"`
	Data     interface{} `json:"data,omitempty"`
}

func SuccessResponse(data interface{}, message string) Response {
	return Response{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(err string) Response {
	return Response{
		Success: false,
		Error:   err,
	}
}

// InsufficientCreditsResponse carries the caller's balance and the cost of
// the rejected operation so the client can prompt a purchase.
func InsufficientCreditsResponse(err string, credits, required int) Response {
	return Response{
		Success:  false,
		Error:    err,
		Credits:  &credits,
		Required: &required,
	}
}
