package dto

// ErrorResponse is the body of every 4xx and 5xx answer.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
