package serverutils

import "time"

type Response[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    data,
	}
}

type APIError struct {
	Success   bool   `json:"success"`
	Code      int    `json:"code"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

func ErrorResponse(code int, message string) APIError {
	return APIError{
		Success:   false,
		Code:      code,
		Error:     message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
