package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
	Code  string `json:"code,omitempty" example:"overlap"`
	Field string `json:"field,omitempty" example:"from"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string            `json:"status" example:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total" example:"42"`
	Page  int `json:"page" example:"1"`
	Limit int `json:"limit" example:"10"`
}
