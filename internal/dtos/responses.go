package dtos

type HealthCheckResponse struct {
	Status string `json:"status"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SweepResponse struct {
	Message string `json:"message"`
}
