// Platewise | 2026
// dto.go

package establishment

import (
	"time"
)

type UpdateEstablishmentRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

type EstablishmentResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Plan               string    `json:"plan"`
	SubscriptionStatus string    `json:"subscription_status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func ToEstablishmentResponse(e *Establishment) EstablishmentResponse {
	return EstablishmentResponse{
		ID:                 e.ID,
		Name:               e.Name,
		Plan:               e.Plan,
		SubscriptionStatus: e.SubscriptionStatus,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}
