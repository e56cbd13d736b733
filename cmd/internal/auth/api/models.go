package api

import (
	"time"

	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/internal/auth/gateway"
)

type emailRequest struct {
	Email string `json:"email"`
}

type createPasswordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type simulatePurchaseRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type checkPurchaseResponse struct {
	HasPurchase  bool       `json:"hasPurchase"`
	CustomerName string     `json:"customerName,omitempty"`
	PurchaseDate *time.Time `json:"purchaseDate,omitempty"`
	Message      string     `json:"message,omitempty"`
	Error        string     `json:"error,omitempty"`
}

type authResponse struct {
	Success   bool               `json:"success"`
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	User      gateway.PublicUser `json:"user"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type meResponse struct {
	Success bool               `json:"success"`
	User    gateway.PublicUser `json:"user"`
}

type simulatedPurchase struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	PurchaseID string `json:"purchaseId"`
}

type simulatePurchaseResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    simulatedPurchase `json:"data"`
}

type debugDataResponse struct {
	Users          []string `json:"users"`
	Purchases      []string `json:"purchases"`
	TotalUsers     int      `json:"totalUsers"`
	TotalPurchases int      `json:"totalPurchases"`
}

func toAuthResponse(res gateway.AuthResult) authResponse {
	return authResponse{
		Success:   true,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      res.User,
	}
}
