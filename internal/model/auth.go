package model

// Account types accepted by the backend.
const (
	AccountIndividual = "Individual"
	AccountAgency     = "Agency"
)

type LoginRequest struct {
	Email    string `json:"email" url:"email" validate:"required,email"`
	Password string `json:"password" url:"password" validate:"required"`
}

type LoginResponse struct {
	AccountType string `json:"account_type"`
	Landing     string `json:"landing"`
}

type SignupRequest struct {
	Name        string `json:"name" url:"name" validate:"required"`
	Email       string `json:"email" url:"email" validate:"required,email"`
	Location    string `json:"location" url:"location" validate:"required"`
	Password    string `json:"password" url:"password" validate:"required"`
	AccountType string `json:"account_type" url:"account_type" validate:"required,oneof=Individual Agency"`
	AgencyName  string `json:"agency_name,omitempty" url:"agency_name,omitempty"`
}
