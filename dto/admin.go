package dto

// ==================== ADMIN REQUEST/RESPONSE DTOs ====================

type AdminLoginRequest struct {
	Password string `json:"password" validate:"required,max=4096" example:"correct horse battery staple"`
}

// Validate rejects empty or absurdly long passwords. A validation failure
// is treated exactly like a wrong password by the login handler, so the
// endpoint never reveals which check failed.
func (r AdminLoginRequest) Validate() error {
	return GetValidator().Struct(r)
}

type AdminLoginResponse struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

type AdminStatusResponse struct {
	OK bool `json:"ok"`
}

type DeployInfo struct {
	OK              bool    `json:"ok"`
	DeployedAt      *string `json:"deployed_at"`
	GitSHA          *string `json:"git_sha"`
	Service         *string `json:"service"`
	Revision        *string `json:"revision"`
	ServerStartedAt string  `json:"server_started_at"`
}

type ModerationStatus struct {
	OK         bool   `json:"ok"`
	Configured bool   `json:"configured"`
	Model      string `json:"model"`
	BaseURL    string `json:"base_url"`
}
