package params

type LoginRequest struct {
	Username string `json:"username" vd:"len($)>0"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" vd:"len($)>0"`
}
