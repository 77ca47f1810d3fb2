package dto

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type SignOutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type GenerateCodeRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type GenerateCodeResponse struct {
	Code string `json:"code"`
}

type ExchangeCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

type UserInfo struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Provider  string `json:"provider"`
}

type SessionResponse struct {
	Tokens TokenPair `json:"tokens"`
	User   *UserInfo `json:"user"`
}
