package requestresponse

// LoginRequest : тело запроса на аутентификацию
type LoginRequest struct {
	Login    string `json:"login" example:"user1"`
	Password string `json:"password" example:"P@ssw0rd123"`
}

// RegisterRequest : тело запроса на регистрацию
type RegisterRequest struct {
	Login    string `json:"login" example:"user1"`
	Password string `json:"password" example:"P@ssw0rd123"`
}

// RegisterResponse : ответ на успешную регистрацию
type RegisterResponse struct {
	UserUUID string `json:"user_uuid" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
	Login    string `json:"login" example:"user1"`
}

// TokenResponse : ответ с новым access токеном.
// Refresh токен передаётся отдельно в HttpOnly cookie.
type TokenResponse struct {
	AccessToken string `json:"accessToken" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresIn   int    `json:"expiresIn" example:"1800"`
}

// ErrorResponse : машинно-читаемый код ошибки
type ErrorResponse struct {
	Error string `json:"error" example:"invalid_token"`
}

// CurrentUserResponse : информация о текущем пользователе
type CurrentUserResponse struct {
	UserUUID string `json:"user_uuid" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
}

// LogoutResponse : ответ на завершение сессии
type LogoutResponse struct {
	LoggedOut bool `json:"logged_out" example:"true"`
}
