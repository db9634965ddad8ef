package handler

import (
	"auth-web-server/internal/model/requestresponse"
	"auth-web-server/internal/ports"
	"auth-web-server/internal/service"
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

type UserHandler struct {
	userService ports.UserService
}

func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterUser godoc
// @Summary Регистрация нового пользователя
// @Description Создаёт пользователя по логину и паролю
// @Tags Users
// @Accept json
// @Produce json
// @Param body body requestresponse.RegisterRequest true "Тело запроса"
// @Success 201 {object} requestresponse.RegisterResponse
// @Failure 400 {object} requestresponse.ErrorResponse "Некорректный JSON или слабый пароль"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/register [post]
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req requestresponse.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, 400, "invalid_request")
		return
	}

	if req.Login == "" || req.Password == "" {
		sendErrorResponse(w, 400, "invalid_request")
		return
	}

	user, err := h.userService.Register(ctx, req.Login, req.Password)
	if err != nil {
		log.Println(err)
		if errors.Is(err, service.ErrInvalidRegistration) {
			sendErrorResponse(w, 400, "invalid_request")
		} else {
			sendErrorResponse(w, 500, "internal_error")
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(requestresponse.RegisterResponse{
		UserUUID: user.UUID,
		Login:    user.Login,
	})
}

func sendErrorResponse(w http.ResponseWriter, statusCode int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(requestresponse.ErrorResponse{Error: code})
}
