package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rolecerto/internal/geocode"
	"github.com/joshua-takyi/rolecerto/internal/helpers"
	"github.com/joshua-takyi/rolecerto/internal/models"
	"github.com/joshua-takyi/rolecerto/internal/notify"
	"github.com/joshua-takyi/rolecerto/internal/services"
	"github.com/joshua-takyi/rolecerto/internal/wizard"
)

// Safe routes used when a requested document no longer exists.
const (
	HomeRoute  = "/home"
	PicosRoute = "/picos"
)

func authStatus(code models.AuthErrorCode) int {
	switch code {
	case models.AuthUserNotFound, models.AuthWrongPassword:
		return http.StatusUnauthorized
	case models.AuthUserDisabled, models.AuthOperationNotAllowed:
		return http.StatusForbidden
	case models.AuthTooManyRequests:
		return http.StatusTooManyRequests
	case models.AuthEmailInUse:
		return http.StatusConflict
	case models.AuthInvalidEmail, models.AuthWeakPassword:
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

// respondError maps service errors onto responses. Failures are also pushed to the
// caller as an error toast; a missing document carries the fallback route.
func respondError(c *gin.Context, toaster *notify.Toaster, err error, fallback string) {
	userID := ""
	if user, ok := helpers.CurrentUser(c); ok {
		userID = user.UserID
	}
	toast := func(title, body string) {
		if toaster != nil && userID != "" {
			toaster.Error(userID, title, body)
		}
	}

	if ae, ok := services.AsAuthError(err); ok {
		c.JSON(authStatus(ae.Code), helpers.AuthErrorResponse(ae))
		return
	}

	var invalid *wizard.ValidationError
	if errors.As(err, &invalid) {
		wizardFailed(c, invalid.Fields)
		return
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		msg := "Não encontrado."
		if fallback == PicosRoute {
			msg = "Pico não encontrado."
		} else if fallback == HomeRoute {
			msg = "Evento não encontrado."
		}
		toast(msg, "")
		c.JSON(http.StatusNotFound, helpers.RedirectResponse(msg, fallback))
	case errors.Is(err, models.ErrForbidden):
		toast("Sem permissão", "Apenas o criador pode fazer isso.")
		c.JSON(http.StatusForbidden, helpers.ErrorResponse("Apenas o criador pode fazer isso."))
	case errors.Is(err, models.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
	case errors.Is(err, models.ErrAlreadyReviewed):
		toast("Você já avaliou este pico", "")
		c.JSON(http.StatusConflict, helpers.ErrorResponse("Você já avaliou este pico."))
	case errors.Is(err, services.ErrEventFull):
		c.JSON(http.StatusConflict, helpers.ErrorResponse("Evento lotado."))
	case errors.Is(err, services.ErrEventPast):
		c.JSON(http.StatusConflict, helpers.ErrorResponse("Este evento já aconteceu."))
	case errors.Is(err, services.ErrAlreadyJoined):
		c.JSON(http.StatusConflict, helpers.ErrorResponse("Você já está participando deste evento."))
	case errors.Is(err, services.ErrNotParticipant):
		c.JSON(http.StatusConflict, helpers.ErrorResponse("Você não está participando deste evento."))
	case errors.Is(err, geocode.ErrNoResults):
		c.JSON(http.StatusNotFound, helpers.ErrorResponse(geocode.ErrNoResults.Error()))
	default:
		toast("Erro", "Algo deu errado. Tente novamente.")
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, helpers.ErrorResponse("Algo deu errado. Tente novamente."))
	}
}

func currentUserOrAbort(c *gin.Context) (*helpers.UserClaims, bool) {
	user, ok := helpers.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, helpers.RedirectResponse("unauthorized", "/auth"))
		return nil, false
	}
	return user, true
}
