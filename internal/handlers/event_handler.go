package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rolecerto/internal/helpers"
	"github.com/joshua-takyi/rolecerto/internal/models"
	"github.com/joshua-takyi/rolecerto/internal/notify"
	"github.com/joshua-takyi/rolecerto/internal/services"
	"github.com/joshua-takyi/rolecerto/internal/wizard"
)

func views(events []*models.Event, userID string, now time.Time) []models.EventView {
	out := make([]models.EventView, 0, len(events))
	for _, e := range events {
		out = append(out, e.View(userID, now))
	}
	return out
}

// Feed returns the first page of upcoming events, scoped to ?city when given.
// ?limit sets the page size for this and later pages, capped at MaxPageSize.
func Feed(fs *services.FeedService, es *services.EventService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}
		city := strings.TrimSpace(c.Query("city"))
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				c.JSON(http.StatusBadRequest, helpers.ErrorResponse("limit must be a positive number"))
				return
			}
			limit = n
		}

		page, err := fs.Load(c.Request.Context(), city, claims.UserID, limit)
		if err != nil {
			respondError(c, toaster, err, "")
			return
		}
		resp := helpers.CursorResponse(views(page.Events, claims.UserID, es.Now()), page.Cursor, page.HasMore)
		if page.Fallback {
			resp.Message = services.FallbackBody
		}
		c.JSON(http.StatusOK, resp)
	}
}

// FeedMore continues the feed from ?cursor. A missing cursor yields an empty page.
func FeedMore(fs *services.FeedService, es *services.EventService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}

		page, err := fs.LoadMore(c.Request.Context(), c.Query("cursor"))
		if err != nil {
			respondError(c, toaster, err, "")
			return
		}
		c.JSON(http.StatusOK, helpers.CursorResponse(views(page.Events, claims.UserID, es.Now()), page.Cursor, page.HasMore))
	}
}

func SearchEvents(fs *services.FeedService, es *services.EventService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}

		events, err := fs.Search(c.Request.Context(), c.Query("q"))
		if err != nil {
			respondError(c, toaster, err, "")
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(views(events, claims.UserID, es.Now()), ""))
	}
}

// wizardFailed writes the field errors of a refused draft.
func wizardFailed(c *gin.Context, errs []wizard.FieldError) {
	c.JSON(http.StatusUnprocessableEntity, helpers.FieldErrorsResponse("Verifique os campos destacados.", errs))
}

func CreateEvent(es *services.EventService, u *services.UserService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}

		var draft wizard.EventDraft
		if err := c.ShouldBindJSON(&draft); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request payload"))
			return
		}
		w := &wizard.EventWizard{Step: wizard.StepDetails, Draft: draft}
		if !w.Submit() {
			wizardFailed(c, w.Errors)
			return
		}

		event, err := w.Draft.Event(es.Now(), es.Location())
		if err != nil {
			respondError(c, toaster, err, "")
			return
		}
		creator, err := callerProfile(c.Request.Context(), u, claims)
		if err != nil {
			respondError(c, toaster, err, "")
			return
		}

		created, err := es.CreateEvent(c.Request.Context(), event, creator)
		if err != nil {
			respondError(c, toaster, err, "")
			return
		}
		toaster.Success(claims.UserID, "Evento criado!", created.Name)
		c.JSON(http.StatusCreated, helpers.SuccessResponse(created.View(claims.UserID, es.Now()), "Evento criado!"))
	}
}

func GetEvent(es *services.EventService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}

		event, err := es.GetEvent(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, toaster, err, HomeRoute)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(event.View(claims.UserID, es.Now()), ""))
	}
}

func UpdateEvent(es *services.EventService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}

		var update services.EventUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request payload"))
			return
		}

		event, err := es.UpdateEvent(c.Request.Context(), c.Param("id"), claims.UserID, update)
		if err != nil {
			respondError(c, toaster, err, HomeRoute)
			return
		}
		toaster.Success(claims.UserID, "Evento atualizado!", "")
		c.JSON(http.StatusOK, helpers.SuccessResponse(event.View(claims.UserID, es.Now()), "Evento atualizado!"))
	}
}

func DeleteEvent(es *services.EventService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}

		if err := es.DeleteEvent(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
			respondError(c, toaster, err, HomeRoute)
			return
		}
		toaster.Success(claims.UserID, "Evento excluído", "")
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Evento excluído"))
	}
}

// JoinEvent adds the caller to the roster. The gate refuses full, past and
// already joined events before anything is written.
func JoinEvent(es *services.EventService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		id := c.Param("id")

		event, err := es.GetEvent(ctx, id)
		if err != nil {
			respondError(c, toaster, err, HomeRoute)
			return
		}
		if err := services.CanJoin(event, claims.UserID, es.Now()); err != nil {
			respondError(c, toaster, err, "")
			return
		}

		if err := es.JoinEvent(ctx, id, claims.UserID); err != nil {
			toaster.Error(claims.UserID, "Erro ao participar do evento", "")
			respondError(c, nil, err, "")
			return
		}
		toaster.Success(claims.UserID, "Você está participando!", event.Name)

		updated, err := es.GetEvent(ctx, id)
		if err != nil {
			respondError(c, toaster, err, HomeRoute)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(updated.View(claims.UserID, es.Now()), ""))
	}
}

func LeaveEvent(es *services.EventService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		id := c.Param("id")

		event, err := es.GetEvent(ctx, id)
		if err != nil {
			respondError(c, toaster, err, HomeRoute)
			return
		}
		if err := services.CanLeave(event, claims.UserID); err != nil {
			respondError(c, toaster, err, "")
			return
		}

		if err := es.LeaveEvent(ctx, id, claims.UserID); err != nil {
			toaster.Error(claims.UserID, "Erro ao sair do evento", "")
			respondError(c, nil, err, "")
			return
		}
		toaster.Info(claims.UserID, "Você saiu do evento", event.Name)

		updated, err := es.GetEvent(ctx, id)
		if err != nil {
			respondError(c, toaster, err, HomeRoute)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(updated.View(claims.UserID, es.Now()), ""))
	}
}

type eventWizardRequest struct {
	Wizard         wizard.EventWizard     `json:"wizard"`
	Action         string                 `json:"action" binding:"omitempty,oneof=next prev submit validate"`
	Recurring      *bool                  `json:"set_recurring"`
	RecurrenceType *models.RecurrenceType `json:"set_recurrence_type"`
}

// EventWizardStep applies one wizard action to the posted state and returns the
// new state. Field toggles run before the action.
func EventWizardStep() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req eventWizardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request payload"))
			return
		}
		w := &req.Wizard
		if w.Step == 0 {
			w.Step = wizard.StepBasics
		}
		if req.Recurring != nil {
			w.SetRecurring(*req.Recurring)
		}
		if req.RecurrenceType != nil {
			w.SetRecurrenceType(*req.RecurrenceType)
		}

		switch req.Action {
		case "next":
			w.Next()
		case "prev":
			w.Prev()
		case "submit":
			w.Submit()
		default:
			w.Errors = w.ValidateStep(w.Step)
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(w, ""))
	}
}

// EditEventWizard returns the wizard prefilled from an event the caller created.
func EditEventWizard(es *services.EventService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}

		event, err := es.GetEvent(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, toaster, err, HomeRoute)
			return
		}
		if !claims.IsOwner(event.CreatorID) {
			respondError(c, toaster, models.ErrForbidden, "")
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(wizard.EditEventWizard(event, es.Location()), ""))
	}
}
