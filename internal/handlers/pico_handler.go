package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rolecerto/internal/helpers"
	"github.com/joshua-takyi/rolecerto/internal/models"
	"github.com/joshua-takyi/rolecerto/internal/notify"
	"github.com/joshua-takyi/rolecerto/internal/services"
	"github.com/joshua-takyi/rolecerto/internal/wizard"
)

// ListPicos lists picos newest first, by rating with ?sort=rating, or filtered by ?q.
func ListPicos(ps *services.PicoService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var picos []*models.Pico
		var err error
		switch {
		case strings.TrimSpace(c.Query("q")) != "":
			picos, err = ps.SearchPicos(ctx, c.Query("q"))
		case c.Query("sort") == "rating":
			picos, err = ps.ListPicosByRating(ctx)
		default:
			picos, err = ps.ListPicos(ctx)
		}
		if err != nil {
			respondError(c, toaster, err, "")
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(picos, ""))
	}
}

func CreatePico(ps *services.PicoService, u *services.UserService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}

		var draft wizard.PicoDraft
		if err := c.ShouldBindJSON(&draft); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request payload"))
			return
		}
		w := &wizard.PicoWizard{Step: wizard.StepPicoLocation, Draft: draft}
		if !w.Submit() {
			wizardFailed(c, w.Errors)
			return
		}

		creator, err := callerProfile(c.Request.Context(), u, claims)
		if err != nil {
			respondError(c, toaster, err, "")
			return
		}
		pico, err := ps.CreatePico(c.Request.Context(), w.Draft.Pico(), creator)
		if err != nil {
			respondError(c, toaster, err, "")
			return
		}
		toaster.Success(claims.UserID, "Pico cadastrado!", pico.Name)
		c.JSON(http.StatusCreated, helpers.SuccessResponse(pico, "Pico cadastrado!"))
	}
}

func GetPico(ps *services.PicoService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		pico, err := ps.GetPico(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, toaster, err, PicosRoute)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(pico, ""))
	}
}

func UpdatePico(ps *services.PicoService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}

		var update services.PicoUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request payload"))
			return
		}

		pico, err := ps.UpdatePico(c.Request.Context(), c.Param("id"), claims.UserID, update)
		if err != nil {
			respondError(c, toaster, err, PicosRoute)
			return
		}
		toaster.Success(claims.UserID, "Pico atualizado!", "")
		c.JSON(http.StatusOK, helpers.SuccessResponse(pico, "Pico atualizado!"))
	}
}

func DeletePico(ps *services.PicoService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}

		if err := ps.DeletePico(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
			respondError(c, toaster, err, PicosRoute)
			return
		}
		toaster.Success(claims.UserID, "Pico excluído", "")
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Pico excluído"))
	}
}

func ListReviews(ps *services.PicoService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		reviews, err := ps.ListReviews(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, toaster, err, PicosRoute)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(reviews, ""))
	}
}

// MyReview returns the caller's review of a pico, or null when there is none.
func MyReview(ps *services.PicoService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}

		review, err := ps.UserReview(c.Request.Context(), c.Param("id"), claims.UserID)
		if err != nil {
			respondError(c, toaster, err, PicosRoute)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": review})
	}
}

// AddReview stores a review and returns the pico with its recomputed rating.
func AddReview(ps *services.PicoService, u *services.UserService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}

		var req struct {
			Rating  int      `json:"rating"`
			Comment string   `json:"comment"`
			Media   []string `json:"media"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request payload"))
			return
		}

		author, err := callerProfile(c.Request.Context(), u, claims)
		if err != nil {
			respondError(c, toaster, err, "")
			return
		}
		review := &models.Review{
			Rating:  req.Rating,
			Comment: strings.TrimSpace(req.Comment),
			Media:   req.Media,
		}

		pico, err := ps.AddReview(c.Request.Context(), c.Param("id"), review, author)
		if err != nil {
			respondError(c, toaster, err, PicosRoute)
			return
		}
		toaster.Success(claims.UserID, "Avaliação enviada!", "")
		c.JSON(http.StatusCreated, helpers.SuccessResponse(gin.H{"pico": pico, "review": review}, "Avaliação enviada!"))
	}
}

type picoWizardRequest struct {
	Wizard wizard.PicoWizard `json:"wizard"`
	Action string            `json:"action" binding:"omitempty,oneof=next prev submit validate"`
}

func PicoWizardStep() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req picoWizardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request payload"))
			return
		}
		w := &req.Wizard
		if w.Step == 0 {
			w.Step = wizard.StepPicoInfo
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

func EditPicoWizard(ps *services.PicoService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}

		pico, err := ps.GetPico(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, toaster, err, PicosRoute)
			return
		}
		if !claims.IsOwner(pico.CreatorID) {
			respondError(c, toaster, models.ErrForbidden, "")
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(wizard.EditPicoWizard(pico), ""))
	}
}
