package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rolecerto/internal/helpers"
	"github.com/joshua-takyi/rolecerto/internal/models"
	"github.com/joshua-takyi/rolecerto/internal/notify"
	"github.com/joshua-takyi/rolecerto/internal/services"
)

// callerProfile loads the caller's profile, falling back to the token identity
// when the document is missing.
func callerProfile(ctx context.Context, u *services.UserService, claims *helpers.UserClaims) (*models.User, error) {
	user, err := u.GetUser(ctx, claims.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return models.NewUser(claims.UserID, claims.Email, claims.DisplayName, claims.PhotoURL), nil
	}
	return user, err
}

func GetProfile(u *services.UserService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}
		user, err := callerProfile(c.Request.Context(), u, claims)
		if err != nil {
			respondError(c, toaster, err, HomeRoute)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(user, ""))
	}
}

func GetUser(u *services.UserService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.Param("id"))
		user, err := u.GetUser(c.Request.Context(), id)
		if err != nil {
			respondError(c, toaster, err, HomeRoute)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(user, ""))
	}
}

func UpdateProfile(u *services.UserService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}

		var update services.ProfileUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request payload"))
			return
		}

		user, err := u.UpdateUser(c.Request.Context(), claims.UserID, update)
		if err != nil {
			respondError(c, toaster, err, HomeRoute)
			return
		}
		toaster.Success(claims.UserID, "Perfil atualizado!", "")
		c.JSON(http.StatusOK, helpers.SuccessResponse(user, "Perfil atualizado!"))
	}
}

func UserEvents(u *services.UserService, es *services.EventService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}
		id := strings.TrimSpace(c.Param("id"))
		if id == "" || id == "me" {
			id = claims.UserID
		}

		created, attending, err := u.UserEvents(c.Request.Context(), id)
		if err != nil {
			respondError(c, toaster, err, HomeRoute)
			return
		}
		now := es.Now()
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{
			"created":   views(created, claims.UserID, now),
			"attending": views(attending, claims.UserID, now),
		}, ""))
	}
}

// readUpload reads the multipart "file" field, refusing anything over the limit.
func readUpload(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxUploadSize+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse("file is required"))
		return nil, false
	}
	if fh.Size > services.MaxUploadSize {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse("O arquivo deve ter no máximo 5MB."))
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse("could not read file"))
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, services.MaxUploadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse("could not read file"))
		return nil, false
	}
	return data, true
}

// UploadAvatar stores a new profile picture and points the profile at it.
func UploadAvatar(u *services.UserService, m *services.MediaService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}
		data, ok := readUpload(c)
		if !ok {
			return
		}

		photoURL, err := m.UploadProfileImage(c.Request.Context(), claims.UserID, data)
		if err != nil {
			respondError(c, toaster, err, "")
			return
		}
		user, err := u.UpdateUser(c.Request.Context(), claims.UserID, services.ProfileUpdate{PhotoURL: &photoURL})
		if err != nil {
			respondError(c, toaster, err, "")
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(user, "Foto atualizada!"))
	}
}
