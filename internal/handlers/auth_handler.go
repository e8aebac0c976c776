package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rolecerto/internal/helpers"
	"github.com/joshua-takyi/rolecerto/internal/models"
	"github.com/joshua-takyi/rolecerto/internal/services"
)

func SignUp(u *services.UserService, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email       string `json:"email" binding:"required"`
			Password    string `json:"password" binding:"required"`
			DisplayName string `json:"display_name" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request payload"))
			return
		}

		session, err := u.SignUp(c.Request.Context(), req.Email, req.Password, req.DisplayName)
		if err != nil {
			respondError(c, nil, err, "")
			return
		}

		// Sign-up returns no session while email confirmation is pending.
		if session.AccessToken != "" {
			helpers.SetSessionCookies(c, session, false, secureCookies)
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(session, "Conta criada com sucesso!"))
	}
}

func SignIn(u *services.UserService, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email      string `json:"email" binding:"required"`
			Password   string `json:"password" binding:"required"`
			RememberMe bool   `json:"remember_me"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request payload"))
			return
		}

		session, err := u.SignIn(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, nil, err, "")
			return
		}

		helpers.SetSessionCookies(c, session, req.RememberMe, secureCookies)
		c.JSON(http.StatusOK, helpers.SuccessResponse(session, "Login realizado com sucesso!"))
	}
}

// GoogleAuth initiates Google OAuth flow via Supabase
func GoogleAuth(u *services.UserService, frontendURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		redirectTo := c.Query("redirect_to")
		if redirectTo == "" {
			redirectTo = frontendURL + "/auth/callback"
		}

		authURL, err := u.GoogleAuthURL(redirectTo)
		if err != nil {
			respondError(c, nil, err, "")
			return
		}

		c.Redirect(http.StatusTemporaryRedirect, authURL)
	}
}

// GoogleAuthCallback handles the provider redirect. The tokens arrive in the URL
// fragment, so the browser finishes the flow through OAuthSession.
func GoogleAuthCallback(frontendURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if errCode := c.Query("error"); errCode != "" {
			q := url.Values{}
			q.Set("error", errCode)
			q.Set("error_description", c.Query("error_description"))
			c.Redirect(http.StatusTemporaryRedirect, frontendURL+"/auth?"+q.Encode())
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, frontendURL+"/auth/callback")
	}
}

// OAuthSession accepts the tokens read from the OAuth fragment, verifies them and
// opens a cookie session.
func OAuthSession(u *services.UserService, verifier helpers.TokenVerifier, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			AccessToken  string `json:"access_token" binding:"required"`
			RefreshToken string `json:"refresh_token" binding:"required"`
			ExpiresIn    int    `json:"expires_in"`
			RememberMe   bool   `json:"remember_me"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request payload"))
			return
		}

		claims, err := verifier.Verify(req.AccessToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, helpers.RedirectResponse("Sessão inválida.", "/auth"))
			return
		}

		user := helpers.NewUserClaims(claims)
		session := &models.AuthSession{
			AccessToken:  req.AccessToken,
			RefreshToken: req.RefreshToken,
			ExpiresIn:    req.ExpiresIn,
			UserID:       user.UserID,
			Email:        user.Email,
			DisplayName:  user.DisplayName,
			PhotoURL:     user.PhotoURL,
		}
		u.EnsureProfile(c.Request.Context(), session)

		helpers.SetSessionCookies(c, session, req.RememberMe, secureCookies)
		c.JSON(http.StatusOK, helpers.SuccessResponse(session, "Login realizado com sucesso!"))
	}
}

func RefreshSession(u *services.UserService, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		refreshToken, err := c.Cookie("refresh_token")
		if err != nil || refreshToken == "" {
			c.JSON(http.StatusUnauthorized, helpers.RedirectResponse("refresh token not found", "/auth"))
			return
		}

		session, err := u.RefreshToken(c.Request.Context(), refreshToken)
		if err != nil {
			helpers.ClearSessionCookies(c, secureCookies)
			c.JSON(http.StatusUnauthorized, helpers.RedirectResponse("Sessão expirada. Faça login novamente.", "/auth"))
			return
		}

		helpers.SetSessionCookies(c, session, helpers.Remembered(c), secureCookies)
		c.JSON(http.StatusOK, helpers.SuccessResponse(session, ""))
	}
}

func ResetPassword(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request payload"))
			return
		}

		if err := u.ResetPassword(c.Request.Context(), req.Email); err != nil {
			respondError(c, nil, err, "")
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Email de recuperação enviado!"))
	}
}

// Logout handler
func Logout(secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		helpers.ClearSessionCookies(c, secureCookies)
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Logout realizado com sucesso!"))
	}
}
