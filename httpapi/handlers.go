package httpapi

import (
	"errors"
	"net/http"

	reporterAuth "github.com/MrEthical07/reporterAuth"
	"github.com/MrEthical07/reporterAuth/middleware"
)

const loginRateLimitedMessage = "Too many login attempts. Please try again later."

type messageResponse struct {
	Message string `json:"message"`
}

type registerResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type loginResponse struct {
	Message     string `json:"message"`
	OTPRequired bool   `json:"otpRequired"`
}

type sessionUser struct {
	ID       string            `json:"id"`
	Username string            `json:"username"`
	Role     reporterAuth.Role `json:"role"`
}

type verifyLoginResponse struct {
	Message string      `json:"message"`
	User    sessionUser `json:"user"`
}

type emailOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type emailRequest struct {
	Email string `json:"email"`
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	middleware.WriteError(w, r, a.logger, err)
}

func (a *API) csrfToken(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"csrfToken": middleware.CSRFTokenFromContext(r.Context()),
	})
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req reporterAuth.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.engine.Register(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, registerResponse{
		Message: "User registered. Check your email for the verification code.",
		UserID:  res.UserID,
	})
}

func (a *API) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req emailOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.engine.VerifyEmail(r.Context(), req.Email, req.OTP); err != nil {
		a.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, messageResponse{Message: "Email verified successfully"})
}

func (a *API) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.engine.ResendVerification(r.Context(), req.Email); err != nil {
		a.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, messageResponse{Message: "Verification code sent"})
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req reporterAuth.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if _, err := a.engine.Login(r.Context(), req); err != nil {
		if errors.Is(err, reporterAuth.ErrRateLimited) {
			middleware.WriteErrorMessage(w, http.StatusTooManyRequests, loginRateLimitedMessage)
			return
		}
		a.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, loginResponse{Message: "OTP sent to your email", OTPRequired: true})
}

func (a *API) verifyLoginOTP(w http.ResponseWriter, r *http.Request) {
	var req emailOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	s, err := a.engine.VerifyLoginOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	http.SetCookie(w, a.engine.SessionCookie(s))
	middleware.WriteJSON(w, http.StatusOK, verifyLoginResponse{
		Message: "Login successful",
		User: sessionUser{
			ID:       s.Claims.UserID,
			Username: s.Claims.Username,
			Role:     s.Claims.Role,
		},
	})
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	p, err := a.engine.GetSelf(r.Context(), claims)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, p)
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	if err := a.engine.Logout(r.Context(), claims); err != nil {
		a.fail(w, r, err)
		return
	}
	http.SetCookie(w, a.engine.ExpiredSessionCookie())
	middleware.WriteJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}

func (a *API) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req reporterAuth.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	claims, _ := middleware.ClaimsFromContext(r.Context())
	p, err := a.engine.UpdateProfile(r.Context(), claims.UserID, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, p)
}

func (a *API) changePassword(w http.ResponseWriter, r *http.Request) {
	var req reporterAuth.ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	claims, _ := middleware.ClaimsFromContext(r.Context())
	if err := a.engine.ChangePassword(r.Context(), claims.UserID, req); err != nil {
		a.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, messageResponse{Message: "Password changed successfully"})
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.engine.ListUsers(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, users)
}

func (a *API) adminUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req reporterAuth.AdminUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	claims, _ := middleware.ClaimsFromContext(r.Context())
	p, err := a.engine.AdminUpdateUser(r.Context(), claims, r.PathValue("id"), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, p)
}

func (a *API) adminDeleteUser(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	if _, err := a.engine.AdminDeleteUser(r.Context(), claims, r.PathValue("id")); err != nil {
		a.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, messageResponse{Message: "User deleted"})
}
