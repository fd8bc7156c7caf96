package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zaheer037/smart-auth/internal/core/domain"
	"github.com/zaheer037/smart-auth/internal/transport/http/middleware"
	"github.com/zaheer037/smart-auth/internal/usecase"
)

// genericOTPFailure is the single message for every verification failure.
// The wording never distinguishes the internal outcome.
const genericOTPFailure = "Invalid or expired OTP"

// AuthHandler exposes the passwordless authentication endpoints.
type AuthHandler struct {
	otp *usecase.OTPService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(otp *usecase.OTPService) *AuthHandler {
	return &AuthHandler{otp: otp}
}

// RegisterRoutes binds the OTP routes, applying optional middleware ahead of
// the issuance endpoints.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, issueMiddlewares ...gin.HandlerFunc) {
	send := append([]gin.HandlerFunc{}, issueMiddlewares...)
	send = append(send, h.sendOTP)
	r.POST("/send-otp", send...)

	resend := append([]gin.HandlerFunc{}, issueMiddlewares...)
	resend = append(resend, h.resendOTP)
	r.POST("/resend-otp", resend...)

	r.POST("/verify-otp", h.verifyOTP)
}

func (h *AuthHandler) sendOTP(c *gin.Context) {
	var req OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	receipt, err := h.otp.RequestCode(c.Request.Context(), req.Email, req.Phone, requestContext(c))
	if err != nil {
		h.respondIssueError(c, err)
		return
	}

	c.JSON(http.StatusOK, OTPChallengeResponse{
		Message:   "Verification code sent",
		Method:    string(receipt.Method),
		ExpiresIn: int(receipt.ExpiresIn.Seconds()),
	})
}

func (h *AuthHandler) resendOTP(c *gin.Context) {
	var req OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	receipt, err := h.otp.ResendCode(c.Request.Context(), req.Email, req.Phone, requestContext(c))
	if err != nil {
		h.respondIssueError(c, err)
		return
	}

	c.JSON(http.StatusOK, OTPChallengeResponse{
		Message:   "Verification code resent",
		Method:    string(receipt.Method),
		ExpiresIn: int(receipt.ExpiresIn.Seconds()),
	})
}

func (h *AuthHandler) verifyOTP(c *gin.Context) {
	var req OTPVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	result, err := h.otp.VerifyCode(c.Request.Context(), req.Email, req.Phone, req.Code, requestContext(c))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrIdentifierRequired, Status: http.StatusBadRequest, Message: domain.ErrIdentifierRequired.Error()},
			{Err: domain.ErrInvalidEmail, Status: http.StatusBadRequest, Message: domain.ErrInvalidEmail.Error()},
			{Err: domain.ErrInvalidPhone, Status: http.StatusBadRequest, Message: domain.ErrInvalidPhone.Error()},
			{Err: usecase.ErrMalformedCode, Status: http.StatusBadRequest, Message: usecase.ErrMalformedCode.Error()},
			{Err: usecase.ErrInvalidOTP, Status: http.StatusUnauthorized, Message: genericOTPFailure},
			{Err: usecase.ErrInactiveAccount, Status: http.StatusForbidden, Message: usecase.ErrInactiveAccount.Error()},
		}, http.StatusInternalServerError, "verification failed")
		return
	}

	c.JSON(http.StatusOK, VerifyResponse{
		Token:     result.Token,
		TokenType: "Bearer",
		ExpiresAt: result.ExpiresAt,
		User:      result.User,
		Risk: RiskSummary{
			Status:    result.Verdict.Status,
			Score:     result.Verdict.Score,
			Factors:   result.Verdict.Factors,
			Timestamp: result.LoginAt,
		},
	})
}

func (h *AuthHandler) respondIssueError(c *gin.Context, err error) {
	var throttled *usecase.RateLimitedError
	if errors.As(err, &throttled) {
		retry := throttled.RemainingSeconds()
		c.Header("Retry-After", strconv.Itoa(retry))
		c.JSON(http.StatusTooManyRequests, ThrottledResponse{
			Error:      "A verification code was already sent",
			RetryAfter: retry,
			TraceID:    middleware.GetTraceID(c),
		})
		return
	}

	RespondWithMappedError(c, err, []ErrorCase{
		{Err: domain.ErrIdentifierRequired, Status: http.StatusBadRequest, Message: domain.ErrIdentifierRequired.Error()},
		{Err: domain.ErrInvalidEmail, Status: http.StatusBadRequest, Message: domain.ErrInvalidEmail.Error()},
		{Err: domain.ErrInvalidPhone, Status: http.StatusBadRequest, Message: domain.ErrInvalidPhone.Error()},
		{Err: usecase.ErrInactiveAccount, Status: http.StatusForbidden, Message: usecase.ErrInactiveAccount.Error()},
		{Err: usecase.ErrDeliveryFailed, Status: http.StatusBadGateway, Message: usecase.ErrDeliveryFailed.Error()},
	}, http.StatusInternalServerError, "could not issue verification code")
}

func requestContext(c *gin.Context) usecase.RequestContext {
	reqCtx := middleware.GetRequestContext(c)
	return usecase.RequestContext{
		IP:                reqCtx.IP,
		UserAgent:         reqCtx.UserAgent,
		DeviceFingerprint: reqCtx.DeviceFingerprint,
	}
}
