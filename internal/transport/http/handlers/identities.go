package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ggontijo/campus-market/internal/core/domain"
	"github.com/ggontijo/campus-market/internal/infra/logger"
	"github.com/ggontijo/campus-market/internal/infra/security"
	"github.com/ggontijo/campus-market/internal/transport/http/middleware"
	"github.com/ggontijo/campus-market/internal/usecase"
)

// IdentityHandler serves registration, login, and account administration.
type IdentityHandler struct {
	identities *usecase.IdentityService
	tokens     *security.TokenManager
	logger     *zap.Logger
}

// NewIdentityHandler builds the identity handler.
func NewIdentityHandler(identities *usecase.IdentityService, tokens *security.TokenManager, log *zap.Logger) *IdentityHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &IdentityHandler{
		identities: identities,
		tokens:     tokens,
		logger:     log,
	}
}

// Register creates a new account. Accounts start PENDING_VERIFICATION unless
// auto activation is configured.
func (h *IdentityHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	identity, err := h.identities.Register(c.Request.Context(), usecase.RegisterInput{
		Email:          req.Email,
		Name:           req.Name,
		CommercialName: req.CommercialName,
		Phone:          req.Phone,
		TaxID:          req.TaxID,
		Password:       req.Password,
		Membership:     domain.MembershipType(req.Membership),
		HousingID:      req.HousingID,
	})
	if err != nil {
		h.logger.Warn("registration failed",
			zap.String("email", logger.MaskEmail(req.Email)),
			zap.Error(err),
		)
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrValidation, Status: http.StatusBadRequest, Message: "invalid registration data"},
			{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "password does not meet requirements"},
			{Err: usecase.ErrEmailAlreadyRegistered, Status: http.StatusConflict, Message: "email already registered"},
		}, http.StatusInternalServerError, "registration failed")
		return
	}

	resp := RegisterResponse{
		Identity:             newIdentitySummary(identity),
		RequiresVerification: identity.Status == domain.IdentityStatusPending,
	}
	if resp.RequiresVerification {
		resp.Message = "account awaits administrative validation"
	}

	c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials and issues an access token.
func (h *IdentityHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	identity, err := h.identities.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("login refused",
			zap.String("email", logger.MaskEmail(req.Email)),
			zap.Error(err),
		)
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
			{Err: usecase.ErrIdentityBlocked, Status: http.StatusForbidden, Message: "account is blocked"},
		}, http.StatusInternalServerError, "login failed")
		return
	}

	token, expiresAt, err := h.tokens.Issue(identity.ID, identity.Email)
	if err != nil {
		h.logger.Error("token issuance failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "login failed"))
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(expiresAt).Seconds()),
		Identity:    newIdentitySummary(identity),
	})
}

// Me returns the authenticated identity's own profile.
func (h *IdentityHandler) Me(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}
	c.JSON(http.StatusOK, newIdentitySummary(identity))
}

// UpdateProfile applies a self-service patch to the caller's profile.
func (h *IdentityHandler) UpdateProfile(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	updated, err := h.identities.UpdateProfile(c.Request.Context(), identity, usecase.ProfilePatch{
		Name:           req.Name,
		CommercialName: req.CommercialName,
		Phone:          req.Phone,
		TaxID:          req.TaxID,
		Bio:            req.Bio,
		HousingID:      req.HousingID,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrValidation, Status: http.StatusBadRequest, Message: "invalid profile data"},
			{Err: usecase.ErrIdentityNotFound, Status: http.StatusNotFound, Message: "identity not found"},
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
		}, http.StatusInternalServerError, "profile update failed")
		return
	}

	c.JSON(http.StatusOK, newIdentitySummary(updated))
}

// SetStatus performs the administrative account validation action.
func (h *IdentityHandler) SetStatus(c *gin.Context) {
	actor := middleware.CurrentIdentity(c)

	var req IdentityStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	identityID := c.Param("id")
	err := h.identities.SetStatus(c.Request.Context(), actor, identityID, domain.IdentityStatus(req.Status))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrValidation, Status: http.StatusBadRequest, Message: "unknown account status"},
			{Err: usecase.ErrIdentityNotFound, Status: http.StatusNotFound, Message: "identity not found"},
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
		}, http.StatusInternalServerError, "status update failed")
		return
	}

	h.logger.Info("identity status changed",
		zap.String("identity_id", identityID),
		zap.String("status", req.Status),
		zap.String("actor_id", actor.ID),
	)

	c.JSON(http.StatusOK, MessageResponse{Message: "status updated"})
}

// SetMembership changes an identity's tier. Administrator only.
func (h *IdentityHandler) SetMembership(c *gin.Context) {
	actor := middleware.CurrentIdentity(c)

	var req MembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	identityID := c.Param("id")
	err := h.identities.SetMembership(c.Request.Context(), actor, identityID, domain.MembershipType(req.Membership))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrValidation, Status: http.StatusBadRequest, Message: "unknown membership type"},
			{Err: usecase.ErrIdentityNotFound, Status: http.StatusNotFound, Message: "identity not found"},
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
		}, http.StatusInternalServerError, "membership update failed")
		return
	}

	h.logger.Info("identity membership changed",
		zap.String("identity_id", identityID),
		zap.String("membership", req.Membership),
		zap.String("actor_id", actor.ID),
	)

	c.JSON(http.StatusOK, MessageResponse{Message: "membership updated"})
}
