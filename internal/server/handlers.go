package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamoski/relaydeck/internal/catalog"
	"github.com/mamoski/relaydeck/internal/composer"
	"github.com/mamoski/relaydeck/internal/service"
	"github.com/mamoski/relaydeck/pkg/util"
)

const identityKey = "identity"

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code"`
}

// platformRequest mirrors one entry of the "platforms" multipart field.
type platformRequest struct {
	PlatformID string `json:"platform_id"`
	Account    string `json:"account"`
	PostType   string `json:"post_type"`
}

func (s *Server) requireSession(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	identity, err := s.Auth.Session(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	c.Set(identityKey, identity)
	c.Next()
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func currentIdentity(c *gin.Context) service.Identity {
	identity, _ := c.MustGet(identityKey).(service.Identity)
	return identity
}

func (s *Server) handleSignUp(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	identity, err := s.Auth.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		s.Logger.Error("Failed to sign up", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign up"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user_id": identity.UserID, "email": identity.Email})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	token, identity, err := s.Auth.SignInWithPassword(c.Request.Context(), req.Email, req.Password, req.TOTPCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTOTPRequired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "TOTP code required"})
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		default:
			s.Logger.Error("Failed to sign in", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"user_id": identity.UserID,
		"email":   identity.Email,
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	if err := s.Auth.SignOut(c.Request.Context(), token); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session not found"})
			return
		}
		s.Logger.Error("Failed to sign out", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign out"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

func (s *Server) handleSession(c *gin.Context) {
	identity := currentIdentity(c)
	c.JSON(http.StatusOK, gin.H{"user_id": identity.UserID, "email": identity.Email})
}

func (s *Server) handleEnrollTOTP(c *gin.Context) {
	identity := currentIdentity(c)

	url, err := s.Auth.EnrollTOTP(c.Request.Context(), identity)
	if err != nil {
		s.Logger.Error("Failed to enroll TOTP", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enroll TOTP"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"otpauth_url": url})
}

func (s *Server) handlePlatforms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"platforms": catalog.All()})
}

// handleSubmitUpload drives the composer and the submission pipeline from
// one multipart request: file, notes, caption_ideas and a JSON "platforms"
// field of {platform_id, account, post_type} entries.
func (s *Server) handleSubmitUpload(c *gin.Context) {
	identity := currentIdentity(c)

	maxAssetBytes := int64(s.Config.Server.MaxUploadMB) << 20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAssetBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Asset exceeds the upload size limit"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No asset selected"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read asset"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		if isBodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Asset exceeds the upload size limit"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read asset"})
		return
	}

	var requested []platformRequest
	if raw := c.PostForm("platforms"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &requested); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid platforms field"})
			return
		}
	}

	draft := &composer.Draft{}
	draft.SelectFile(util.SanitizeFilename(fileHeader.Filename), data)
	draft.Notes = c.PostForm("notes")
	draft.CaptionIdeas = c.PostForm("caption_ideas")

	for _, req := range requested {
		desc, ok := catalog.ByID(req.PlatformID)
		if !ok {
			// Unknown platforms are skipped, matching the catalog contract.
			continue
		}
		draft.TogglePlatform(desc)
		if req.Account != "" {
			draft.UpdateSelectionField(desc.ID, composer.FieldAccount, req.Account)
		}
		if req.PostType != "" {
			draft.UpdateSelectionField(desc.ID, composer.FieldPostType, req.PostType)
		}
	}

	err = s.Submit.Submit(c.Request.Context(), draft, identity, func(percent int) {
		s.Logger.Debug("Submission progress",
			zap.String("user_id", identity.UserID),
			zap.Int("percent", percent))
	})
	if err != nil {
		switch {
		case errors.Is(err, composer.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrSubmitInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": "A submission is already in flight"})
		case errors.Is(err, service.ErrRelayUnreachable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Relay endpoint unreachable, upload was not delivered"})
		case errors.Is(err, service.ErrPersistenceWrite):
			// The relay already accepted the upload; only the local record
			// is delayed until the outbox flusher lands it.
			c.JSON(http.StatusAccepted, gin.H{
				"message": "Upload relayed; history record is delayed and will be reconciled",
			})
		default:
			s.Logger.Error("Submission failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Submission failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Upload relayed and recorded"})
}

// isBodyTooLarge reports whether the multipart parse failed because
// MaxBytesReader tripped the request size limit.
func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

func (s *Server) handleListUploads(c *gin.Context) {
	identity := currentIdentity(c)
	records := s.Telemetry.Load(c.Request.Context(), identity)
	c.JSON(http.StatusOK, gin.H{"uploads": records})
}

func (s *Server) handleAnalyticsSummary(c *gin.Context) {
	identity := currentIdentity(c)
	records := s.Telemetry.Load(c.Request.Context(), identity)
	summary := service.Aggregate(records, time.Now())
	c.JSON(http.StatusOK, gin.H{
		"summary": summary,
		"uploads": records,
	})
}
