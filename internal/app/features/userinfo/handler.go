// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	"github.com/jsong1004/ai-service/internal/app/system/apiresp"
	"github.com/jsong1004/ai-service/internal/app/system/auth"
)

// Handler serves user information for authenticated sessions.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

type meResponse struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	ID              string `json:"id,omitempty"`
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	Role            string `json:"role,omitempty"`
	ProfileComplete bool   `json:"profileComplete"`
	AffiliateID     string `json:"affiliateId,omitempty"`
	ClientID        string `json:"clientId,omitempty"`
}

// ServeMe returns the current user's authentication status and identity.
// Anonymous callers get 200 with isAuthenticated=false so the frontend can
// probe without handling an error.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		apiresp.JSON(w, http.StatusOK, meResponse{})
		return
	}

	apiresp.JSON(w, http.StatusOK, meResponse{
		IsAuthenticated: true,
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		Role:            user.Role,
		ProfileComplete: user.ProfileComplete,
		AffiliateID:     user.AffiliateID,
		ClientID:        user.ClientID,
	})
}
