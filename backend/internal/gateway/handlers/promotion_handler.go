package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"

	"school_sms/backend/internal/gateway/util"
	"school_sms/backend/internal/promotion"
	"school_sms/backend/internal/shared"
)

// contextKey is the type for values the auth middleware stores on requests
type contextKey string

// UserContextKey is where the auth middleware stores the caller's claims
const UserContextKey contextKey = "user"

// AuthClaims are the JWT claims the gateway trusts. Tokens are minted by
// the surrounding application; the gateway only verifies them.
type AuthClaims struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	SchoolID string `json:"school_id"`
	jwt.RegisteredClaims
}

// PromotionHandler exposes the promotion engine over HTTP
type PromotionHandler struct {
	Service  *promotion.Service
	Validate *validator.Validate
}

// NewPromotionHandler creates a PromotionHandler with its own validator
func NewPromotionHandler(service *promotion.Service) *PromotionHandler {
	return &PromotionHandler{
		Service:  service,
		Validate: validator.New(),
	}
}

// RESTPreviewRequest mirrors the JSON input for POST /promotions/preview
type RESTPreviewRequest struct {
	ExamName      string  `json:"exam_name" validate:"required"`
	SourceClass   string  `json:"source_class" validate:"required"`
	TargetClass   string  `json:"target_class" validate:"required"`
	PassThreshold float64 `json:"pass_threshold" validate:"gte=0,lte=100"`
}

// RESTCommitRequest mirrors the JSON input for POST /promotions/commit
type RESTCommitRequest struct {
	RESTPreviewRequest
	StudentKeys []string `json:"student_keys"`
}

// RESTPromoteStudentRequest mirrors the JSON input for POST /promotions/student
type RESTPromoteStudentRequest struct {
	StudentKey  string `json:"student_key" validate:"required"`
	StudentName string `json:"student_name"`
	TargetClass string `json:"target_class" validate:"required"`
	DesiredRoll int32  `json:"desired_roll" validate:"gte=0"`
}

// getClaimsFromContext returns the caller's claims, or nil if missing
func getClaimsFromContext(r *http.Request) *AuthClaims {
	claims, ok := r.Context().Value(UserContextKey).(*AuthClaims)
	if !ok {
		return nil
	}
	return claims
}

// requireOperator verifies the caller may run promotions (admin or faculty)
func (h *PromotionHandler) requireOperator(w http.ResponseWriter, r *http.Request) *AuthClaims {
	claims := getClaimsFromContext(r)
	if claims == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return nil
	}
	if claims.Role != shared.RoleAdmin && claims.Role != shared.RoleFaculty {
		util.WriteJSONError(w, http.StatusForbidden, "Access denied: Only admins and faculty can run promotions")
		return nil
	}
	return claims
}

// decodeAndValidate decodes the JSON body into dst and runs struct validation
func (h *PromotionHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := h.Validate.Struct(dst); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

// PreviewPromotions handles POST /promotions/preview
// Evaluates and ranks the cohort without committing anything.
func (h *PromotionHandler) PreviewPromotions(w http.ResponseWriter, r *http.Request) {
	claims := h.requireOperator(w, r)
	if claims == nil {
		return
	}

	var req RESTPreviewRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	candidates, err := h.Service.Preview(r.Context(), promotion.PreviewRequest{
		SchoolID:      claims.SchoolID,
		ExamName:      req.ExamName,
		SourceClass:   req.SourceClass,
		TargetClass:   req.TargetClass,
		PassThreshold: req.PassThreshold,
	})
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"candidates": candidates,
		"total":      len(candidates),
	})
}

// CommitPromotions handles POST /promotions/commit
// Promotes the passed candidates (optionally a selected subset) and
// reports the per-student outcomes.
func (h *PromotionHandler) CommitPromotions(w http.ResponseWriter, r *http.Request) {
	claims := h.requireOperator(w, r)
	if claims == nil {
		return
	}

	var req RESTCommitRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.Service.Commit(r.Context(), promotion.CommitRequest{
		PreviewRequest: promotion.PreviewRequest{
			SchoolID:      claims.SchoolID,
			ExamName:      req.ExamName,
			SourceClass:   req.SourceClass,
			TargetClass:   req.TargetClass,
			PassThreshold: req.PassThreshold,
		},
		StudentKeys: req.StudentKeys,
	}, claims.UserID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"batch":          result,
		"promoted_names": result.PromotedNames(),
		"failed_names":   result.FailedNames(),
	})
}

// PromoteStudent handles POST /promotions/student
// Single-student promotion, the retry path for failed batch entries.
func (h *PromotionHandler) PromoteStudent(w http.ResponseWriter, r *http.Request) {
	claims := h.requireOperator(w, r)
	if claims == nil {
		return
	}

	var req RESTPromoteStudentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	outcome, err := h.Service.PromoteStudent(r.Context(), promotion.SingleRequest{
		SchoolID:    claims.SchoolID,
		StudentKey:  req.StudentKey,
		StudentName: req.StudentName,
		TargetClass: req.TargetClass,
		DesiredRoll: req.DesiredRoll,
	}, claims.UserID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": outcome.Succeeded(),
		"outcome": outcome,
	})
}

// GetClassRolls handles GET /classes/{class}/rolls
// Lists the roll numbers currently occupied in a class.
func (h *PromotionHandler) GetClassRolls(w http.ResponseWriter, r *http.Request) {
	claims := h.requireOperator(w, r)
	if claims == nil {
		return
	}

	className := chi.URLParam(r, "class")
	rolls, err := h.Service.OccupiedRolls(r.Context(), claims.SchoolID, className)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"class":   className,
		"rolls":   rolls,
		"total":   len(rolls),
	})
}
