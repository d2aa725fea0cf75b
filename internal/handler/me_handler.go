package handler

import (
	"net/http"
	"time"

	"github.com/hitoshi/foodatlas/internal/middleware"
)

// MeHandler は認証済みプリンシパル自身の情報を返すハンドラー。
// ストアには一切アクセスせず、リクエストコンテキストのIdentityだけを反射する。
type MeHandler struct{}

// NewMeHandler はMeHandlerを生成する。
func NewMeHandler() *MeHandler {
	return &MeHandler{}
}

// meResponse は自己情報のAPIレスポンス。
type meResponse struct {
	UID      string `json:"uid"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IssuedAt string `json:"issued_at"`
}

// Me は認証ミドルウェアが注入したIdentityをそのまま返す。
// GET /api/user/me
func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	ident, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteInternalServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		UID:      ident.SubjectID,
		Email:    ident.Email,
		Role:     string(ident.Role),
		IssuedAt: ident.IssuedAt.Format(time.RFC3339),
	})
}
