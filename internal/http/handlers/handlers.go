package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/studypact-backend/internal/pkg/ctxutil"
	"github.com/yungbote/studypact-backend/internal/pkg/dbctx"
)

// requestUser pulls the authenticated user out of the request context.
// Routes behind RequireAuth always have one; the guard covers misuse.
func requestUser(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{"message": "not authenticated", "code": "unauthorized"},
		})
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func reqCtx(c *gin.Context) dbctx.Context {
	return dbctx.Context{Ctx: c.Request.Context()}
}
