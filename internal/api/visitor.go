package api

import (
	"net/http"

	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	visitorCookieName = "storefront_visitor"
	visitorIDValue    = "visitor_id"
	visitorContextKey = "visitor_id"
)

// NewVisitorCookies creates the signed cookie store that carries the
// visitor id. maxAge is in seconds.
func NewVisitorCookies(secret string, maxAge int, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// visitorMiddleware resolves the visitor id from the cookie, minting a new
// one for first-time visitors or when the cookie fails verification.
func visitorMiddleware(store sessions.Store) gin.HandlerFunc {
	logger := util.GetLogger()

	return func(c *gin.Context) {
		sess, err := store.Get(c.Request, visitorCookieName)
		if err != nil {
			logger.Debug("Visitor cookie rejected, issuing a new one", zap.Error(err))
		}

		id, _ := sess.Values[visitorIDValue].(string)
		if id == "" {
			id = uuid.New().String()
			sess.Values[visitorIDValue] = id
			if err := sess.Save(c.Request, c.Writer); err != nil {
				logger.Error("Failed to save visitor cookie", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Failed to start visitor session",
				})
				return
			}
		}

		c.Set(visitorContextKey, id)
		c.Next()
	}
}

func visitorID(c *gin.Context) string {
	return c.GetString(visitorContextKey)
}
