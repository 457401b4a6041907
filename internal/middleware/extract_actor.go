package middleware

import "github.com/gin-gonic/gin"

// ExtractActor reads the operator identity supplied by the presentation
// layer. Identity selection lives outside this system; the header is taken
// at face value and only used for audit context.
func ExtractActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor := c.GetHeader("X-Actor-ID"); actor != "" {
			c.Set("actor_id", actor)
		}
		c.Next()
	}
}
