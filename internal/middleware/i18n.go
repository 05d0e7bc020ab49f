// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get language from header
		lang := c.GetHeader("Accept-Language")

		// Parse language preference
		if lang != "" {
			// Handle cases like "ko-KR,ko;q=0.9,en;q=0.8"
			langs := strings.Split(lang, ",")
			if len(langs) > 0 {
				firstLang := strings.TrimSpace(strings.Split(langs[0], ";")[0])
				switch firstLang {
				case "en", "en-US", "en-GB":
					lang = "en"
				case "ko", "ko-KR", "ko_KR":
					lang = "ko"
				default:
					lang = "ko" // Default to Korean
				}
			}
		} else {
			lang = "ko" // Default language
		}

		// Set language in context
		c.Set("lang", lang)
		c.Next()
	}
}
