package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// devOrigins are the Expo and Vite dev servers the mobile and admin
// front-ends run on locally.
var devOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://localhost:8081",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
	"http://127.0.0.1:8081",
}

// CORS allows the configured origins. No origins means the dev servers; a
// lone "*" opens the API to any origin without credentials.
func CORS(origins []string) gin.HandlerFunc {
	return cors.New(corsConfig(origins))
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Requested-With", HeaderRequestID},
		ExposeHeaders: []string{HeaderRequestID, HeaderTraceID},
		MaxAge:        12 * time.Hour,
	}
	switch {
	case len(origins) == 0:
		cfg.AllowOrigins = devOrigins
		cfg.AllowCredentials = true
	case len(origins) == 1 && origins[0] == "*":
		cfg.AllowAllOrigins = true
	default:
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}
