package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adverant/nexus/mathsolver/internal/logging"
	"github.com/adverant/nexus/mathsolver/internal/processor"
)

const requestIDHeader = "X-Request-ID"

// RouterConfig holds the HTTP layer dependencies
type RouterConfig struct {
	Processor     processor.ProblemProcessorInterface
	MaxUploadSize int64
	// FrontendDir is served for unmatched GET requests when it exists
	FrontendDir string
}

// NewRouter builds the gin engine with all service routes
func NewRouter(cfg *RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:   []string{requestIDHeader},
		MaxAge:          12 * time.Hour,
	}))

	h := NewHandler(cfg.Processor, cfg.MaxUploadSize)

	r.GET("/", h.Index)
	r.POST("/solve_math_problem", h.SolveMathProblem)
	r.GET("/frontend", h.Frontend)
	r.GET("/health", HealthCheck)

	r.NoRoute(staticFallback(cfg.FrontendDir))

	return r
}

// requestLogger assigns a request ID and logs one line per request
func requestLogger() gin.HandlerFunc {
	logger := logging.NewLogger("HTTP")

	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		start := time.Now()
		c.Next()

		logger.Info("Request handled",
			"requestId", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// staticFallback serves files from dir for unmatched GETs. Files are served
// with ServeContent so /index.html is returned as is instead of redirected.
func staticFallback(dir string) gin.HandlerFunc {
	root := ""
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			root = dir
		}
	}

	return func(c *gin.Context) {
		if root == "" || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}

		name := filepath.Join(root, filepath.FromSlash(path.Clean("/"+c.Request.URL.Path)))
		f, err := os.Open(name)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || info.IsDir() {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
	}
}
