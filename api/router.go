// Package api contains all endpoints available
package api

import (
	"bitwise74/docs-api/config"
	"bitwise74/docs-api/internal"
	"bitwise74/docs-api/internal/metrics"
	"bitwise74/docs-api/pkg/middleware"
	"fmt"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

type API struct {
	*internal.Deps
	Config *config.Config
	Router *gin.Engine
	cache  persist.CacheStore
}

// newCacheStore keeps cached responses in redis when an address is
// configured and in memory otherwise
func newCacheStore(c *config.Cache) persist.CacheStore {
	if c.RedisAddr == "" {
		return persist.NewMemoryStore(time.Minute)
	}

	zap.L().Debug("Caching responses in redis", zap.String("addr", c.RedisAddr))
	return persist.NewRedisStore(redis.NewClient(&redis.Options{
		Network:  "tcp",
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}))
}

func NewRouter(c *config.Config, d *internal.Deps) *API {
	a := &API{
		Deps:   d,
		Config: c,
		cache:  newCacheStore(&c.Cache),
	}

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     c.Host.CORS,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.MaxMultipartMemory = 5 << 20

	secret := []byte(c.JWT.Secret)
	jwt := middleware.NewJWTMiddleware(secret)
	optionalJWT := middleware.NewOptionalJWTMiddleware(secret)
	rateLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: c.Security.RateLimit,
		Burst:             c.Security.RateLimit * 2,
	})
	smallBody := middleware.BodySizeLimiter(1 << 20)

	// GET /metrics			-> Prometheus metrics
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	m := router.Group("/api", rateLimiter)
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", a.Heartbeat)

		// GET /api/validate		-> Validates a JWT token
		m.GET("/validate", jwt, a.Validate)

		// GET /api/formats		-> Lists the mime types text can be extracted from
		m.GET("/formats", a.cacheFor(5*60), a.Formats)
	}

	u := m.Group("/users", smallBody)
	{
		// GET /api/users		-> Returns the storage stats of a user
		u.GET("", jwt, a.UserStats)

		// POST /api/users/login 	-> Logs in a user and sets the auth_token cookie
		u.POST("/login", a.UserLogin)
	}

	docs := m.Group("/documents", jwt, smallBody)
	{
		// POST /api/documents		-> Creates an empty document
		docs.POST("", a.DocumentCreate)
	}

	t := m.Group("/tags", jwt, smallBody)
	{
		// GET /api/tags		-> Lists the tags of a user
		t.GET("", a.TagList)

		// POST /api/tags		-> Creates a tag
		t.POST("", a.TagCreate)

		// DELETE /api/tags/:id		-> Deletes a tag and detaches it from every document
		t.DELETE("/:id", a.TagDelete)
	}

	f := m.Group("/files")
	{
		// PUT /api/files		-> Uploads a file, optionally as a new version of another one
		f.PUT("", jwt, middleware.BodySizeLimiter(c.Upload.MaxSize+1<<20), a.FileUpload)

		// GET /api/files		-> Lists the files of a document, or the caller's orphans
		f.GET("", optionalJWT, a.FileList)

		// GET /api/files/zip		-> Returns all files of a document as a zip archive
		f.GET("/zip", optionalJWT, a.FileZipDocument)

		// POST /api/files/zip		-> Returns the listed files as a zip archive
		f.POST("/zip", jwt, smallBody, a.FileZipList)

		// POST /api/files/reorder	-> Reorders the files of a document
		f.POST("/reorder", jwt, smallBody, a.FileReorder)

		// GET /api/files/:id		-> Returns the metadata of a file
		f.GET("/:id", optionalJWT, a.FileFetch)

		// GET /api/files/:id/data	-> Returns the decrypted content of a file or one of its variants
		f.GET("/:id/data", optionalJWT, a.FileData)

		// GET /api/files/:id/versions	-> Lists every version of a file
		f.GET("/:id/versions", jwt, a.FileVersions)

		// POST /api/files/:id		-> Renames a file
		f.POST("/:id", jwt, smallBody, a.FileEdit)

		// POST /api/files/:id/attach	-> Attaches an orphan file to a document
		f.POST("/:id/attach", jwt, smallBody, a.FileAttach)

		// POST /api/files/:id/process	-> Runs a file through the content pipeline again
		f.POST("/:id/process", jwt, a.FileProcess)

		// DELETE /api/files/:id	-> Deletes a file with all its versions
		f.DELETE("/:id", jwt, a.FileDelete)
	}

	return a
}

// MakeLogger replaces the global zap logger
func MakeLogger(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level, %w", err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger, %w", err)
	}

	zap.ReplaceGlobals(log)
	return nil
}

func (a *API) cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(a.cache, time.Second*time.Duration(sec))
}
