package api

import (
	"net/http"
	"sync"
	"time"

	"HackathonSync/internal/config"
	"HackathonSync/internal/model"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var registerValidatorsOnce sync.Once

// registerValidators 注册自定义校验规则 hackathon_source
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("hackathon_source", func(fl validator.FieldLevel) bool {
			for _, name := range splitList([]string{fl.Field().String()}) {
				if _, ok := model.ParseSource(name); !ok {
					return false
				}
			}
			return true
		})
	})
}

// NewRouter 组装中间件与路由
func NewRouter(cfg *config.Config, logger *logrus.Logger, events *EventHandler, syncs *SyncHandler) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	registerValidators()

	r := gin.New()
	r.Use(requestid.New())
	r.Use(requestLogger(logger))
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.CORS)))

	// 注册ppof 方便调试和监测性能问题
	if cfg.Server.Mode != gin.ReleaseMode {
		pprof.Register(r)
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if syncs != nil {
		r.POST("/sync/source/:source", syncs.SyncSourceHandler)
		r.POST("/sync/all", syncs.SyncAllHandler)
	}

	api := r.Group("/api")
	api.GET("/hackathons", events.ListEvents)
	api.GET("/hackathons/:id", events.GetEvent)
	api.GET("/stats", events.GetStats)
	api.GET("/tags", events.ListTags)
	api.GET("/sources", events.ListSources)
	return r
}

func corsConfig(c config.CORSConfig) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range c.AllowOrigins {
		if origin == "*" {
			cc.AllowAllOrigins = true
			return cc
		}
	}
	if len(c.AllowOrigins) == 0 {
		cc.AllowAllOrigins = true
		return cc
	}
	cc.AllowOrigins = c.AllowOrigins
	return cc
}

// requestLogger 用 logrus 记录访问日志，带上 request id
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := logger.WithFields(logrus.Fields{
			"request_id": requestid.Get(c),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("请求处理失败")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("请求参数错误")
		default:
			entry.Debug("请求完成")
		}
	}
}
