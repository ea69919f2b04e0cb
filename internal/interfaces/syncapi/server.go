package syncapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const configKey = "sync.config"

// ConfigStore 同步代理的后端：整份配置按单键存取
type ConfigStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error
}

// Server 配置同步代理
// GET  /sync?pwd=xxx 取配置，POST /sync?pwd=xxx 存配置
// 应答统一信封 {success, data|error}
type Server struct {
	password string
	store    ConfigStore
	engine   *gin.Engine
}

func NewServer(password string, store ConfigStore, debug bool) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		password: password,
		store:    store,
		engine:   gin.Default(),
	}

	// 浏览器端直连，放开跨域
	s.engine.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/sync", s.auth, s.getConfig)
	s.engine.POST("/sync", s.auth, s.putConfig)
}

func (s *Server) Run(addr string) error {
	log.Info().Str("addr", addr).Msg("sync proxy listening")
	return s.engine.Run(addr)
}

// Handler 暴露给测试用
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) auth(c *gin.Context) {
	pwd := c.Query("pwd")
	if pwd == "" || pwd != s.password {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "密码错误",
		})
		return
	}
	c.Next()
}

func (s *Server) getConfig(c *gin.Context) {
	stored, err := s.store.GetSetting(c.Request.Context(), configKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	if strings.TrimSpace(stored) == "" {
		// 还没有配置，回空壳让客户端保留本地
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"version":    "1.0",
				"lastUpdate": nil,
				"data":       gin.H{},
			},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    json.RawMessage(stored),
	})
}

func (s *Server) putConfig(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}

	if err := s.store.PutSetting(c.Request.Context(), configKey, string(body)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "配置已更新",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
