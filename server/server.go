package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/room4-2/arka/config"
	"github.com/room4-2/arka/messages"
	"github.com/room4-2/arka/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Server struct {
	httpServer     *http.Server
	engine         *gin.Engine
	upgrader       websocket.Upgrader
	sessionManager *session.Manager
	config         *config.Config
}

// NewServer wires the HTTP routes and the WebSocket relay endpoint
func NewServer(cfg *config.Config, sessionManager *session.Manager) *Server {
	s := &Server{
		sessionManager: sessionManager,
		config:         cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024, // 64KB for audio chunks
			WriteBufferSize: 64 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Non-browser clients send no Origin
				return origin == "" || cfg.OriginAllowed(origin)
			},
		},
	}

	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	engine.GET("/", s.handleRoot)
	engine.GET("/ws", s.handleWebSocket)
	engine.GET("/health", s.handleHealth)

	api := engine.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/config", s.handleConfig)

	files := http.FileServer(http.Dir(cfg.PublicDir))
	engine.NoRoute(gin.WrapH(files))

	s.engine = engine
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins listening for connections
func (s *Server) Start() error {
	log.Printf("🚀 Arka server starting on port %d (upstream: %s)", s.config.Port, s.config.UpstreamProvider)
	log.Printf("📡 WebSocket endpoint: ws://localhost:%d/", s.config.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("🛑 Shutting down server...")
	s.sessionManager.Shutdown()
	return s.httpServer.Shutdown(ctx)
}

// handleRoot upgrades WebSocket requests and serves the page otherwise
func (s *Server) handleRoot(c *gin.Context) {
	if websocket.IsWebSocketUpgrade(c.Request) {
		s.handleWebSocket(c)
		return
	}
	c.File(s.config.PublicDir + "/index.html")
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	clientSession, err := s.sessionManager.CreateSession(c.Request.Context(), conn)
	if err != nil {
		log.Printf("Failed to create session: %v", err)
		notice := messages.MsgConnectFailed
		if errors.Is(err, session.ErrMaxSessions) {
			notice = messages.MsgTooManySessions
		}
		if frame, encErr := messages.NewErrorMessage(notice).Encode(); encErr == nil {
			_ = conn.WriteMessage(websocket.TextMessage, frame)
		}
		conn.Close()
		return
	}

	log.Printf("✅ New session created: %s", clientSession.ID)

	clientSession.Start()

	// Wait for session to close
	<-clientSession.CloseChan

	log.Printf("🔌 Session closed: %s", clientSession.ID)
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Arka server is running",
	})
}

func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"forceAurora": s.config.ForceAurora,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": s.sessionManager.GetActiveSessionCount(),
	})
}
