package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

// ListenConfig picks between plain HTTP for local development and TLS.
type ListenConfig struct {
	LocalDev bool   `yaml:"local_dev"`
	DevIP    string `yaml:"dev_ip"`
	DevPort  int    `yaml:"dev_port"`

	ProductionIP   string `yaml:"production_ip"`
	ProductionPort int    `yaml:"production_port"`
	TLSCertFile    string `yaml:"tls_cert_file"`
	TLSKeyFile     string `yaml:"tls_key_file"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func (c ListenConfig) Address() string {
	if c.LocalDev {
		return net.JoinHostPort(c.DevIP, strconv.Itoa(c.DevPort))
	}
	return net.JoinHostPort(c.ProductionIP, strconv.Itoa(c.ProductionPort))
}

type Server struct {
	Engine *gin.Engine
	log    *logger.Logger
	cfg    ListenConfig
	srv    *http.Server
}

func NewServer(log *logger.Logger, cfg RouterConfig, listen ListenConfig) *Server {
	engine := NewRouter(cfg)
	return &Server{
		Engine: engine,
		log:    log.With("component", "HTTPServer"),
		cfg:    listen,
		srv: &http.Server{
			Addr:              listen.Address(),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.cfg.LocalDev {
			s.log.Info("App listening", "url", "http://"+s.srv.Addr)
			err = s.srv.ListenAndServe()
		} else {
			s.log.Info("App listening", "url", "https://"+s.srv.Addr)
			err = s.srv.ListenAndServeTLS(s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.log.Info("shutting down http server", "timeout", timeout.String())
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
