// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package northbound

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/onosproject/onos-lib-go/pkg/logging"
	"github.com/onosproject/onos-ntn-ric/pkg/e2"
	"github.com/onosproject/onos-ntn-ric/pkg/xapp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var log = logging.GetLogger("northbound")

// Server is the HTTP control surface of the RIC: xApp lifecycle, node and
// subscription inventory, and the metrics exporter.
type Server struct {
	port      int
	e2Manager *e2.Manager
	xapps     *xapp.Manager
	router    *gin.Engine
	server    *http.Server
}

// NewServer creates the northbound server over the two managers
func NewServer(port int, e2Manager *e2.Manager, xapps *xapp.Manager) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		port:      port,
		e2Manager: e2Manager,
		xapps:     xapps,
		router:    router,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/xapps", s.listXApps)
	s.router.GET("/xapps/:name", s.getXApp)
	s.router.POST("/xapps/:name/start", s.startXApp)
	s.router.POST("/xapps/:name/stop", s.stopXApp)
	s.router.DELETE("/xapps/:name", s.undeployXApp)
	s.router.GET("/nodes", s.listNodes)
	s.router.GET("/subscriptions", s.listSubscriptions)

	registry := prometheus.NewRegistry()
	registry.MustRegister(newXAppCollector(s.xapps))
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving; it returns once the listener is bound
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.server = &http.Server{Addr: addr, Handler: s.router}
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error(err)
		}
	}()
	log.Infof("northbound server listening on %s", addr)
	return nil
}

// Stop shuts the server down, letting in-flight requests finish
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) listXApps(c *gin.Context) {
	c.JSON(http.StatusOK, s.xapps.List())
}

func (s *Server) getXApp(c *gin.Context) {
	status, err := s.xapps.Status(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) startXApp(c *gin.Context) {
	instance, err := s.xapps.Get(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	instance.Start()
	c.JSON(http.StatusOK, instance.Status())
}

func (s *Server) stopXApp(c *gin.Context) {
	instance, err := s.xapps.Get(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	instance.Stop()
	c.JSON(http.StatusOK, instance.Status())
}

func (s *Server) undeployXApp(c *gin.Context) {
	name := c.Param("name")
	if !s.xapps.Undeploy(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("xapp %s not found", name)})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listNodes(c *gin.Context) {
	c.JSON(http.StatusOK, s.e2Manager.Nodes())
}

func (s *Server) listSubscriptions(c *gin.Context) {
	c.JSON(http.StatusOK, s.e2Manager.Subscriptions())
}
