package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.botAPI.Status())
}

func (s *Server) handleOrders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"orders": s.botAPI.OpenOrders()})
}

func (s *Server) handlePOIs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pois": s.botAPI.OpenPOIs()})
}

func (s *Server) handleTrades(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"trades": s.botAPI.ClosedTrades()})
}
