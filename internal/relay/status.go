package relay

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Router builds the HTTP status API: a health probe plus read-only views of
// the connected boards and the last joins, so operators can inspect the
// router without attaching to its stdin.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "boards": len(s.Boards())})
	})

	router.GET("/boards", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"boards": s.Boards()})
	})

	router.GET("/joins", func(c *gin.Context) {
		joins := s.Joins()
		out := make(map[string]gin.H, len(joins))
		for dir, pair := range joins {
			out[dir] = gin.H{"first": pair[0], "second": pair[1]}
		}
		c.JSON(http.StatusOK, gin.H{"joins": out})
	})

	return router
}

// ServeStatus runs the status API on addr; it blocks like http.ListenAndServe.
func (s *Server) ServeStatus(addr string) error {
	return s.Router().Run(addr)
}
