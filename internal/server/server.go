package server

import (
	"net/http"
	"sort"
	"time"

	"MarketPulse/internal/cache"
	"MarketPulse/internal/model"
	"MarketPulse/internal/strategy"

	"github.com/gin-gonic/gin"
)

// Server exposes the quote cache to read-only consumers. It never hands
// out mutable state: every response is built from a snapshot.
type Server struct {
	cache   *cache.Cache
	classes map[string]model.InstrumentClass
	started time.Time
}

func New(c *cache.Cache, instruments []model.Instrument) *Server {
	classes := make(map[string]model.InstrumentClass, len(instruments))
	for _, inst := range instruments {
		classes[inst.Symbol] = inst.Class
	}
	return &Server{
		cache:   c,
		classes: classes,
		started: time.Now(),
	}
}

// quoteView is a cached quote joined with its classifier signal.
type quoteView struct {
	model.Quote
	Signal model.Signal `json:"signal"`
}

// Router builds the HTTP routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api/v1")
	api.GET("/quotes", s.listQuotes)
	api.GET("/quotes/:symbol", s.getQuote)

	r.GET("/healthz", s.health)
	return r
}

func (s *Server) listQuotes(c *gin.Context) {
	snap := s.cache.Snapshot()
	views := make([]quoteView, 0, len(snap))
	for sym, q := range snap {
		views = append(views, s.view(sym, q))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Symbol < views[j].Symbol })
	c.JSON(http.StatusOK, gin.H{
		"quotes":     views,
		"simulation": s.cache.Simulation(),
	})
}

func (s *Server) getQuote(c *gin.Context) {
	symbol := c.Param("symbol")
	q, ok := s.cache.Get(symbol)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol", "symbol": symbol})
		return
	}
	c.JSON(http.StatusOK, s.view(symbol, q))
}

func (s *Server) health(c *gin.Context) {
	status := gin.H{
		"status":     "ok",
		"quotes":     s.cache.Len(),
		"simulation": s.cache.Simulation(),
		"uptime":     time.Since(s.started).Round(time.Second).String(),
	}
	if last := s.cache.LastFetch(); !last.IsZero() {
		status["last_fetch"] = last.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) view(symbol string, q model.Quote) quoteView {
	return quoteView{
		Quote:  q,
		Signal: strategy.ClassifyQuote(&q, s.classes[symbol]),
	}
}
