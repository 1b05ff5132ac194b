// Package server exposes the advisor over HTTP.
package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agrisense/crop-advisor/internal/advisor"
	"github.com/agrisense/crop-advisor/internal/season"
)

// Server is the HTTP adapter over the shared advisor.
type Server struct {
	advisor *advisor.Advisor
	engine  *gin.Engine
}

// New builds the router. CORS is open so browser frontends can call the API
// directly.
func New(a *advisor.Advisor) *Server {
	engine := gin.New()
	engine.Use(RequestID())
	engine.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Printf("[server] panic recovered: %v", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("%v", recovered)})
	}))
	engine.Use(cors.Default())

	s := &Server{advisor: a, engine: engine}
	s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/", s.handleHome)
	s.engine.POST("/predict/", s.handlePredict)
	s.engine.GET("/weather/", s.handleWeather)
	s.engine.GET("/rainfall/", s.handleRainfall)
}

func (s *Server) handleHome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to Crop Prediction API!"})
}

type predictRequest struct {
	District string   `json:"district"`
	N        *float64 `json:"N"`
	P        *float64 `json:"P"`
	K        *float64 `json:"K"`
	PH       *float64 `json:"ph"`
}

// POST /predict/ returns per-season top-3 crop recommendations for a district.
// Seasons without climate data are simply absent from the response.
func (s *Server) handlePredict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	district := strings.ToUpper(strings.TrimSpace(req.District))
	if district == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "District is required"})
		return
	}

	res := s.advisor.Recommend(c.Request.Context(), advisor.RecommendRequest{
		District: district,
		N:        req.N,
		P:        req.P,
		K:        req.K,
		PH:       req.PH,
	})
	c.JSON(http.StatusOK, res)
}

// GET /weather/?district= returns per-season formatted temperature, humidity, and
// rainfall. Any unfetchable season fails the whole call.
func (s *Server) handleWeather(c *gin.Context) {
	district := c.Query("district")
	if strings.TrimSpace(district) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "District parameter is required"})
		return
	}

	w, err := s.advisor.SeasonalWeather(c.Request.Context(), district)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, w)
}

// GET /rainfall/?district= returns per-season tabulated rainfall. A season with no
// data gets an error object, not a failed request.
func (s *Server) handleRainfall(c *gin.Context) {
	district := c.Query("district")
	if strings.TrimSpace(district) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "District is required"})
		return
	}

	resp := make(map[season.Season]any, 3)
	for _, sn := range season.All() {
		if mm, ok := s.advisor.Rainfall(district, sn); ok {
			resp[sn] = advisor.FormatRainfall(mm)
		} else {
			resp[sn] = gin.H{"error": "No rainfall data found"}
		}
	}
	c.JSON(http.StatusOK, resp)
}

// RequestID tags every request and response with a correlation ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}
