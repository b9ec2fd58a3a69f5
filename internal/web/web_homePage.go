package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HomePageData represents data for the landing page
type HomePageData struct {
	TemplateData
	CampgroundCount int64
}

func (s *WebServer) homePage(c *gin.Context) error {
	count, err := s.DB.CountCampgrounds()
	if err != nil {
		return err
	}
	return s.renderTemplate(c, http.StatusOK, "home", HomePageData{
		TemplateData:    s.getBaseTemplateData(c, "YelpCamp"),
		CampgroundCount: count,
	})
}
