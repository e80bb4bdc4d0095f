package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-moderation-api/internal/middleware"
	"github.com/noah-isme/tutor-moderation-api/internal/models"
)

func actorFromContext(c *gin.Context) models.Actor {
	actor := models.Actor{IP: c.ClientIP()}
	if c.Request != nil {
		actor.UserAgent = c.Request.UserAgent()
	}
	if claims := middleware.Claims(c); claims != nil {
		actor.UserID = claims.UserID
	}
	return actor
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}
