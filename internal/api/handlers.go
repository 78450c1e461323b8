package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"support-finder/internal/apperrors"
	redisdb "support-finder/internal/redis"
	"support-finder/internal/resource"
)

// respondError writes the standard error body with the status mapped from err.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	msg := http.StatusText(status)
	var ae *apperrors.AppError
	if errors.As(err, &ae) && status < http.StatusInternalServerError {
		msg = ae.Message
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": gin.H{"message": msg, "code": apperrors.CodeOf(err)}})
}

// GET /health
func HealthHandler(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		checks := gin.H{}
		status, code := "ok", http.StatusOK

		if sqlDB, err := svc.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["database"] = "down"
			status, code = "down", http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
		// Redis and the completion service have local fallbacks, so they only degrade.
		if svc.Redis != nil {
			if err := redisdb.Ping(ctx, svc.Redis); err != nil {
				checks["redis"] = "down"
				if code == http.StatusOK {
					status = "degraded"
				}
			} else {
				checks["redis"] = "ok"
			}
		}
		if svc.Completion != nil {
			if err := svc.Completion.Ping(ctx); err != nil {
				checks["completion"] = "down"
				if code == http.StatusOK {
					status = "degraded"
				}
			} else {
				checks["completion"] = "ok"
			}
		}
		c.JSON(code, gin.H{"status": status, "checks": checks})
	}
}

// GET /api/search?q=
func SearchHandler(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Searcher.Search(c.Request.Context(), c.Query("q"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// GET /api/resources/:id
func GetResourceHandler(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := resource.ParseID(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		r, err := svc.Resources.GetResource(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

// GET /api/categories/:slug/resources
func CategoryResourcesHandler(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")
		cat, err := svc.Categories.Get(c.Request.Context(), slug)
		if err != nil {
			respondError(c, err)
			return
		}
		if cat == nil {
			respondError(c, apperrors.NotFound("category", slug))
			return
		}
		list, err := svc.Resources.ListResources(c.Request.Context(), resource.Filter{CategoryID: cat.ID, Search: c.Query("q")})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"category": cat, "resources": list})
	}
}
