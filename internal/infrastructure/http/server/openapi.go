package server

import (
	"embed"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed openapi.yaml
var openAPISpec embed.FS

// OpenAPIHandler serves the API description
type OpenAPIHandler struct {
	logger  *zap.Logger
	spec    string
	version string
}

// NewOpenAPIHandler creates a new OpenAPI handler
func NewOpenAPIHandler(version string, logger *zap.Logger) *OpenAPIHandler {
	specData, err := openAPISpec.ReadFile("openapi.yaml")
	if err != nil {
		logger.Error("Failed to read OpenAPI spec", zap.Error(err))
		return &OpenAPIHandler{logger: logger, spec: "# OpenAPI spec not available", version: version}
	}

	return &OpenAPIHandler{
		logger:  logger,
		spec:    strings.ReplaceAll(string(specData), "{{VERSION}}", version),
		version: version,
	}
}

// ServeSpec serves the OpenAPI document in YAML format
func (h *OpenAPIHandler) ServeSpec(c *gin.Context) {
	c.Data(http.StatusOK, "application/x-yaml", []byte(h.spec))
}

// ServeIndex serves discovery links for the API document
func (h *OpenAPIHandler) ServeIndex(c *gin.Context) {
	base := getScheme(c.Request) + "://" + c.Request.Host
	c.JSON(http.StatusOK, gin.H{
		"openapi": "3.0.3",
		"info": gin.H{
			"title":   "PantryChef API",
			"version": h.version,
		},
		"servers":  []gin.H{{"url": base + "/api/v1", "description": "Current server"}},
		"spec_url": base + "/api/v1/openapi.yaml",
	})
}

// getScheme determines the URL scheme from the request
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	return "http"
}
