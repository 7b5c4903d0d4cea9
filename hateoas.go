package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Link is a single HATEOAS navigation entry.
type Link struct {
	Href        string `json:"href"`
	Rel         string `json:"rel"`
	Method      string `json:"method,omitempty"`
	Description string `json:"description,omitempty"`
}

// apiRootHandler is the API entry point: a map of navigational links so a
// client can discover the auth endpoints without prior knowledge.
func apiRootHandler(c *gin.Context) {
	links := map[string]Link{
		"self": {
			Href:        c.Request.URL.Path,
			Rel:         "self",
			Method:      http.MethodGet,
			Description: "current resource",
		},
		"register": {
			Href:        "/api/v1/auth/register",
			Rel:         "auth",
			Method:      http.MethodPost,
			Description: "register user",
		},
		"login": {
			Href:        "/api/v1/auth/login",
			Rel:         "auth",
			Method:      http.MethodPost,
			Description: "login user",
		},
		"refresh": {
			Href:        "/api/v1/auth/refresh",
			Rel:         "auth",
			Method:      http.MethodPost,
			Description: "refresh access token",
		},
		"logout": {
			Href:        "/api/v1/auth/logout",
			Rel:         "auth",
			Method:      http.MethodPost,
			Description: "logout user",
		},
	}
	c.JSON(http.StatusOK, gin.H{"_links": links})
}
