package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SampleHandler serves the demonstration endpoints that sit behind the
// inspector. They exist so operators can exercise the detection pipeline with
// realistic traffic shapes; none of them touch real data.
type SampleHandler struct{}

// NewSampleHandler creates a new SampleHandler.
func NewSampleHandler() *SampleHandler {
	return &SampleHandler{}
}

// Users lists canned users.
func (h *SampleHandler) Users(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"users": []gin.H{
			{"id": 1, "name": "Alice Johnson", "email": "alice@example.com"},
			{"id": 2, "name": "Bob Smith", "email": "bob@example.com"},
			{"id": 3, "name": "Charlie Brown", "email": "charlie@example.com"},
		},
		"total": 3,
	})
}

// Login simulates a credential check.
func (h *SampleHandler) Login(c *gin.Context) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || payload.Username == "" || payload.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Login successful",
		"username": payload.Username,
		"token":    fmt.Sprintf("demo-token-%d", time.Now().UnixMilli()),
	})
}

// Search echoes the search query.
func (h *SampleHandler) Search(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"query": c.Query("q"),
		"results": []gin.H{
			{"id": 1, "title": "Result 1", "description": "First search result"},
			{"id": 2, "title": "Result 2", "description": "Second search result"},
		},
		"total": 2,
	})
}

// Comment accepts a comment body.
func (h *SampleHandler) Comment(c *gin.Context) {
	var payload struct {
		Comment string `json:"comment"`
	}
	_ = c.ShouldBindJSON(&payload)

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment posted successfully",
		"comment": payload.Comment,
		"id":      time.Now().UnixMilli(),
	})
}

// File simulates a file access endpoint.
func (h *SampleHandler) File(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "File access endpoint",
		"path":    c.Query("path"),
		"content": "File content would be here",
	})
}

// Exec simulates a command execution endpoint.
func (h *SampleHandler) Exec(c *gin.Context) {
	var payload struct {
		Cmd string `json:"cmd"`
	}
	_ = c.ShouldBindJSON(&payload)

	c.JSON(http.StatusOK, gin.H{
		"message": "Command execution endpoint (demo)",
		"command": payload.Cmd,
		"output":  "Command output would be here",
	})
}

// Upload simulates a file upload.
func (h *SampleHandler) Upload(c *gin.Context) {
	var payload struct {
		Filename string `json:"filename"`
	}
	_ = c.ShouldBindJSON(&payload)

	c.JSON(http.StatusOK, gin.H{
		"message":  "File upload endpoint (demo)",
		"filename": payload.Filename,
		"uploaded": true,
	})
}
