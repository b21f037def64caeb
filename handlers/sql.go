package handlers

import (
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"querydesk/service"

	"github.com/gin-gonic/gin"
)

// maxSQLFileSize bounds reference uploads; they end up inside LLM prompts.
const maxSQLFileSize = 1 << 20

// UploadSQLFileHandler uploads a SQL file as reference
// @Summary      Upload SQL reference file
// @Description  Upload a SQL file that will be used as reference when generating SQL for record queries
// @Tags         SQL Files
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "SQL file to upload"
// @Success      200   {object}  map[string]string  "File uploaded successfully"
// @Failure      400   {object}  map[string]string  "No file provided"
// @Failure      500   {object}  map[string]string  "Failed to store file"
// @Router       /api/sql/upload [post]
func (h *Handlers) UploadSQLFileHandler(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	name := filepath.Base(file.Filename)
	if !strings.HasSuffix(strings.ToLower(name), ".sql") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only .sql files are accepted"})
		return
	}
	if file.Size > maxSQLFileSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is too large"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open file"})
		return
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}

	if err := h.db.StoreSQLFile(name, string(content)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store SQL file"})
		return
	}

	if h.sqlFilesDir != "" {
		if err := os.WriteFile(filepath.Join(h.sqlFilesDir, name), content, 0644); err != nil {
			log.Printf("Warning: Failed to save file to filesystem: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "SQL file uploaded successfully", "filename": name})
}

// ListSQLFilesHandler lists all stored SQL reference files
// @Summary      List SQL reference files
// @Tags         SQL Files
// @Produce      json
// @Success      200  {object}  map[string][]string  "List of SQL file names"
// @Failure      500  {object}  map[string]string    "Failed to load files"
// @Router       /api/sql/files [get]
func (h *Handlers) ListSQLFilesHandler(c *gin.Context) {
	sqlFiles, err := h.db.GetSQLFiles()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load SQL files"})
		return
	}

	names := make([]string, len(sqlFiles))
	for i, f := range sqlFiles {
		names[i] = f.Name
	}

	c.JSON(http.StatusOK, gin.H{"files": names})
}

// ExecuteSQLHandler executes a read-only SQL query against SQL Server
// @Summary      Execute SQL query
// @Description  Execute a SELECT against the configured SQL Server and optionally save the results
// @Tags         SQL Execution
// @Accept       json
// @Produce      json
// @Param        request  body      object             true  "SQL execution request"  example({"sql": "SELECT * FROM student", "save": true, "format": "json"})
// @Success      200      {object}  models.SQLResult   "Query execution result"
// @Failure      400      {object}  map[string]string  "Invalid request"
// @Failure      503      {object}  map[string]string  "SQL Server not configured"
// @Failure      500      {object}  map[string]string  "Query execution error"
// @Router       /api/sql/execute [post]
func (h *Handlers) ExecuteSQLHandler(c *gin.Context) {
	var req struct {
		SQL    string `json:"sql" example:"SELECT * FROM student"`
		Save   bool   `json:"save" example:"true"`
		Format string `json:"format" example:"json"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.SQL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !service.IsReadOnly(req.SQL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only SELECT statements are allowed"})
		return
	}
	if h.sqlService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "SQL Server service is not configured"})
		return
	}

	result, err := h.sqlService.ExecuteQuery(c.Request.Context(), req.SQL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if req.Save && h.results != nil {
		format := service.FormatJSON
		if req.Format == service.FormatCSV {
			format = service.FormatCSV
		}
		if name, err := h.results.Save(result, req.SQL, format); err != nil {
			log.Printf("[SQL] Error saving result: %v", err)
		} else {
			result.Filename = name
		}
	}

	c.JSON(http.StatusOK, result)
}
