package service

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"querydesk/models"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// ResultsStorage keeps executed query results as JSON or CSV files.
type ResultsStorage struct {
	dir string
	now func() time.Time
}

func NewResultsStorage(dir string) (*ResultsStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	return &ResultsStorage{dir: dir, now: time.Now}, nil
}

func (r *ResultsStorage) fileName(format string) string {
	return fmt.Sprintf("result_%s_%s.%s", r.now().Format("20060102_150405"), uuid.New().String()[:8], format)
}

// Save writes result in the given format (json unless "csv") and returns the file name.
func (r *ResultsStorage) Save(result *models.SQLResult, query, format string) (string, error) {
	if format == FormatCSV {
		return r.saveCSV(result)
	}
	return r.saveJSON(result, query)
}

func (r *ResultsStorage) saveJSON(result *models.SQLResult, query string) (string, error) {
	filename := r.fileName(FormatJSON)

	data, err := json.MarshalIndent(models.ResultFile{
		Filename:  filename,
		Query:     query,
		Timestamp: r.now().Format(time.RFC3339),
		Columns:   result.Columns,
		Rows:      result.Rows,
		RowCount:  len(result.Rows),
		Error:     result.Error,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(filepath.Join(r.dir, filename), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}
	return filename, nil
}

func (r *ResultsStorage) saveCSV(result *models.SQLResult) (string, error) {
	filename := r.fileName(FormatCSV)

	file, err := os.Create(filepath.Join(r.dir, filename))
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(result.Columns); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range result.Rows {
		record := make([]string, len(row))
		for i, val := range row {
			if val != nil {
				record[i] = fmt.Sprintf("%v", val)
			}
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}
	return filename, nil
}

// Get loads a stored result. CSV cells come back as strings; empty cells as nil.
func (r *ResultsStorage) Get(filename string) (*models.ResultFile, error) {
	if filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return nil, fmt.Errorf("invalid result file name %q", filename)
	}
	path := filepath.Join(r.dir, filename)

	switch filepath.Ext(filename) {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		var result models.ResultFile
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
		}
		return &result, nil

	case ".csv":
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV file: %w", err)
		}
		defer file.Close()

		records, err := csv.NewReader(file).ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		info, _ := file.Stat()

		result := &models.ResultFile{Filename: filename, Columns: []string{}, Rows: [][]interface{}{}}
		if info != nil {
			result.Timestamp = info.ModTime().Format(time.RFC3339)
		}
		if len(records) == 0 {
			return result, nil
		}
		result.Columns = records[0]
		for _, rec := range records[1:] {
			row := make([]interface{}, len(rec))
			for i, v := range rec {
				if v != "" {
					row[i] = v
				}
			}
			result.Rows = append(result.Rows, row)
		}
		result.RowCount = len(result.Rows)
		return result, nil
	}

	return nil, fmt.Errorf("unsupported file format")
}

// List returns stored result files, newest first.
func (r *ResultsStorage) List() ([]models.ResultFileInfo, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read results directory: %w", err)
	}

	files := []models.ResultFileInfo{}
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".json" && ext != ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, models.ResultFileInfo{
			Filename: e.Name(),
			Size:     info.Size(),
			Modified: info.ModTime().Format(time.RFC3339),
			Format:   ext[1:],
		})
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].Modified > files[j].Modified })
	return files, nil
}
