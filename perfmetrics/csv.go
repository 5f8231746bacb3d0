package perfmetrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// CsvHeader defines the CSV header for performance logging
const CsvHeader = "Timestamp,Host,Archive,Files,SizeMB,TimeSec,ThroughputMBps\n"

// CsvFileName is the file written inside the performance log directory
const CsvFileName = "archive_metrics.csv"

// Record is one archive download
type Record struct {
	Host     string
	Archive  string
	Files    int
	Bytes    int64
	Duration time.Duration
}

// ThroughputMBps returns the average download speed
func (r Record) ThroughputMBps() float64 {
	secs := r.Duration.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(r.Bytes) / (1024 * 1024) / secs
}

// LogArchiveToCSV appends a record to the CSV file in dir
func LogArchiveToCSV(dir string, rec Record) error {
	// Ensure the log directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	filePath := filepath.Join(dir, CsvFileName)

	// Check if file exists to determine if we need to write header
	fileExists := true
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		fileExists = false
	}

	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	if !fileExists {
		if _, err := file.WriteString(CsvHeader); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	record := []string{
		time.Now().Format(time.RFC3339),
		rec.Host,
		rec.Archive,
		strconv.Itoa(rec.Files),
		strconv.FormatFloat(float64(rec.Bytes)/(1024*1024), 'f', 2, 64),
		strconv.FormatFloat(rec.Duration.Seconds(), 'f', 2, 64),
		strconv.FormatFloat(rec.ThroughputMBps(), 'f', 2, 64),
	}
	if err := writer.Write(record); err != nil {
		return fmt.Errorf("failed to write CSV record: %w", err)
	}

	// Ensure data is written to disk
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}
