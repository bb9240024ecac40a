package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/suar-net/suar-api/internal/model"
)

var csvHeader = []string{"ID", "Method", "URL", "Status", "Response Time", "Timestamp", "Collection"}

// WriteCSV writes records as comma separated rows. Fields are not quoted or
// escaped, so a comma inside a URL or collection shifts that row's columns.
func WriteCSV(w io.Writer, records []model.HistoryRecord) error {
	rows := make([]string, 0, len(records)+1)
	rows = append(rows, strings.Join(csvHeader, ","))
	for _, r := range records {
		rows = append(rows, strings.Join([]string{
			fmt.Sprint(r.ID),
			r.Method,
			r.URL,
			fmt.Sprint(r.Status),
			fmt.Sprint(r.ResponseTime),
			r.Timestamp.UTC().Format(time.RFC3339Nano),
			r.Collection,
		}, ","))
	}
	_, err := io.WriteString(w, strings.Join(rows, "\n"))
	return err
}
