package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/isdelr/resume-bot-be/internal/common"
	"github.com/isdelr/resume-bot-be/internal/models"
)

var historyHeader = []string{"Date", "Filename", "Target Role", "Score", "Status"}

// StatusCompleted is the status of every stored analysis.
const StatusCompleted = "Completed"

// WriteHistoryCSV writes records as a CSV download.
func WriteHistoryCSV(w io.Writer, records []models.FeedbackRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(historyHeader); err != nil {
		return fmt.Errorf("%w: %v", common.ErrExportGeneration, err)
	}
	for _, r := range records {
		row := []string{
			r.CreatedAt.UTC().Format("2006-01-02"),
			r.Filename,
			r.TargetRole,
			strconv.Itoa(r.Score),
			StatusCompleted,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("%w: %v", common.ErrExportGeneration, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrExportGeneration, err)
	}
	return nil
}
