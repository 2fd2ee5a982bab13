package ranking

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talent-scorer/internal/resume"
	"github.com/spigell/talent-scorer/internal/store"
)

// CandidateHeader is the column layout of the exported candidate table.
var CandidateHeader = []string{ColumnName, "Email", "Phone", "Location", "Summary", "Skills"}

// CandidateTable flattens stored candidates for export and merging. Candidates whose
// record cannot be decoded keep their stored columns and empty details.
func CandidateTable(candidates []store.Candidate, logger *zap.Logger) *Table {
	if logger == nil {
		logger = zap.NewNop()
	}

	t := &Table{Header: append([]string(nil), CandidateHeader...)}
	for _, c := range candidates {
		var record resume.Record
		if len(c.Record) > 0 {
			if err := json.Unmarshal(c.Record, &record); err != nil {
				logger.Warn("cannot decode stored resume record", zap.String("email", c.Email), zap.Error(err))
			}
		}

		t.Rows = append(t.Rows, []string{
			c.Name,
			c.Email,
			c.Phone,
			record.Location,
			record.Summary,
			strings.Join(record.Skills(), ", "),
		})
	}
	return t
}
