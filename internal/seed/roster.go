package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/albapepper/swiss-tournament/internal/model"
)

// Registrar is the part of the tournament service an import needs.
type Registrar interface {
	RegisterPlayer(ctx context.Context, name string) (model.PlayerID, string, error)
}

// ImportRoster registers one player per CSV row. The first column is the
// player name; other columns are ignored. A first row whose name cell is
// "name" is treated as a header and rows with an empty name are skipped.
// There is no comment syntax: a row starting with '#' is a player name.
// Row failures are collected and the import continues; a read error or a
// cancelled context stops it.
func ImportRoster(ctx context.Context, reg Registrar, r io.Reader, logger *slog.Logger) Result {
	var result Result

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	row := 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			result.AddErrorf("row %d: %v", row, err)
			break
		}
		if ctx.Err() != nil {
			result.AddErrorf("import cancelled at row %d: %v", row, ctx.Err())
			break
		}

		name := ""
		if len(record) > 0 {
			name = strings.TrimSpace(record[0])
		}
		if row == 1 && strings.EqualFold(name, "name") {
			continue
		}
		result.RowsRead++
		if name == "" {
			result.Skipped++
			continue
		}

		id, stored, err := reg.RegisterPlayer(ctx, name)
		if err != nil {
			result.AddErrorf("row %d (%q): %v", row, name, err)
			continue
		}
		result.Registered++
		logger.Debug("Roster player registered", "row", row, "id", id, "name", stored)
	}

	logger.Info("Roster import complete", "summary", result.Summary())
	return result
}
