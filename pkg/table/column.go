package table

// Column maps an internal field name to its display label.
type Column struct {
	Field string `yaml:"field" json:"field" validate:"required"`
	Label string `yaml:"label" json:"label" validate:"required"`
}

// Zone highlights a contiguous rank range, such as the qualification or
// relegation places of a league table.
type Zone struct {
	From  int    `yaml:"from" json:"from" validate:"min=1"`
	To    int    `yaml:"to" json:"to" validate:"gtefield=From"`
	Label string `yaml:"label" json:"label" validate:"required"`
	Color string `yaml:"color" json:"color" validate:"required"`
}

// Contains reports whether rank falls inside the zone.
func (z Zone) Contains(rank int) bool {
	return rank >= z.From && rank <= z.To
}

// ZoneFor returns the first zone containing rank.
func ZoneFor(zones []Zone, rank int) (Zone, bool) {
	for _, z := range zones {
		if z.Contains(rank) {
			return z, true
		}
	}
	return Zone{}, false
}

// ColumnsFor builds columns for fields without declared labels, using the
// field name as the label.
func ColumnsFor(fields []string) []Column {
	cols := make([]Column, len(fields))
	for i, f := range fields {
		cols[i] = Column{Field: f, Label: f}
	}
	return cols
}

// CloneRows deep-copies a row slice.
func CloneRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
