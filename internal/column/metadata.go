package column

// Colspan is the number of columns a cell covers. ColspanRest ("*") spans
// the remaining columns of the cell's pinned region.
type Colspan int

// ColspanRest marks a cell spanning to the end of its region.
const ColspanRest Colspan = -1

// CellMetadata overrides rendering for one cell of a row.
type CellMetadata struct {
	Colspan   Colspan
	Formatter Formatter
	Focusable *bool
	Editor    EditorFactory
}

// Metadata overrides rendering and interaction for a whole row. Nil pointer
// flags inherit the column settings.
type Metadata struct {
	Selectable *bool
	Focusable  *bool
	Formatter  Formatter
	CSSClasses string
	// Columns is keyed by column id; ColumnsByIndex by position.
	Columns        map[string]CellMetadata
	ColumnsByIndex map[int]CellMetadata
}

// Cell returns the override for the column at idx with id, by id first.
func (m *Metadata) Cell(idx int, id string) (CellMetadata, bool) {
	if m == nil {
		return CellMetadata{}, false
	}
	if c, ok := m.Columns[id]; ok {
		return c, true
	}
	c, ok := m.ColumnsByIndex[idx]
	return c, ok
}

// Bool returns a pointer to b, for metadata flags.
func Bool(b bool) *bool {
	return &b
}
