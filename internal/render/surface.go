package render

// NodeID identifies a node mounted on a Surface. Zero is never issued.
type NodeID uint64

// CellMarkup is everything a surface needs to draw one cell. Left and Width
// are measured inside the cell's pane.
type CellMarkup struct {
	Row     int
	Col     int
	Colspan int
	Pane    int
	Left    int
	Width   int
	Text    string
	Class   string
}

// RowMarkup describes one row to mount. Cells holds one slice per pane,
// pinned pane first when the grid has one.
type RowMarkup struct {
	Row   int
	Top   int
	Class string
	Cells [][]CellMarkup
}

// Surface is the host the cache mounts visual nodes on. A row is one node
// per pane; cells are children of a row node kept in insertion order.
type Surface interface {
	// MountRows mounts a batch of rows in one pass and returns the row nodes
	// of each, in the order given.
	MountRows(rows []RowMarkup) [][]NodeID
	UnmountRow(row NodeID)
	// HideRow keeps a row node mounted but invisible.
	HideRow(row NodeID)
	MoveRow(row NodeID, top int)
	// AppendCells adds cells after the existing children of row.
	AppendCells(row NodeID, cells []CellMarkup) []NodeID
	// Children returns the cell nodes of row in order.
	Children(row NodeID) []NodeID
	RemoveCell(row, cell NodeID)
	UpdateCell(cell NodeID, m CellMarkup)
	CellMarkup(cell NodeID) (CellMarkup, bool)
}
