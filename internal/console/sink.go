package console

// RowKind distinguishes data rows from placeholders.
type RowKind int

const (
	RowData RowKind = iota
	RowLoading
	RowError
	RowEmpty
)

// FileRef points at a stored object owned by a row.
type FileRef struct {
	Bucket string
	Path   string
}

// Action is a per-row command.
type Action struct {
	Name  string
	ID    string
	Files []FileRef
}

// Row is one rendered table line.
type Row struct {
	Kind    RowKind
	ID      string
	Cells   []string
	Actions []Action
}

// Level is a notification severity.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// TableSink receives rendered rows and pager state. Implementations must not
// call back into the controller.
type TableSink interface {
	RenderRows(rows []Row)
	RenderPager(p Pager)
}

// Notifier shows non-blocking messages.
type Notifier interface {
	Notify(level Level, message string)
}

// Confirmer asks the operator to approve a destructive or privileged action.
type Confirmer interface {
	Confirm(message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(message string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(message string) bool {
	return f(message)
}

// LoadingRows returns n skeleton rows.
func LoadingRows(n, columns int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{Kind: RowLoading, Cells: make([]string, columns)}
	}
	return rows
}

// MessageRow returns a single placeholder row carrying text.
func MessageRow(kind RowKind, text string) Row {
	return Row{Kind: kind, Cells: []string{text}}
}
