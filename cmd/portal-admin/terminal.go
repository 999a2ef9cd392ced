package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/noah-isme/bk-portal-api/internal/console"
)

// termTable prints the final rows of a load. Loading placeholders are skipped.
type termTable struct {
	out     io.Writer
	columns []string
	failed  bool
	rows    int
}

func newTermTable(out io.Writer, spec console.ViewSpec) *termTable {
	return &termTable{out: out, columns: spec.Columns}
}

func (t *termTable) RenderRows(rows []console.Row) {
	if len(rows) > 0 && rows[0].Kind == console.RowLoading {
		return
	}
	t.failed = false
	t.rows = 0
	if len(rows) == 1 && rows[0].Kind != console.RowData {
		t.failed = rows[0].Kind == console.RowError
		fmt.Fprintln(t.out, strings.Join(rows[0].Cells, " "))
		return
	}
	w := tabwriter.NewWriter(t.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\t"+strings.Join(t.columns, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, row.ID+"\t"+strings.Join(row.Cells, "\t"))
		t.rows++
	}
	_ = w.Flush()
}

func (t *termTable) RenderPager(p console.Pager) {
	fmt.Fprintln(t.out, p.Label)
}

// termNotifier writes notifications to stderr and remembers whether any error was shown.
type termNotifier struct {
	mu     sync.Mutex
	out    io.Writer
	errors int
}

func (n *termNotifier) Notify(level console.Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if level == console.LevelError {
		n.errors++
	}
	fmt.Fprintf(n.out, "[%s] %s\n", level, message)
}

func (n *termNotifier) failed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.errors > 0
}

// promptConfirmer asks on the terminal; anything but y/ya/yes declines.
type promptConfirmer struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

func (p *promptConfirmer) Confirm(message string) bool {
	if p.assumeYes {
		return true
	}
	fmt.Fprintf(p.out, "%s [y/N]: ", message)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "ya", "yes":
		return true
	}
	return false
}

// kpiLine collects counters and prints them in a fixed order.
type kpiLine struct {
	mu     sync.Mutex
	values map[string]int
}

func (k *kpiLine) SetKPI(metric string, value int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.values == nil {
		k.values = make(map[string]int)
	}
	k.values[metric] = value
}

func (k *kpiLine) write(out io.Writer) {
	k.mu.Lock()
	defer k.mu.Unlock()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, metric := range console.KPIMetrics {
		value, ok := k.values[metric]
		if !ok {
			fmt.Fprintf(w, "%s\t%s\n", metric, console.NotAvailable)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\n", metric, value)
	}
	_ = w.Flush()
}
