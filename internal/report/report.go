// Package report renders query results for the command protocol.
package report

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/bookstore/internal/audit"
	"github.com/roach88/bookstore/internal/catalog"
	"github.com/roach88/bookstore/internal/ledger"
	"github.com/roach88/bookstore/internal/money"
)

// Invalid is the single rejection line.
const Invalid = "Invalid"

var printer = message.NewPrinter(language.English)

// Rejection writes the rejection line.
func Rejection(w io.Writer) error {
	_, err := fmt.Fprintln(w, Invalid)
	return err
}

// Blank writes an empty line.
func Blank(w io.Writer) error {
	_, err := fmt.Fprintln(w)
	return err
}

// Amount writes one amount with two fractional digits.
func Amount(w io.Writer, c money.Cents) error {
	_, err := fmt.Fprintln(w, c.String())
	return err
}

// Books writes one tab-separated row per book, or an empty line when there
// are none.
func Books(w io.Writer, books []catalog.Book) error {
	if len(books) == 0 {
		return Blank(w)
	}
	bw := bufio.NewWriter(w)
	for _, b := range books {
		fmt.Fprintf(bw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			b.ISBN, b.Name, b.Author, b.Keywords, b.Price, b.Quantity)
	}
	return bw.Flush()
}

// Finance writes "+ income - expense".
func Finance(w io.Writer, t ledger.Totals) error {
	_, err := fmt.Fprintf(w, "+ %s - %s\n", t.Income, t.Expense)
	return err
}

// grouped formats c with thousands separators, e.g. "1,234.50".
func grouped(c money.Cents) string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%s.%02d", sign, printer.Sprintf("%d", v/100), v%100)
}

// FinanceReport writes the ledger summary.
func FinanceReport(w io.Writer, s ledger.Summary) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "FINANCE REPORT")
	printer.Fprintf(bw, "entries: %d\n", s.Entries)
	fmt.Fprintf(bw, "income: %s\n", grouped(s.Income))
	fmt.Fprintf(bw, "expense: %s\n", grouped(s.Expense))
	fmt.Fprintf(bw, "net: %s\n", grouped(s.Net))
	fmt.Fprintln(bw, "END")
	return bw.Flush()
}

// Employees writes per-actor audit counts: system, financial, total.
func Employees(w io.Writer, totals []audit.ActorTotals) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "EMPLOYEE REPORT")
	for _, t := range totals {
		fmt.Fprintf(bw, "%s %d %d %d\n", t.Actor, t.System, t.Financial, t.Total())
	}
	fmt.Fprintln(bw, "END")
	return bw.Flush()
}

// Log writes the audit trail in recording order.
func Log(w io.Writer, entries []audit.Entry) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "LOG")
	for _, e := range entries {
		fmt.Fprintf(bw, "%s %s %s\n", e.Actor, e.Channel, e.Action)
	}
	fmt.Fprintln(bw, "END")
	return bw.Flush()
}

// Trail writes audit entries with their timestamps, one per line.
func Trail(w io.Writer, entries []audit.Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		fmt.Fprintf(bw, "%s %s %s %s\n", e.Time.UTC().Format(time.RFC3339), e.Actor, e.Channel, e.Action)
	}
	return bw.Flush()
}
