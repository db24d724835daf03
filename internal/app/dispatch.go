package app

import (
	"fmt"
	"strings"

	"github.com/roach88/bookstore/internal/account"
	"github.com/roach88/bookstore/internal/audit"
	"github.com/roach88/bookstore/internal/catalog"
	"github.com/roach88/bookstore/internal/command"
	"github.com/roach88/bookstore/internal/money"
	"github.com/roach88/bookstore/internal/report"
)

// handler describes one command: argument bounds, the privilege it needs
// and the function that runs it.
type handler struct {
	minArgs, maxArgs int
	privilege        int
	run              func(a *App, args []string) error
}

var handlers = map[command.Op]handler{
	command.OpSu:             {1, 2, account.PrivilegeGuest, (*App).su},
	command.OpLogout:         {0, 0, account.PrivilegeCustomer, (*App).logout},
	command.OpRegister:       {3, 3, account.PrivilegeGuest, (*App).register},
	command.OpPasswd:         {2, 3, account.PrivilegeCustomer, (*App).passwd},
	command.OpUserAdd:        {4, 4, account.PrivilegeClerk, (*App).useradd},
	command.OpDelete:         {1, 1, account.PrivilegeRoot, (*App).deleteUser},
	command.OpShow:           {0, 1, account.PrivilegeCustomer, (*App).show},
	command.OpBuy:            {2, 2, account.PrivilegeCustomer, (*App).buy},
	command.OpSelect:         {1, 1, account.PrivilegeClerk, (*App).selectBook},
	command.OpModify:         {1, 5, account.PrivilegeClerk, (*App).modify},
	command.OpImport:         {2, 2, account.PrivilegeClerk, (*App).importBook},
	command.OpShowFinance:    {0, 1, account.PrivilegeRoot, (*App).showFinance},
	command.OpReportFinance:  {0, 0, account.PrivilegeRoot, (*App).reportFinance},
	command.OpReportEmployee: {0, 0, account.PrivilegeRoot, (*App).reportEmployee},
	command.OpLog:            {0, 0, account.PrivilegeRoot, (*App).showLog},
}

// Exec runs one protocol line. stop is true for quit and exit. A returned
// error is fatal; recoverable failures have already been reported.
func (a *App) Exec(line string) (stop bool, err error) {
	if command.Blank(line) {
		return false, nil
	}
	err = a.exec(line)
	switch {
	case err == errStop:
		return true, nil
	case err == nil:
		return false, nil
	case IsRejection(err):
		a.logger.Debug("command rejected", "error", err)
		return false, report.Rejection(a.out)
	default:
		return false, err
	}
}

func (a *App) exec(line string) error {
	cmd, err := command.Parse(line)
	if err != nil {
		return err
	}
	if cmd.Op == command.OpQuit || cmd.Op == command.OpExit {
		if len(cmd.Args) != 0 {
			return fmt.Errorf("%s: %w", cmd.Op, ErrArity)
		}
		return errStop
	}

	h, ok := handlers[cmd.Op]
	if !ok {
		return fmt.Errorf("%s: %w", cmd.Op, command.ErrUnknown)
	}
	if len(cmd.Args) < h.minArgs || len(cmd.Args) > h.maxArgs {
		return fmt.Errorf("%s: %d arguments: %w", cmd.Op, len(cmd.Args), ErrArity)
	}
	if a.sessions.Privilege() < h.privilege {
		return fmt.Errorf("%s: %w", cmd.Op, ErrPrivilege)
	}
	return h.run(a, cmd.Args)
}

// actor is the user acting on behalf of the current login.
func (a *App) actor() string {
	if top, ok := a.sessions.Top(); ok {
		return top.UserID
	}
	return ""
}

func (a *App) record(channel audit.Channel, actor string, action ...string) error {
	return a.audit.Record(channel, actor, strings.Join(action, " "))
}

func (a *App) su(args []string) error {
	id := args[0]
	var password *string
	if len(args) == 2 {
		password = &args[1]
	}
	u, err := a.accounts.Login(id, password, a.sessions.Privilege())
	if err != nil {
		return err
	}

	actor := a.actor()
	if actor == "" {
		actor = u.ID
	}
	ctx := a.sessions.Push(u.ID, u.Privilege)
	a.logger.Debug("login", "user_id", u.ID, "session", ctx.Token, "depth", a.sessions.Depth())
	return a.record(audit.System, actor, "su", u.ID)
}

func (a *App) logout([]string) error {
	ctx, err := a.sessions.Pop()
	if err != nil {
		return err
	}
	a.logger.Debug("logout", "user_id", ctx.UserID, "session", ctx.Token)
	return a.record(audit.System, ctx.UserID, "logout")
}

func (a *App) register(args []string) error {
	id, password, name := args[0], args[1], args[2]
	if err := a.accounts.Register(id, password, name); err != nil {
		return err
	}
	return a.record(audit.System, id, "register", id)
}

func (a *App) passwd(args []string) error {
	id := args[0]
	var old *string
	newPassword := args[1]
	if len(args) == 3 {
		old, newPassword = &args[1], args[2]
	}
	if err := a.accounts.ChangePassword(id, old, newPassword, a.sessions.Privilege()); err != nil {
		return err
	}
	return a.record(audit.System, a.actor(), "passwd", id)
}

func (a *App) useradd(args []string) error {
	id, password, name := args[0], args[1], args[3]
	privilege, err := command.ParsePrivilege(args[2])
	if err != nil {
		return err
	}
	if err := a.accounts.AddUser(id, password, privilege, name, a.sessions.Privilege()); err != nil {
		return err
	}
	return a.record(audit.System, a.actor(), "useradd", id, args[2])
}

func (a *App) deleteUser(args []string) error {
	id := args[0]
	if a.sessions.IsLoggedIn(id) {
		return fmt.Errorf("delete %q: %w", id, ErrLoggedIn)
	}
	if err := a.accounts.Delete(id); err != nil {
		return err
	}
	return a.record(audit.System, a.actor(), "delete", id)
}

func (a *App) show(args []string) error {
	var (
		books []catalog.Book
		err   error
	)
	if len(args) == 0 {
		books, err = a.books.All()
	} else {
		crit, perr := command.ParseCriterion(args[0])
		if perr != nil {
			return perr
		}
		switch crit.Field {
		case catalog.FieldISBN:
			books, err = a.books.ByISBN(crit.Value)
		case catalog.FieldName:
			books, err = a.books.ByName(crit.Value)
		case catalog.FieldAuthor:
			books, err = a.books.ByAuthor(crit.Value)
		case catalog.FieldKeyword:
			books, err = a.books.ByKeyword(crit.Value)
		}
	}
	if err != nil {
		return err
	}
	return report.Books(a.out, books)
}

func (a *App) buy(args []string) error {
	isbn := args[0]
	qty, err := command.ParseQuantity(args[1])
	if err != nil {
		return err
	}
	quote, err := a.books.Quote(isbn, qty)
	if err != nil {
		return err
	}
	if err := a.ledger.CheckIncome(quote.Decimal()); err != nil {
		return err
	}
	total, err := a.books.Buy(isbn, qty)
	if err != nil {
		return err
	}
	if err := a.ledger.AddIncome(total.Decimal()); err != nil {
		return err
	}
	if err := a.record(audit.Financial, a.actor(), "buy", isbn, args[1], total.String()); err != nil {
		return err
	}
	return report.Amount(a.out, total)
}

func (a *App) selectBook(args []string) error {
	c, err := a.books.Select(args[0])
	if err != nil {
		return err
	}
	if err := a.sessions.Select(c); err != nil {
		return err
	}
	return a.record(audit.System, a.actor(), "select", args[0])
}

func (a *App) selected() (catalog.Cursor, error) {
	top, ok := a.sessions.Top()
	if !ok {
		return catalog.NoCursor, catalog.ErrNoSelection
	}
	if !top.Selected.Valid() {
		return catalog.NoCursor, catalog.ErrNoSelection
	}
	return top.Selected, nil
}

func (a *App) modify(args []string) error {
	c, err := a.selected()
	if err != nil {
		return err
	}
	changes, err := command.ParseChanges(args)
	if err != nil {
		return err
	}
	if err := a.books.Modify(c, changes); err != nil {
		return err
	}
	return a.record(audit.System, a.actor(), append([]string{"modify"}, args...)...)
}

func (a *App) importBook(args []string) error {
	c, err := a.selected()
	if err != nil {
		return err
	}
	qty, err := command.ParseQuantity(args[0])
	if err != nil {
		return err
	}
	cost, err := command.ParseCost(args[1])
	if err != nil {
		return err
	}
	cents := money.FromDecimal(cost)
	if err := a.ledger.CheckExpense(cents.Decimal()); err != nil {
		return err
	}
	if err := a.books.Import(c, qty, cents); err != nil {
		return err
	}
	if err := a.ledger.AddExpense(cents.Decimal()); err != nil {
		return err
	}
	return a.record(audit.Financial, a.actor(), "import", args[0], cents.String())
}

func (a *App) showFinance(args []string) error {
	if len(args) == 0 {
		totals, err := a.ledger.ShowAll()
		if err != nil {
			return err
		}
		return report.Finance(a.out, totals)
	}
	n, err := command.ParseQuantity(args[0])
	if err != nil {
		return err
	}
	totals, err := a.ledger.ShowLast(n)
	if err != nil {
		return err
	}
	if n == 0 {
		return report.Blank(a.out)
	}
	return report.Finance(a.out, totals)
}

func (a *App) reportFinance([]string) error {
	s, err := a.ledger.Report()
	if err != nil {
		return err
	}
	return report.FinanceReport(a.out, s)
}

func (a *App) reportEmployee([]string) error {
	totals, err := a.audit.ByActor()
	if err != nil {
		return err
	}
	return report.Employees(a.out, totals)
}

func (a *App) showLog([]string) error {
	entries, err := a.audit.Replay()
	if err != nil {
		return err
	}
	return report.Log(a.out, entries)
}
