// Package console реализует построчный интерфейс к мастеру записи, входу и админке.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Leganyst/nurse-connect/internal/calendar"
	"github.com/Leganyst/nurse-connect/internal/catalog"
	"github.com/Leganyst/nurse-connect/internal/model"
	"github.com/Leganyst/nurse-connect/internal/service"
)

const helpText = `commands:
  categories                      list service categories
  services [category]             list services, optionally of one category
  service <id>                    choose a service
  dates                           list bookable dates
  date <YYYY-MM-DD>               choose a date and show its slots
  slot <HH:MM>                    choose a time slot
  details key=value ...           fill contact details (name, email, phone, dob, new, notes)
  next                            continue to the next step
  back                            go back one step
  submit                          confirm the booking
  show                            show the current step and draft
  reset                           start a new booking
  history                         show your bookings
  register <name> <email> <password>
  login <email> <password>
  logout
  whoami
  admin [status] [page]           booking counts, or bookings with a status
  status <booking-id> <status>    change a booking status
  quit`

type Deps struct {
	Catalog  *catalog.Provider
	Identity *service.IdentityService
	Session  *service.BookingSession
	Admin    *service.AdminService
}

type Console struct {
	catalog  *catalog.Provider
	identity *service.IdentityService
	session  *service.BookingSession
	admin    *service.AdminService
	out      *Printer
	log      zerolog.Logger
}

func New(deps Deps, out *Printer, log zerolog.Logger) *Console {
	return &Console{
		catalog:  deps.Catalog,
		identity: deps.Identity,
		session:  deps.Session,
		admin:    deps.Admin,
		out:      out,
		log:      log,
	}
}

// Run читает команды построчно, пока не закончится ввод, не придёт quit
// или не отменят ctx.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	c.out.Println("Welcome! Type 'help' for commands.")
	c.prompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			if quit := c.Exec(ctx, line); quit {
				return nil
			}
			c.prompt()
		}
	}
}

func (c *Console) prompt() {
	c.out.Printf("[%s] > ", c.session.Step())
}

// Exec выполняет одну команду. Возвращает true на quit.
func (c *Console) Exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	var err error
	switch cmd {
	case "help", "?":
		c.out.Println(helpText)
	case "quit", "exit":
		return true
	case "categories":
		c.showCategories()
	case "services":
		c.showServices(strings.Join(args, " "))
	case "service":
		err = c.selectService(args)
	case "dates":
		c.showDates()
	case "date":
		err = c.selectDate(ctx, args)
	case "slot":
		err = c.selectSlot(args)
	case "details":
		err = c.updateDetails(args)
	case "next":
		err = c.next(ctx)
	case "back":
		err = c.session.Back(ctx)
		if err == nil {
			c.showStep()
		}
	case "submit":
		err = c.submit(ctx)
	case "show":
		c.showStep()
	case "reset":
		err = c.session.Reset()
		if err == nil {
			c.showStep()
		}
	case "history":
		c.session.ViewHistory()
		c.showHistory()
	case "register":
		err = c.register(ctx, args)
	case "login":
		err = c.login(ctx, args)
	case "logout":
		err = c.identity.Logout(ctx)
	case "whoami":
		c.whoami()
	case "admin":
		err = c.adminList(args)
	case "status":
		err = c.changeStatus(ctx, args)
	default:
		err = fmt.Errorf("unknown command %q, type 'help'", cmd)
	}

	if err != nil {
		c.report(err)
	}
	return false
}

func (c *Console) report(err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		keys := make([]string, 0, len(ve.Fields))
		for k := range ve.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		c.out.Println("please fix the following:")
		for _, k := range keys {
			c.out.Printf("  %s: %s\n", k, ve.Fields[k])
		}
	case service.IsAuthError(err):
		// уже показано уведомлением
	default:
		c.out.Printf("error: %v\n", err)
	}
	c.log.Debug().Err(err).Msg("command failed")
}

func (c *Console) showCategories() {
	for _, cat := range c.catalog.ListCategories() {
		c.out.Println(cat)
	}
}

func (c *Console) showServices(category string) {
	cats := c.catalog.ListCategories()
	if category != "" {
		cats = []string{category}
	}
	for _, cat := range cats {
		list := c.catalog.ListServices(cat)
		if len(list) == 0 {
			c.out.Printf("no services in %q\n", cat)
			continue
		}
		c.out.Printf("%s:\n", cat)
		for _, s := range list {
			c.out.Printf("  %s. %s (%d min, $%.2f) %s\n", s.ID, s.Name, s.Duration, s.Price, s.Description)
		}
	}
}

func (c *Console) selectService(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: service <id>")
	}
	if err := c.session.SelectService(args[0]); err != nil {
		return err
	}
	d := c.session.Draft()
	c.out.Printf("selected %s, type 'next' to pick a date\n", d.Service.Name)
	return nil
}

func (c *Console) showDates() {
	today := c.catalog.Today()
	for _, d := range c.catalog.ListBookableDates() {
		if d.Equal(today) {
			c.out.Printf("%s %s (today)\n", d.Format(time.DateOnly), d.Format("Mon"))
			continue
		}
		c.out.Printf("%s %s\n", d.Format(time.DateOnly), d.Format("Mon"))
	}
}

func (c *Console) selectDate(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: date <YYYY-MM-DD>")
	}
	day, err := time.ParseInLocation(time.DateOnly, args[0], c.catalog.Location())
	if err != nil {
		return fmt.Errorf("bad date %q: %w", args[0], err)
	}
	slots, err := c.session.SelectDate(ctx, day)
	if err != nil {
		return err
	}
	c.printSlots(slots)
	if ts := c.session.Draft().TimeSlot; ts != nil {
		c.out.Printf("keeping your %s slot\n", ts.StartTime)
	}
	return nil
}

func (c *Console) printSlots(slots []model.TimeSlot) {
	if len(slots) == 0 {
		c.out.Println("no time slots left on this date")
		return
	}
	for _, s := range slots {
		state := "available"
		if !s.Available {
			state = "booked"
		}
		c.out.Printf("  %s-%s %s\n", s.StartTime, s.EndTime, state)
	}
}

func (c *Console) selectSlot(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: slot <HH:MM>")
	}
	if err := c.session.SelectSlot(args[0]); err != nil {
		return err
	}
	c.out.Printf("selected %s, type 'next' to enter your details\n", args[0])
	return nil
}

var detailKeys = map[string]bool{
	"name": true, "email": true, "phone": true, "dob": true, "new": true, "notes": true,
}

// parseDetails разбирает "name=Jane Doe email=jane@example.com": значение
// продолжается до следующего известного ключа.
func parseDetails(args []string) (map[string]string, error) {
	out := map[string]string{}
	var key string
	for _, tok := range args {
		if k, v, ok := strings.Cut(tok, "="); ok && detailKeys[strings.ToLower(k)] {
			key = strings.ToLower(k)
			out[key] = v
			continue
		}
		if key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", tok)
		}
		out[key] += " " + tok
	}
	return out, nil
}

func contactFromDraft(d model.BookingDetails) service.ContactDetails {
	return service.ContactDetails{
		CustomerName:  d.CustomerName,
		CustomerEmail: d.CustomerEmail,
		CustomerPhone: d.CustomerPhone,
		DateOfBirth:   d.DateOfBirth,
		IsNewPatient:  d.IsNewPatient,
		Notes:         d.Notes,
	}
}

func (c *Console) updateDetails(args []string) error {
	values, err := parseDetails(args)
	if err != nil {
		return err
	}
	details := contactFromDraft(c.session.Draft())
	for k, v := range values {
		switch k {
		case "name":
			details.CustomerName = v
		case "email":
			details.CustomerEmail = v
		case "phone":
			details.CustomerPhone = v
		case "dob":
			details.DateOfBirth = v
		case "notes":
			details.Notes = v
		case "new":
			b, err := parseYesNo(v)
			if err != nil {
				return err
			}
			details.IsNewPatient = &b
		}
	}
	if err := c.session.UpdateDetails(details); err != nil {
		return err
	}
	c.showDraft(c.session.Draft())
	return nil
}

func parseYesNo(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("new: expected yes or no, got %q", s)
	}
	return b, nil
}

func (c *Console) next(ctx context.Context) error {
	var err error
	switch c.session.Step() {
	case model.StepService:
		err = c.session.ContinueToDateTime(ctx)
	case model.StepDateTime:
		err = c.session.ContinueToDetails()
	case model.StepDetails:
		return c.submit(ctx)
	default:
		return service.ErrInvalidStep
	}
	if err != nil {
		return err
	}
	c.showStep()
	return nil
}

func (c *Console) submit(ctx context.Context) error {
	booking, err := c.session.Submit(ctx, contactFromDraft(c.session.Draft()))
	if err != nil {
		return err
	}
	c.out.Println("Booking confirmed!")
	c.showBooking(booking)
	c.out.Println("type 'reset' to book another appointment or 'history' to see your bookings")
	return nil
}

func (c *Console) showStep() {
	step := c.session.Step()
	d := c.session.Draft()
	c.out.Printf("step: %s\n", step)
	c.showDraft(d)
	if step == model.StepDateTime && d.Date != nil {
		c.printSlots(c.session.Slots())
	}
}

func (c *Console) showDraft(d model.BookingDetails) {
	if d.Service != nil {
		c.out.Printf("  service: %s\n", d.Service.Name)
	}
	if d.Date != nil {
		c.out.Printf("  date:    %s\n", d.Date.Format("Monday, January 2, 2006"))
	}
	if d.TimeSlot != nil {
		c.out.Printf("  time:    %s-%s\n", d.TimeSlot.StartTime, d.TimeSlot.EndTime)
	}
	for _, f := range []struct{ label, value string }{
		{"name", d.CustomerName},
		{"email", d.CustomerEmail},
		{"phone", d.CustomerPhone},
		{"dob", d.DateOfBirth},
		{"notes", d.Notes},
	} {
		if f.value != "" {
			c.out.Printf("  %-8s %s\n", f.label+":", f.value)
		}
	}
	if d.IsNewPatient != nil {
		c.out.Printf("  new:     %t\n", *d.IsNewPatient)
	}
}

func (c *Console) showBooking(b model.BookingDetails) {
	c.out.Printf("  booking id: %s\n", b.ID)
	c.out.Printf("  status:     %s\n", b.Status)
	if b.Service != nil {
		c.out.Printf("  service:    %s\n", b.Service.Name)
	}
	if when, ok := c.bookingTime(b); ok {
		c.out.Printf("  when:       %s\n", when)
	}
	c.out.Printf("  name:       %s\n", b.CustomerName)
	c.out.Printf("  email:      %s\n", b.CustomerEmail)
}

// bookingTime форматирует дату и слот записи: "Tuesday, March 11, 2025, 09:00–09:30".
func (c *Console) bookingTime(b model.BookingDetails) (string, bool) {
	if b.Date == nil || b.TimeSlot == nil {
		return "", false
	}
	loc := c.catalog.Location()
	day := b.Date.In(loc)
	start, err1 := time.ParseInLocation(model.TimeSlotLayout, b.TimeSlot.StartTime, loc)
	end, err2 := time.ParseInLocation(model.TimeSlotLayout, b.TimeSlot.EndTime, loc)
	if err1 != nil || err2 != nil {
		return "", false
	}
	at := func(t time.Time) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc)
	}
	tr, err := calendar.NewTimeRange(at(start), at(end))
	if err != nil {
		return "", false
	}
	return calendar.FormatSlotForUser(tr, loc), true
}

func (c *Console) showHistory() {
	if !c.identity.AuthState().IsAuthenticated {
		c.out.Println("log in to see your booking history")
		return
	}
	list := c.session.History()
	if len(list) == 0 {
		c.out.Println("no bookings yet")
		return
	}
	for _, b := range list {
		c.showBooking(b)
		c.out.Println()
	}
}

func (c *Console) register(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return errors.New("usage: register <name> <email> <password>")
	}
	n := len(args)
	_, err := c.identity.Register(ctx, strings.Join(args[:n-2], " "), args[n-2], args[n-1])
	return err
}

func (c *Console) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: login <email> <password>")
	}
	_, err := c.identity.Login(ctx, args[0], args[1])
	return err
}

func (c *Console) whoami() {
	state := c.identity.AuthState()
	if !state.IsAuthenticated {
		c.out.Println("not logged in")
		return
	}
	u := state.User
	c.out.Printf("%s <%s> (%s), %d booking(s)\n", u.Name, u.Email, u.ID, len(u.Bookings))
}

func (c *Console) adminList(args []string) error {
	if len(args) == 0 {
		counts := c.admin.Counts()
		for _, st := range model.BookingStatuses {
			c.out.Printf("  %-10s %d\n", st, counts[st])
		}
		return nil
	}

	status := model.BookingStatus(strings.ToLower(args[0]))
	page := 1
	if len(args) > 1 {
		p, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("bad page %q", args[1])
		}
		page = p
	}

	res, err := c.admin.ListByStatus(status, page, calendar.DefaultPageSize)
	if err != nil {
		return err
	}
	if res.Total == 0 {
		c.out.Printf("no %s bookings\n", status)
		return nil
	}
	for _, ob := range res.Items {
		b := ob.Booking
		when, _ := c.bookingTime(b)
		name := ""
		if b.Service != nil {
			name = b.Service.Name
		}
		c.out.Printf("  %s  %s  %s  %s <%s>\n", b.ID, when, name, ob.UserName, ob.UserEmail)
	}
	c.out.Printf("page %d of %d (%d total)\n", res.Page, res.Pages, res.Total)
	return nil
}

func (c *Console) changeStatus(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: status <booking-id> <status>")
	}
	_, err := c.admin.ChangeStatus(ctx, args[0], model.BookingStatus(strings.ToLower(args[1])))
	return err
}
