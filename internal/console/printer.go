package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/Leganyst/nurse-connect/internal/model"
)

// Printer — общий вывод консоли. Уведомления приходят и из фоновых
// горутин (отправка подтверждений), поэтому запись под мьютексом.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) Printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func (p *Printer) Println(args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, args...)
}

// Notify печатает уведомление как тост: "* Title: description".
func (p *Printer) Notify(n model.Notice) {
	mark := "*"
	if n.Destructive {
		mark = "!"
	}
	p.Printf("%s %s: %s\n", mark, n.Title, n.Description)
}
