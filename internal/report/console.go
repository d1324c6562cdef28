package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/systmms/stackql-exec/internal/logging"
)

// Console reports to a terminal: log lines through the logger, exports as
// name=value lines on out.
type Console struct {
	logger *logging.Logger
	out    io.Writer

	mu     sync.Mutex
	failed bool
}

// NewConsole creates a console reporter.
func NewConsole(logger *logging.Logger, out io.Writer) *Console {
	return &Console{logger: logger, out: out}
}

func (c *Console) Log(message string) { c.logger.Print("%s", message) }

func (c *Console) Warn(message string) { c.logger.Warn("%s", message) }

func (c *Console) Error(message string) { c.logger.Error("%s", message) }

func (c *Console) Mask(value string) { c.logger.AddSecret(value) }

func (c *Console) ExportVariable(name, value string) { c.export(name, value) }

func (c *Console) ExportResult(name, value string) { c.export(name, value) }

func (c *Console) Fail(message string) {
	c.logger.Error("%s", message)
	c.mu.Lock()
	c.failed = true
	c.mu.Unlock()
}

func (c *Console) Failed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}

func (c *Console) export(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s=%s\n", name, value)
}
