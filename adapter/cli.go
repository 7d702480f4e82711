package adapter

import (
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/quiltlod/quilt/request"
)

// CLI is a single-shot Adapter that reads parameters from a parsed
// query string and os.Environ(), and writes header/body output to an
// io.Writer (stdout for quilt-cli), mirroring cli.c's cli_impl vtable.
type CLI struct {
	query       url.Values
	out         io.Writer
	headersSent bool
}

// NewCLI returns a CLI adapter whose query parameters come from
// parsing rawQuery (cli.c's "-q" flag or QUERY_STRING), writing to out.
func NewCLI(rawQuery string, out io.Writer) *CLI {
	values, _ := url.ParseQuery(rawQuery)
	if values == nil {
		values = url.Values{}
	}
	return &CLI{query: values, out: out}
}

// Getenv looks up name in the process environment, cli_getenv's contract.
func (c *CLI) Getenv(name string) (string, bool) {
	return os.LookupEnv(name)
}

// Getparam returns the first value of a query parameter, or false if
// it was never supplied, cli_getparam's contract.
func (c *CLI) Getparam(name string) (string, bool) {
	if !c.query.Has(name) {
		return "", false
	}
	return c.query.Get(name), true
}

// GetparamMulti returns every value of a repeated query parameter.
func (c *CLI) GetparamMulti(name string) ([]string, bool) {
	vs, ok := c.query[name]
	return vs, ok
}

// Put writes body bytes, sending the blank-line header/body separator
// on first call, mirroring cli_put's fputc('\n', stdout).
func (c *CLI) Put(b []byte) error {
	c.beginBody()
	_, err := c.out.Write(b)
	return err
}

// Vprintf writes a formatted body chunk, same separator rule as Put.
func (c *CLI) Vprintf(format string, args ...any) error {
	c.beginBody()
	_, err := fmt.Fprintf(c.out, format, args...)
	return err
}

// Header writes one header line, failing once the body has begun,
// mirroring cli_header's headers_sent guard.
func (c *CLI) Header(b []byte) error {
	if c.headersSent {
		return ErrHeaderAfterBody
	}
	_, err := c.out.Write(b)
	if err == nil {
		_, err = c.out.Write([]byte("\n"))
	}
	return err
}

// Headerf writes one formatted header line, same rule as Header.
func (c *CLI) Headerf(format string, args ...any) error {
	if c.headersSent {
		return ErrHeaderAfterBody
	}
	_, err := fmt.Fprintf(c.out, format, args...)
	if err == nil {
		_, err = c.out.Write([]byte("\n"))
	}
	return err
}

// Begin resets the header/body state for a new request, mirroring
// cli_begin's data->headers_sent = 0.
func (c *CLI) Begin(req *request.Request) error {
	c.headersSent = false
	return nil
}

// End is a no-op for the plain stdout CLI adapter.
func (c *CLI) End(req *request.Request) error {
	return nil
}

func (c *CLI) beginBody() {
	if c.headersSent {
		return
	}
	c.headersSent = true
	fmt.Fprint(c.out, "\n")
}
