// Package precision establishes the working arbitrary-precision arithmetic
// for a verification run.
//
// Every derivation in the pipeline goes through one Context, fixed at
// construction time and never mutated afterwards. Changing the digit count
// mid-run would make earlier and later derived values numerically
// incomparable, so the Context exposes no setters.
package precision

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// DefaultDigits is the number of significant decimal digits used when no
// explicit precision is requested. Matches the recorded derivation, which
// was carried out at 80 decimal digits.
const DefaultDigits = 80

// piDigits holds pi to 110 significant digits, comfortably beyond any
// precision the pipeline is run at.
const piDigits = "3.14159265358979323846264338327950288419716939937510582097494459230781640628620899862803482534211706798214808651"

// Context is the process-wide precision context: an apd decimal context
// configured for a fixed number of significant digits, plus the constants
// derived at that precision.
//
// A Context is immutable after New and safe for concurrent readers. There
// is no concurrent writer: the pipeline is strictly sequential.
type Context struct {
	ctx    *apd.Context
	digits int
	pi     *apd.Decimal
}

// New creates a Context with the given number of significant decimal
// digits. Fails fast on a non-positive digit count; there are no other
// error conditions.
func New(digits int) (*Context, error) {
	if digits <= 0 {
		return nil, fmt.Errorf("precision digits must be positive, got %d", digits)
	}
	ctx := apd.BaseContext.WithPrecision(uint32(digits))
	pi, _, err := apd.NewFromString(piDigits)
	if err != nil {
		return nil, fmt.Errorf("parse pi constant: %w", err)
	}
	return &Context{ctx: ctx, digits: digits, pi: pi}, nil
}

// MustNew is New for static configurations known to be valid. Panics on
// invalid digit counts.
func MustNew(digits int) *Context {
	c, err := New(digits)
	if err != nil {
		panic(err)
	}
	return c
}

// Digits returns the number of significant decimal digits.
func (c *Context) Digits() int {
	return c.digits
}

// Pi returns pi. The caller must not mutate the result.
func (c *Context) Pi() *apd.Decimal {
	return c.pi
}

// Parse converts a decimal string into a Decimal without rounding.
// Locked parameter values are recorded as decimal strings precisely to
// survive this conversion losslessly.
func (c *Context) Parse(s string) (*apd.Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d, nil
}

// MustParse is Parse for literals known to be valid.
func (c *Context) MustParse(s string) *apd.Decimal {
	d, err := c.Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Add returns x + y at the context precision.
func (c *Context) Add(x, y *apd.Decimal) (*apd.Decimal, error) {
	d := new(apd.Decimal)
	_, err := c.ctx.Add(d, x, y)
	return d, err
}

// Sub returns x - y at the context precision.
func (c *Context) Sub(x, y *apd.Decimal) (*apd.Decimal, error) {
	d := new(apd.Decimal)
	_, err := c.ctx.Sub(d, x, y)
	return d, err
}

// Mul returns x * y at the context precision.
func (c *Context) Mul(x, y *apd.Decimal) (*apd.Decimal, error) {
	d := new(apd.Decimal)
	_, err := c.ctx.Mul(d, x, y)
	return d, err
}

// Quo returns x / y at the context precision. Callers gate y != 0 before
// dividing; a zero divisor here surfaces as an apd error rather than an
// infinity.
func (c *Context) Quo(x, y *apd.Decimal) (*apd.Decimal, error) {
	d := new(apd.Decimal)
	_, err := c.ctx.Quo(d, x, y)
	return d, err
}

// Abs returns |x|.
func (c *Context) Abs(x *apd.Decimal) (*apd.Decimal, error) {
	d := new(apd.Decimal)
	_, err := c.ctx.Abs(d, x)
	return d, err
}

// Neg returns -x.
func (c *Context) Neg(x *apd.Decimal) (*apd.Decimal, error) {
	d := new(apd.Decimal)
	_, err := c.ctx.Neg(d, x)
	return d, err
}

// Sqrt returns the square root of x at the context precision.
func (c *Context) Sqrt(x *apd.Decimal) (*apd.Decimal, error) {
	d := new(apd.Decimal)
	_, err := c.ctx.Sqrt(d, x)
	return d, err
}

// Pow returns x**y at the context precision.
func (c *Context) Pow(x, y *apd.Decimal) (*apd.Decimal, error) {
	d := new(apd.Decimal)
	_, err := c.ctx.Pow(d, x, y)
	return d, err
}
