package onboarding

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"
)

const otpLength = 6

// Challenge is a locally generated phone code and the six cells the user
// types it into. Wrong attempts are not counted.
type Challenge struct {
	mu    sync.Mutex
	code  string
	cells [otpLength]string
	focus int
}

func NewChallenge() (*Challenge, error) {
	c := &Challenge{}
	if err := c.Resend(); err != nil {
		return nil, err
	}
	return c, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Resend issues a fresh code and empties the cells.
func (c *Challenge) Resend() error {
	code, err := generateCode()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.code = code
	c.cells = [otpLength]string{}
	c.focus = 0
	return nil
}

// Code is what would be delivered to the phone.
func (c *Challenge) Code() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code
}

// Input sets cell i to the single digit in s and moves focus on. Non-digits
// are stripped first; input without digits clears the cell and input with
// more than one digit is ignored, leaving the cell as it was.
func (c *Challenge) Input(i int, s string) {
	if i < 0 || i >= otpLength {
		return
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)

	if len(digits) > 1 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if digits == "" {
		c.cells[i] = ""
		return
	}
	c.cells[i] = digits
	if i < otpLength-1 {
		c.focus = i + 1
	}
}

// Backspace on an empty cell moves focus to the previous one.
func (c *Challenge) Backspace(i int) {
	if i < 0 || i >= otpLength {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cells[i] != "" {
		c.cells[i] = ""
		c.focus = i
		return
	}
	if i > 0 {
		c.focus = i - 1
	}
}

func (c *Challenge) Focus() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focus
}

func (c *Challenge) Entered() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.cells[:], "")
}

// Enter fills the cells from a whole typed code, as a paste would.
func (c *Challenge) Enter(code string) {
	for i := range otpLength {
		c.Input(i, "")
	}
	for i, r := range []rune(code) {
		if i >= otpLength {
			break
		}
		c.Input(i, string(r))
	}
}

func (c *Challenge) Verify() error {
	entered := c.Entered()
	if len(entered) != otpLength {
		return ErrOTPIncomplete
	}
	if entered != c.Code() {
		return ErrOTPIncorrect
	}
	return nil
}
