// Package console implements the interactive BMI prompt: it asks for a name,
// a height and a weight on a text stream and prints the resulting BMI.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"bmi/internal/domain"
)

// Answers holds what the user typed and the BMI computed from it.
type Answers struct {
	FirstName string
	LastName  string
	HeightM   float64
	WeightKg  float64
	BMI       float64
}

// Prompter drives one prompt session over a reader/writer pair.
type Prompter struct {
	in    *bufio.Scanner
	out   io.Writer
	quiet bool

	// numeric answers left over from a line that carried more than one
	pending []string
}

// New returns a Prompter reading answers from in and writing to out.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Quiet suppresses the banner and questions; the result line is still
// printed. Useful when answers are piped in.
func (p *Prompter) Quiet(q bool) *Prompter {
	p.quiet = q
	return p
}

// Run asks the questions in order, computes the BMI and prints it.
// Inputs are not range-checked: a zero height prints +Inf or NaN.
func (p *Prompter) Run() (Answers, error) {
	var (
		a   Answers
		err error
	)
	p.say("We will calculate BMI")

	if a.FirstName, err = p.ask("What is your first name? "); err != nil {
		return a, err
	}
	if a.LastName, err = p.ask("What is your last name?"); err != nil {
		return a, err
	}
	if a.HeightM, err = p.askFloat("what is your height(in meter)? ", "height"); err != nil {
		return a, err
	}
	if a.WeightKg, err = p.askFloat("what is your weight(in kgs.)? ", "weight"); err != nil {
		return a, err
	}

	a.BMI = domain.CalculateBMI(a.WeightKg, a.HeightM)
	slog.Debug("bmi calculated", "weight_kg", a.WeightKg, "height_m", a.HeightM, "bmi", a.BMI)

	if _, err := fmt.Fprintf(p.out, "Your BMI is %s\n", FormatBMI(a.BMI)); err != nil {
		return a, err
	}
	return a, nil
}

// FormatBMI renders v with the shortest representation that round-trips.
func FormatBMI(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (p *Prompter) say(line string) {
	if !p.quiet {
		_, _ = fmt.Fprintln(p.out, line)
	}
}

func (p *Prompter) ask(question string) (string, error) {
	p.say(question)
	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *Prompter) readLine() (string, error) {
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", fmt.Errorf("read answer: %w", err)
		}
		return "", fmt.Errorf("read answer: %w", io.ErrUnexpectedEOF)
	}
	return p.in.Text(), nil
}

// askFloat reads the next whitespace-separated token, skipping blank lines,
// so "1.53 65" on one line answers both the height and the weight question.
func (p *Prompter) askFloat(question, field string) (float64, error) {
	p.say(question)
	for len(p.pending) == 0 {
		line, err := p.readLine()
		if err != nil {
			return 0, err
		}
		p.pending = strings.Fields(line)
	}
	s := p.pending[0]
	p.pending = p.pending[1:]

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var nerr *strconv.NumError
		if errors.As(err, &nerr) {
			err = nerr.Err
		}
		return 0, fmt.Errorf("%s %q is not a number: %w", field, s, err)
	}
	return v, nil
}
