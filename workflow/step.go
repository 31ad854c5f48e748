package workflow

import (
	"fmt"
	"strconv"
	"strings"
)

// Step is one stage of the five-stage linear workflow.
type Step int

const (
	StepTopic Step = iota + 1
	StepTitleSelect
	StepBody
	StepImage
	StepPreview
)

var stepNames = map[Step]string{
	StepTopic:       "topic",
	StepTitleSelect: "title_select",
	StepBody:        "body",
	StepImage:       "image",
	StepPreview:     "preview",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "step(" + strconv.Itoa(int(s)) + ")"
}

// Valid reports whether s is one of the five steps.
func (s Step) Valid() bool {
	return s >= StepTopic && s <= StepPreview
}

func (s Step) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: unknown step %d", ErrInvalidInput, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Step) UnmarshalText(b []byte) error {
	v, err := ParseStep(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStep accepts either the step name ("body") or its number ("3").
func ParseStep(raw string) (Step, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if n, err := strconv.Atoi(raw); err == nil {
		if s := Step(n); s.Valid() {
			return s, nil
		}
		return 0, fmt.Errorf("%w: step %d out of range 1..5", ErrInvalidInput, n)
	}
	for s, name := range stepNames {
		if name == raw {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown step %q", ErrInvalidInput, raw)
}

// Direction selects the cycling direction through a ledger.
type Direction int

const (
	Prev Direction = iota + 1
	Next
)

func (d Direction) String() string {
	switch d {
	case Prev:
		return "prev"
	case Next:
		return "next"
	}
	return "direction(" + strconv.Itoa(int(d)) + ")"
}

// ParseDirection accepts prev/previous/back and next/forward.
func ParseDirection(raw string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "prev", "previous", "back":
		return Prev, nil
	case "next", "forward":
		return Next, nil
	}
	return 0, fmt.Errorf("%w: unknown direction %q", ErrInvalidInput, raw)
}
