// Package workflow drives one blog-writing session through its five steps:
// topic, title selection, body, header image and preview. It owns the step
// guards and the body/image version ledgers; generation itself is delegated
// to a Gateway.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"auto_blog_writer/credentials"
	"auto_blog_writer/publisher"
)

// Gateway performs the external generation calls.
type Gateway interface {
	GenerateTitles(ctx context.Context, topic, credential string) ([]string, error)
	GenerateBody(ctx context.Context, title, credential string) (string, error)
	GenerateImage(ctx context.Context, title, credential string) (string, error)
}

// CredentialSource supplies per-provider secrets. The machine only reads.
type CredentialSource interface {
	Get(ctx context.Context, kind credentials.Kind) (string, bool, error)
}

// Exporter formats the final selection into a document.
type Exporter interface {
	Export(a publisher.Article) (string, error)
}

type artifact int

const (
	artTitles artifact = iota
	artBody
	artImage
)

func (a artifact) String() string {
	return [...]string{"titles", "body", "image"}[a]
}

// Machine is the state of one session. Methods are safe to call from
// multiple goroutines; gateway calls run without holding the lock so
// RequestStep and Snapshot stay responsive while a generation is in flight.
type Machine struct {
	gateway Gateway
	creds   CredentialSource
	log     *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	step     Step
	topic    string
	titles   []string
	selected string
	hasTitle bool
	body     BodyLedger
	image    ImageLedger
	busy     [3]bool
	// epoch changes whenever the downstream ledgers are reset; in-flight
	// body/image calls compare it on completion.
	epoch uint64
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger; nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.log = l
		}
	}
}

// WithClock sets the time source for version timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a session at StepTopic with empty ledgers.
func New(gateway Gateway, creds CredentialSource, opts ...Option) *Machine {
	m := &Machine{
		gateway: gateway,
		creds:   creds,
		log:     slog.Default(),
		now:     time.Now,
		step:    StepTopic,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("component", "workflow")
	return m
}

// Step returns the current step.
func (m *Machine) Step() Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.step
}

// Busy reports whether any generation call is in flight.
func (m *Machine) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Contains(m.busy[:], true)
}

// RequestStep moves to target. Going back is always allowed; going forward
// is allowed one step at a time once the current step is complete.
func (m *Machine) RequestStep(target Step) error {
	if !target.Valid() {
		return fmt.Errorf("%w: step %d out of range", ErrInvalidInput, int(target))
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.step
	if target <= cur {
		m.step = target
		return nil
	}
	if msg, ok := m.completeLocked(cur); !ok {
		m.log.Debug("step rejected", "from", cur, "to", target, "reason", "incomplete")
		return &TransitionError{From: cur, To: target, Message: msg}
	}
	if target != cur+1 {
		m.log.Debug("step rejected", "from", cur, "to", target, "reason", "skip")
		return &TransitionError{From: cur, To: target}
	}
	m.step = target
	m.log.Info("step advanced", "from", cur, "to", target)
	return nil
}

// completeLocked evaluates the completion predicate of s. The message is
// non-empty only where the user must be told what is missing.
func (m *Machine) completeLocked(s Step) (string, bool) {
	switch s {
	case StepTopic:
		return "", len(m.titles) > 0
	case StepTitleSelect:
		if !m.hasTitle {
			return MsgSelectTitle, false
		}
		return "", true
	case StepBody:
		return "", m.body.Len() > 0
	case StepImage:
		return "", m.image.Len() > 0
	}
	return "", false
}

// SubmitTopic generates candidate titles for topic and moves to TITLE_SELECT.
func (m *Machine) SubmitTopic(ctx context.Context, topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidInput)
	}
	m.mu.Lock()
	if m.step != StepTopic {
		defer m.mu.Unlock()
		return fmt.Errorf("%w: submit topic from %s", ErrWrongStep, m.step)
	}
	m.mu.Unlock()
	return m.generateTitles(ctx, "submit topic", topic, true)
}

// RegenerateTitles refreshes the title set for the stored topic without
// changing step.
func (m *Machine) RegenerateTitles(ctx context.Context) error {
	m.mu.Lock()
	if m.step != StepTitleSelect {
		defer m.mu.Unlock()
		return fmt.Errorf("%w: regenerate titles from %s", ErrWrongStep, m.step)
	}
	topic := m.topic
	m.mu.Unlock()
	if topic == "" {
		return fmt.Errorf("%w: no topic submitted", ErrInvalidInput)
	}
	return m.generateTitles(ctx, "regenerate titles", topic, false)
}

func (m *Machine) generateTitles(ctx context.Context, op, topic string, advance bool) error {
	cred, err := m.credential(ctx, credentials.KindTitle)
	if err != nil {
		return err
	}
	if err := m.acquire(artTitles); err != nil {
		return err
	}
	defer m.release(artTitles)

	m.mu.Lock()
	epoch := m.epoch
	m.mu.Unlock()

	raw, err := m.gateway.GenerateTitles(ctx, topic, cred)
	if err != nil {
		m.log.Warn("title generation failed", "op", op, "err", err)
		return gatewayError(op, err)
	}
	titles := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			titles = append(titles, t)
		}
	}
	if len(titles) == 0 {
		return gatewayError(op, fmt.Errorf("no titles returned"))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// A title selected while the call was in flight owns the ledgers now.
	if m.epoch != epoch {
		m.log.Warn("discarding stale result", "op", op, "topic", topic)
		return ErrStale
	}
	m.topic = topic
	m.titles = titles
	m.clearSelectionLocked()
	if advance {
		m.step = StepTitleSelect
	}
	m.log.Info("titles generated", "op", op, "count", len(titles))
	return nil
}

// SelectTitle picks title from the current set, resets both ledgers and
// moves to BODY. Re-selecting the already selected title resets as well.
func (m *Machine) SelectTitle(title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.step != StepTitleSelect {
		return fmt.Errorf("%w: select title from %s", ErrWrongStep, m.step)
	}
	if !slices.Contains(m.titles, title) {
		return fmt.Errorf("%w: title %q is not in the current set", ErrInvalidInput, title)
	}
	m.clearSelectionLocked()
	m.selected = title
	m.hasTitle = true
	m.step = StepBody
	m.log.Info("title selected", "title", title)
	return nil
}

// clearSelectionLocked drops the selected title together with everything
// generated for it.
func (m *Machine) clearSelectionLocked() {
	m.selected = ""
	m.hasTitle = false
	m.body.Reset()
	m.image.Reset()
	m.epoch++
}

// GenerateBody appends a new body version for the selected title.
func (m *Machine) GenerateBody(ctx context.Context) (Version[string], error) {
	return m.generateVersion(ctx, artBody)
}

// GenerateImage appends a new header image version for the selected title.
func (m *Machine) GenerateImage(ctx context.Context) (Version[string], error) {
	return m.generateVersion(ctx, artImage)
}

func (m *Machine) generateVersion(ctx context.Context, art artifact) (Version[string], error) {
	minStep, kind, call := StepBody, credentials.KindBody, m.gateway.GenerateBody
	if art == artImage {
		minStep, kind, call = StepImage, credentials.KindImage, m.gateway.GenerateImage
	}
	op := "generate " + art.String()

	m.mu.Lock()
	if m.step < minStep {
		defer m.mu.Unlock()
		return Version[string]{}, fmt.Errorf("%w: %s from %s", ErrWrongStep, op, m.step)
	}
	if !m.hasTitle {
		defer m.mu.Unlock()
		return Version[string]{}, fmt.Errorf("%w: no title selected", ErrInvalidInput)
	}
	title, epoch := m.selected, m.epoch
	m.mu.Unlock()

	cred, err := m.credential(ctx, kind)
	if err != nil {
		return Version[string]{}, err
	}
	if err := m.acquire(art); err != nil {
		return Version[string]{}, err
	}
	defer m.release(art)

	out, err := call(ctx, title, cred)
	if err != nil {
		m.log.Warn("generation failed", "op", op, "title", title, "err", err)
		return Version[string]{}, gatewayError(op, err)
	}
	if strings.TrimSpace(out) == "" {
		return Version[string]{}, gatewayError(op, fmt.Errorf("empty %s returned", art))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch || !m.hasTitle || m.selected != title {
		m.log.Warn("discarding stale result", "op", op, "issued_for", title)
		return Version[string]{}, ErrStale
	}
	ledger := m.ledgerLocked(art)
	v := ledger.Append(out, m.now())
	m.log.Info("version appended", "op", op, "index", v.Index, "versions", ledger.Len())
	return v, nil
}

func (m *Machine) ledgerLocked(art artifact) *Ledger[string] {
	if art == artImage {
		return &m.image
	}
	return &m.body
}

// CycleBody moves the selected body version circularly.
func (m *Machine) CycleBody(dir Direction) int { return m.cycle(artBody, dir) }

// CycleImage moves the selected image version circularly.
func (m *Machine) CycleImage(dir Direction) int { return m.cycle(artImage, dir) }

func (m *Machine) cycle(art artifact, dir Direction) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.ledgerLocked(art)
	l.Cycle(dir)
	idx, _ := l.SelectedIndex()
	return idx
}

// SelectBody points the body ledger at a specific version.
func (m *Machine) SelectBody(index int) error { return m.selectVersion(artBody, index) }

// SelectImage points the image ledger at a specific version.
func (m *Machine) SelectImage(index int) error { return m.selectVersion(artImage, index) }

func (m *Machine) selectVersion(art artifact, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledgerLocked(art).Select(index)
}

// ExportDocument formats the selected title, body and image. It does not
// modify the session.
func (m *Machine) ExportDocument(exp Exporter) (string, error) {
	m.mu.Lock()
	if m.step != StepPreview {
		defer m.mu.Unlock()
		return "", fmt.Errorf("%w: export from %s", ErrWrongStep, m.step)
	}
	body, okBody := m.body.Selected()
	img, okImg := m.image.Selected()
	title, okTitle := m.selected, m.hasTitle
	m.mu.Unlock()

	if !okTitle || !okBody || !okImg {
		return "", fmt.Errorf("%w: export needs a title, a body and an image", ErrInvalidInput)
	}
	return exp.Export(publisher.Article{
		Title:      title,
		Body:       body.Value,
		CoverImage: img.Value,
	})
}

func (m *Machine) credential(ctx context.Context, kind credentials.Kind) (string, error) {
	if m.creds == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingCredential, kind)
	}
	v, ok, err := m.creds.Get(ctx, kind)
	if err != nil {
		return "", fmt.Errorf("read %s credential: %w", kind, err)
	}
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingCredential, kind)
	}
	return v, nil
}

func (m *Machine) acquire(art artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy[art] {
		return fmt.Errorf("%w: %s", ErrBusy, art)
	}
	m.busy[art] = true
	return nil
}

func (m *Machine) release(art artifact) {
	m.mu.Lock()
	m.busy[art] = false
	m.mu.Unlock()
}
