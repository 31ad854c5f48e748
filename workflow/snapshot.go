package workflow

// Snapshot is a read-only copy of a session used for presentation.
type Snapshot struct {
	Step          Step              `json:"step"`
	Topic         string            `json:"topic"`
	Titles        []string          `json:"titles"`
	SelectedTitle string            `json:"selected_title,omitempty"`
	Bodies        []Version[string] `json:"bodies"`
	BodyIndex     *int              `json:"body_index,omitempty"`
	Images        []Version[string] `json:"images"`
	ImageIndex    *int              `json:"image_index,omitempty"`
	Busy          bool              `json:"busy"`
	// CanAdvance mirrors the forward guard for the next step so the UI can
	// disable its Next control.
	CanAdvance bool `json:"can_advance"`
}

// Snapshot copies the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Step:          m.step,
		Topic:         m.topic,
		Titles:        append([]string(nil), m.titles...),
		SelectedTitle: m.selected,
		Bodies:        m.body.Versions(),
		Images:        m.image.Versions(),
	}
	if i, ok := m.body.SelectedIndex(); ok {
		s.BodyIndex = &i
	}
	if i, ok := m.image.SelectedIndex(); ok {
		s.ImageIndex = &i
	}
	for _, b := range m.busy {
		s.Busy = s.Busy || b
	}
	if m.step < StepPreview {
		_, s.CanAdvance = m.completeLocked(m.step)
	}
	return s
}

// SelectedBody returns the selected body markdown, false when none.
func (s Snapshot) SelectedBody() (string, bool) {
	if s.BodyIndex == nil {
		return "", false
	}
	return s.Bodies[*s.BodyIndex].Value, true
}

// SelectedImage returns the selected image URL, false when none.
func (s Snapshot) SelectedImage() (string, bool) {
	if s.ImageIndex == nil {
		return "", false
	}
	return s.Images[*s.ImageIndex].Value, true
}
