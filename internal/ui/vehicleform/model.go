// Package vehicleform is a terminal form for registering a vehicle. Each
// field is an autocomplete selector: typing shows local matches at once and
// remote suggestions when they arrive, and picking one fills the field's
// structured values.
package vehicleform

import (
	"context"

	"rideshare_backend/internal/autocomplete"
	"rideshare_backend/internal/lookup/dataset"
	"rideshare_backend/platform/logger"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	FieldMake    = "make"
	FieldModel   = "model"
	FieldCountry = "country"
	FieldAddress = "address"

	maxListRows  = 6
	defaultWidth = 72
	headerRows   = 2
)

// RemoteInit opens a remote suggestion source. A nil RemoteInit keeps the
// field on its local dataset.
type RemoteInit func(ctx context.Context) (autocomplete.RemoteSource, error)

// Sources are the optional remote sources per field.
type Sources struct {
	Makes     RemoteInit
	Models    RemoteInit
	Countries RemoteInit
	Addresses RemoteInit
}

type Options struct {
	Bundle *dataset.Bundle
	Remote Sources
	Log    *logger.Logger
}

type field struct {
	name    string
	label   string
	display string
	sel     *autocomplete.Selector
	input   textinput.Model
	cursor  int
	pending autocomplete.Request
}

// lookupMsg carries a remote response back into the update loop.
type lookupMsg struct {
	field int
	resp  autocomplete.Response
}

// committedMsg reports a finished selection, including details resolution.
// fields is nil when a later edit superseded the selection.
type committedMsg struct {
	field  int
	fields autocomplete.Fields
}

type readyMsg struct {
	field     int
	readiness autocomplete.Readiness
}

type Model struct {
	ctx    context.Context
	fields []*field
	focus  int
	bus    *autocomplete.PointerBus
	keys   keyMap
	log    *logger.Logger

	width     int
	submitted bool
	cancelled bool
}

// New builds the form. ctx bounds every remote call the form makes.
func New(ctx context.Context, opts Options) *Model {
	log := opts.Log
	if log == nil {
		log = logger.NewNop()
	}
	bundle := opts.Bundle
	if bundle == nil {
		bundle = dataset.MustLoad()
	}

	m := &Model{
		ctx:   ctx,
		bus:   autocomplete.NewPointerBus(),
		keys:  defaultKeyMap(),
		log:   log,
		width: defaultWidth,
	}

	makes := m.addField(FieldMake, "Make", "make", bundle.Makes, opts.Remote.Makes)
	models := m.addField(FieldModel, "Model", "model", bundle.Models, opts.Remote.Models)
	countries := m.addField(FieldCountry, "Country", "countryName", bundle.Countries, opts.Remote.Countries)
	addresses := m.addField(FieldAddress, "Address", "address", bundle.Addresses, opts.Remote.Addresses)

	makes.BindDependent(models, "make", "make")
	countries.BindDependent(addresses, "country", "country")

	m.fields[0].input.Focus()
	m.sync()
	return m
}

func (m *Model) addField(name, label, display string, data autocomplete.Dataset, remote RemoteInit) *autocomplete.Selector {
	opts := []autocomplete.Option{
		autocomplete.WithDataset(data),
		autocomplete.WithLogger(m.log),
		autocomplete.WithPointerBus(m.bus, autocomplete.Rect{}),
	}
	if remote != nil {
		opts = append(opts, autocomplete.WithRemoteInit(remote))
	}

	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = "start typing"
	input.CharLimit = 120

	f := &field{
		name:    name,
		label:   label,
		display: display,
		sel:     autocomplete.New(name, nil, opts...),
		input:   input,
	}
	m.fields = append(m.fields, f)
	return f.sel
}

// Init starts every field's remote initialisation.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	for i, f := range m.fields {
		sel := f.sel
		idx := i
		ctx := m.ctx
		cmds = append(cmds, func() tea.Msg {
			return readyMsg{field: idx, readiness: sel.Init(ctx)}
		})
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	case tea.MouseMsg:
		cmd = m.handleMouse(msg)
	case lookupMsg:
		if msg.field >= 0 && msg.field < len(m.fields) {
			f := m.fields[msg.field]
			if f.sel.Apply(msg.resp) {
				f.pending = autocomplete.Request{}
				f.cursor = 0
			}
		}
	case committedMsg:
		cmd = m.handleCommitted(msg)
	case readyMsg:
		m.log.Debug("suggestion source initialised",
			"field", m.fields[msg.field].name, "readiness", msg.readiness.String())
	}
	m.sync()
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	f := m.fields[m.focus]
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancelled = true
		m.closeAll()
		return tea.Quit
	case key.Matches(msg, m.keys.Submit):
		m.submitted = true
		m.closeAll()
		return tea.Quit
	case key.Matches(msg, m.keys.Next):
		return m.moveFocus(1)
	case key.Matches(msg, m.keys.Prev):
		return m.moveFocus(-1)
	case key.Matches(msg, m.keys.Up):
		if f.cursor > 0 {
			f.cursor--
		}
		return nil
	case key.Matches(msg, m.keys.Down):
		if !f.sel.State().IsOpen() {
			return m.request(m.focus, f.sel.Focus())
		}
		if f.cursor < len(f.sel.Visible())-1 {
			f.cursor++
		}
		return nil
	case key.Matches(msg, m.keys.Select):
		visible := f.sel.Visible()
		if !f.sel.State().IsOpen() || len(visible) == 0 {
			return nil
		}
		return m.selectCmd(m.focus, visible[min(f.cursor, len(visible)-1)])
	case key.Matches(msg, m.keys.Close):
		f.sel.Close()
		f.pending = autocomplete.Request{}
		return nil
	case key.Matches(msg, m.keys.Clear):
		f.input.SetValue("")
		f.sel.Clear()
		f.pending = autocomplete.Request{}
		return nil
	}

	before := f.input.Value()
	var inputCmd tea.Cmd
	f.input, inputCmd = f.input.Update(msg)
	if f.input.Value() == before {
		return inputCmd
	}
	f.cursor = 0
	if !f.sel.Target().IsEmpty() {
		// Editing a committed value discards the commit and its dependents.
		f.sel.Clear()
	}
	return tea.Batch(inputCmd, m.request(m.focus, f.sel.SetQuery(f.input.Value())))
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return nil
	}

	// Hit-test against what was on screen before the click changes anything.
	rows := m.layout()
	m.bus.PointerDown(msg.X, msg.Y)

	for i, r := range rows {
		if msg.Y == r.inputY {
			if i == m.focus {
				return m.request(i, m.fields[i].sel.Focus())
			}
			cmd := m.setFocus(i)
			return tea.Batch(cmd, m.request(i, m.fields[i].sel.Focus()))
		}
		if r.listLen > 0 && msg.Y > r.inputY && msg.Y <= r.inputY+r.listLen {
			visible := r.visible
			idx := msg.Y - r.inputY - 1
			if idx < len(visible) {
				return m.selectCmd(i, visible[idx])
			}
		}
	}
	return nil
}

func (m *Model) handleCommitted(msg committedMsg) tea.Cmd {
	if msg.field < 0 || msg.field >= len(m.fields) {
		return nil
	}
	if msg.fields == nil {
		return nil
	}
	f := m.fields[msg.field]
	f.pending = autocomplete.Request{}
	f.cursor = 0
	if msg.field == m.focus && msg.field < len(m.fields)-1 {
		return m.moveFocus(1)
	}
	return nil
}

func (m *Model) request(i int, req autocomplete.Request) tea.Cmd {
	f := m.fields[i]
	if !req.Valid() {
		f.pending = autocomplete.Request{}
		return nil
	}
	f.pending = req
	return m.fetchCmd(i, req)
}

func (m *Model) fetchCmd(i int, req autocomplete.Request) tea.Cmd {
	sel := m.fields[i].sel
	ctx := m.ctx
	return func() tea.Msg {
		return lookupMsg{field: i, resp: sel.Fetch(ctx, req)}
	}
}

func (m *Model) selectCmd(i int, c autocomplete.Candidate) tea.Cmd {
	sel := m.fields[i].sel
	ctx := m.ctx
	return func() tea.Msg {
		return committedMsg{field: i, fields: sel.Select(ctx, c)}
	}
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	next := (m.focus + delta + len(m.fields)) % len(m.fields)
	return m.setFocus(next)
}

func (m *Model) setFocus(i int) tea.Cmd {
	if i == m.focus {
		return nil
	}
	prev := m.fields[m.focus]
	prev.sel.Close()
	prev.pending = autocomplete.Request{}
	prev.input.Blur()

	m.focus = i
	return m.fields[i].input.Focus()
}

func (m *Model) closeAll() {
	for _, f := range m.fields {
		f.sel.Close()
		f.pending = autocomplete.Request{}
	}
}

// sync mirrors selector state into the text inputs and refreshes the
// outside-click bounds. A field with no query shows its committed value.
func (m *Model) sync() {
	for _, f := range m.fields {
		if f.sel.Query() != "" {
			continue
		}
		want := f.sel.Target().Get(f.display)
		if f.input.Value() != want {
			f.input.SetValue(want)
			f.input.CursorEnd()
		}
	}
	for i, r := range m.layout() {
		f := m.fields[i]
		if f.cursor >= len(r.visible) {
			f.cursor = max(len(r.visible)-1, 0)
		}
		f.sel.SetBounds(autocomplete.Rect{X: 0, Y: r.inputY, Width: m.width, Height: 1 + r.listLen})
	}
}

// Submitted reports whether the user saved the form.
func (m *Model) Submitted() bool { return m.submitted }

// Cancelled reports whether the user quit without saving.
func (m *Model) Cancelled() bool { return m.cancelled }

// Values returns each field's committed values. A field the user typed into
// without picking a suggestion, or edited after picking one, reports the
// typed text under its display key.
func (m *Model) Values() map[string]autocomplete.Fields {
	out := make(map[string]autocomplete.Fields, len(m.fields))
	for _, f := range m.fields {
		values := f.sel.Target().Snapshot()
		if len(values) == 0 && f.input.Value() != "" {
			values = autocomplete.Fields{f.display: f.input.Value()}
		}
		out[f.name] = values
	}
	return out
}

// Dispose releases every selector.
func (m *Model) Dispose() {
	for _, f := range m.fields {
		f.sel.Dispose()
	}
}
