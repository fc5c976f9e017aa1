package search

import (
	"strings"

	"github.com/starford/curator/internal/models"
)

// Renderer controls how a select widget presents search state. Embed
// DefaultRenderer to override only some methods.
type Renderer interface {
	OptionLabel(o models.Option) string
	NoOptionsMessage(term string) string
	LoadingMessage() string
}

// DefaultRenderer renders labels verbatim with English messages.
type DefaultRenderer struct{}

func (DefaultRenderer) OptionLabel(o models.Option) string { return o.Label }

func (DefaultRenderer) NoOptionsMessage(term string) string {
	if term == "" {
		return "No options"
	}
	return "No results for \"" + term + "\""
}

func (DefaultRenderer) LoadingMessage() string { return "Loading..." }

// ViewOption is one rendered option.
type ViewOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// View is what the widget draws.
type View struct {
	Session uint64       `json:"session"`
	Term    string       `json:"term"`
	Options []ViewOption `json:"options"`
	HasMore bool         `json:"has_more"`
	Loading bool         `json:"loading"`
	Message string       `json:"message,omitempty"`
	// Create is offered by creatable selects when no option matches the
	// term exactly.
	Create *models.SelectedOption `json:"create,omitempty"`
}

// View renders the current state with r. When creatable is set and the
// typed term matches no option label, a free-text option is offered.
func (p *Provider) View(r Renderer, creatable bool) View {
	if r == nil {
		r = DefaultRenderer{}
	}
	st := p.State()

	v := View{
		Session: st.Session,
		Term:    st.Term,
		Options: make([]ViewOption, 0, len(st.Options)),
		HasMore: st.HasMore,
		Loading: st.Loading,
	}
	exact := false
	for _, o := range st.Options {
		v.Options = append(v.Options, ViewOption{Label: r.OptionLabel(o), Value: o.Value})
		if strings.EqualFold(strings.TrimSpace(o.Label), strings.TrimSpace(st.Term)) {
			exact = true
		}
	}
	switch {
	case len(v.Options) == 0 && st.Loading:
		v.Message = r.LoadingMessage()
	case len(v.Options) == 0:
		v.Message = r.NoOptionsMessage(st.Term)
	}
	if creatable && strings.TrimSpace(st.Term) != "" && !exact {
		opt := models.NewCreatedOption(strings.TrimSpace(st.Term))
		v.Create = &opt
	}
	return v
}
