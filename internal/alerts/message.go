package alerts

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/aymerick/raymond"
)

// MessageData fills the placeholders of alert templates.
type MessageData struct {
	Device    string
	Resource  string
	Threshold float64
}

// Message is a rendered alert.
type Message struct {
	Subject string
	Body    string
}

// Templates renders handlebars alert templates. Parsed templates are cached
// by source so a reloaded config only reparses what changed.
type Templates struct {
	mu    sync.Mutex
	cache map[string]*raymond.Template
}

// NewTemplates returns an empty template cache.
func NewTemplates() *Templates {
	return &Templates{cache: make(map[string]*raymond.Template)}
}

// Render expands subjectSrc and bodySrc with d. Placeholders are
// {{device_name}}, {{resource_name}} and {{threshold}}; values are inserted
// without HTML escaping.
func (t *Templates) Render(subjectSrc, bodySrc string, d MessageData) (Message, error) {
	ctx := map[string]interface{}{
		"device_name":   raymond.SafeString(d.Device),
		"resource_name": raymond.SafeString(d.Resource),
		"threshold":     raymond.SafeString(strconv.FormatFloat(d.Threshold, 'f', -1, 64)),
	}

	subject, err := t.exec("subject", subjectSrc, ctx)
	if err != nil {
		return Message{}, err
	}
	body, err := t.exec("body", bodySrc, ctx)
	if err != nil {
		return Message{}, err
	}
	return Message{Subject: subject, Body: body}, nil
}

func (t *Templates) exec(name, src string, ctx map[string]interface{}) (string, error) {
	tmpl, err := t.parse(src)
	if err != nil {
		return "", fmt.Errorf("alerts: parse %s template: %w", name, err)
	}
	out, err := tmpl.Exec(ctx)
	if err != nil {
		return "", fmt.Errorf("alerts: render %s template: %w", name, err)
	}
	return out, nil
}

func (t *Templates) parse(src string) (*raymond.Template, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tmpl, ok := t.cache[src]; ok {
		return tmpl, nil
	}
	tmpl, err := raymond.Parse(src)
	if err != nil {
		return nil, err
	}
	t.cache[src] = tmpl
	return tmpl, nil
}
