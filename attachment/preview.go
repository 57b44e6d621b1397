package attachment

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Previews serves draft images back to the user who picked them. Every URL
// handed out by Create stays alive until Revoke; the owning session revokes
// it when the draft is replaced, sent or torn down.
type Previews struct {
	base string

	mu    sync.Mutex
	items map[string]preview
}

type preview struct {
	owner       string
	contentType string
	data        []byte
}

func NewPreviews(base string) *Previews {
	return &Previews{base: strings.TrimRight(base, "/"), items: make(map[string]preview)}
}

func (p *Previews) Create(owner string, f File) string {
	token := uuid.NewString()

	p.mu.Lock()
	p.items[token] = preview{owner: owner, contentType: f.Type, data: f.Data}
	p.mu.Unlock()

	return p.base + "/" + token
}

func (p *Previews) Revoke(url string) {
	token := url[strings.LastIndex(url, "/")+1:]

	p.mu.Lock()
	delete(p.items, token)
	p.mu.Unlock()
}

// Get returns the preview for token if it belongs to owner.
func (p *Previews) Get(owner, token string) ([]byte, string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	item, ok := p.items[token]
	if !ok || item.owner != owner {
		return nil, "", false
	}
	return item.data, item.contentType, true
}

// Len reports the number of live previews.
func (p *Previews) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}
