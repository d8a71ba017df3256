// Package dedup recuerda firmas de contenido durante una ventana de tiempo acotada.
package dedup

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type item struct {
	key  string
	seen time.Time
}

// Window es un set acotado en tamaño y en tiempo. Al llenarse expulsa la entrada más vieja.
type Window struct {
	mu    sync.Mutex
	ttl   time.Duration
	size  int
	now   func() time.Time
	order *list.List
	index map[string]*list.Element
}

type Option func(*Window)

func WithClock(now func() time.Time) Option {
	return func(w *Window) { w.now = now }
}

func New(size int, ttl time.Duration, opts ...Option) *Window {
	if size <= 0 {
		size = 1
	}
	w := &Window{
		ttl:   ttl,
		size:  size,
		now:   time.Now,
		order: list.New(),
		index: map[string]*list.Element{},
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Signature: sha256 hex de las partes concatenadas.
func Signature(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Seen devuelve true si la clave ya estaba dentro de la ventana; si no, la registra.
func (w *Window) Seen(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.evictExpired(now)

	if _, ok := w.index[key]; ok {
		return true
	}
	w.index[key] = w.order.PushBack(item{key: key, seen: now})
	for w.order.Len() > w.size {
		w.remove(w.order.Front())
	}
	return false
}

func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evictExpired(w.now())
	return w.order.Len()
}

func (w *Window) evictExpired(now time.Time) {
	if w.ttl <= 0 {
		return
	}
	for e := w.order.Front(); e != nil; e = w.order.Front() {
		if now.Sub(e.Value.(item).seen) < w.ttl {
			return
		}
		w.remove(e)
	}
}

func (w *Window) remove(e *list.Element) {
	delete(w.index, e.Value.(item).key)
	w.order.Remove(e)
}
