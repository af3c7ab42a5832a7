// Package hooks keeps ordered lists of request hooks per extension point.
package hooks

import (
	"context"
	"sort"
	"sync"

	"github.com/zaqqye/seb_exam_gate/internal/lockdown"
)

// Extension points.
const (
	// PointPage runs before every portal page.
	PointPage = "page"
	// PointMainMenu runs before the course list.
	PointMainMenu = "main_menu"
)

type Func func(ctx context.Context, id lockdown.RequestIdentity) (lockdown.Verdict, error)

type Hook struct {
	Name     string
	Priority int
	Fn       Func
	seq      int
}

// Registry orders hooks by ascending priority, then by registration order.
type Registry struct {
	mu     sync.RWMutex
	points map[string][]Hook
	seq    int
}

func NewRegistry() *Registry {
	return &Registry{points: map[string][]Hook{}}
}

func (r *Registry) Add(point, name string, priority int, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	list := append(r.points[point], Hook{Name: name, Priority: priority, Fn: fn, seq: r.seq})
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Priority != list[j].Priority {
			return list[i].Priority < list[j].Priority
		}
		return list[i].seq < list[j].seq
	})
	r.points[point] = list
}

// Hooks returns a copy of the ordered hooks of point.
func (r *Registry) Hooks(point string) []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Hook, len(r.points[point]))
	copy(out, r.points[point])
	return out
}

// Run calls the hooks of point in order and stops at the first verdict that
// is not Allow, or at the first error.
func (r *Registry) Run(ctx context.Context, point string, id lockdown.RequestIdentity) (lockdown.Verdict, error) {
	for _, h := range r.Hooks(point) {
		v, err := h.Fn(ctx, id)
		if err != nil {
			return lockdown.Verdict{}, err
		}
		if v.Kind != lockdown.Allow {
			return v, nil
		}
	}
	return lockdown.Allowed(), nil
}

// RegisterLockdown installs the engine's hooks: the finished-exam redirect on
// every page, and auto-registration on the main menu after it.
func RegisterLockdown(r *Registry, engine *lockdown.Engine) {
	r.Add(PointPage, "finished_exam_redirect", 0, engine.RedirectToFinishedExam)
	r.Add(PointMainMenu, "finished_exam_redirect", 0, engine.RedirectToFinishedExam)
	r.Add(PointMainMenu, "auto_register", 10, engine.AutoRegister)
}
