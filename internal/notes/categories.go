package notes

import (
	"sort"
	"sync"
)

// CategoryConfig describes how a financial category renders in the UI.
type CategoryConfig struct {
	Name    string `json:"name"`
	Color   string `json:"color"`
	Variant string `json:"variant"`
}

// DefaultCategories returns the built-in financial categories.
func DefaultCategories() map[string]CategoryConfig {
	return map[string]CategoryConfig{
		"Penjualan":   {Name: "Penjualan", Color: "green", Variant: "default"},
		"Belanja":     {Name: "Belanja", Color: "red", Variant: "destructive"},
		"Operasional": {Name: "Operasional", Color: "orange", Variant: "default"},
		"Lainnya":     {Name: "Lainnya", Color: "gray", Variant: "secondary"},
	}
}

var (
	catMu      sync.RWMutex
	categories = DefaultCategories()
)

// ValidCategory reports whether a category name is registered.
func ValidCategory(name string) bool {
	catMu.RLock()
	defer catMu.RUnlock()
	_, ok := categories[name]
	return ok
}

// Register adds or replaces a category.
func Register(cfg CategoryConfig) {
	catMu.Lock()
	defer catMu.Unlock()
	categories[cfg.Name] = cfg
}

// Unregister removes a custom category. Built-in categories stay.
func Unregister(name string) bool {
	if _, builtin := DefaultCategories()[name]; builtin {
		return false
	}
	catMu.Lock()
	defer catMu.Unlock()
	if _, ok := categories[name]; !ok {
		return false
	}
	delete(categories, name)
	return true
}

// Categories returns the registered categories sorted by name.
func Categories() []CategoryConfig {
	catMu.RLock()
	defer catMu.RUnlock()

	out := make([]CategoryConfig, 0, len(categories))
	for _, cfg := range categories {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ReplaceAll swaps the registry wholesale, used by backup import. Built-in
// categories are re-added if the imported set dropped them.
func ReplaceAll(set map[string]CategoryConfig) {
	catMu.Lock()
	defer catMu.Unlock()

	categories = make(map[string]CategoryConfig, len(set)+4)
	for name, cfg := range DefaultCategories() {
		categories[name] = cfg
	}
	for name, cfg := range set {
		if cfg.Name == "" {
			cfg.Name = name
		}
		categories[name] = cfg
	}
}
