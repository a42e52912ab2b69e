// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package texture

// Registry looks up views by application keys. Keys are compared
// with ==, so keys of different types never match each other.
type Registry struct {
	views map[any]View
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{views: map[any]View{}}
}

// Register registers view v under key, which must be comparable,
// replacing any earlier view.
func (rg *Registry) Register(key any, v View) {
	rg.views[key] = v
}

// Get returns the view registered under key.
func (rg *Registry) Get(key any) (View, bool) {
	v, ok := rg.views[key]
	return v, ok
}

// Remove removes the view registered under key.
func (rg *Registry) Remove(key any) {
	delete(rg.views, key)
}

// Len returns the number of registered views.
func (rg *Registry) Len() int {
	return len(rg.views)
}
