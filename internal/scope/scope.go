// Package scope implements the hierarchical name tables described in
// spec.md §4.2: IdentDesc, IdentScope, and slot-index allocation for
// GLOBAL/LOCAL/PARAM storage classes.
package scope

import (
	"fmt"

	"github.com/cwbudde/minic-cil/internal/types"
)

// Kind is the storage class of a declared identifier.
type Kind int

const (
	Global Kind = iota
	Param
	Local
)

func (k Kind) String() string {
	switch k {
	case Global:
		return "GLOBAL"
	case Param:
		return "PARAM"
	case Local:
		return "LOCAL"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IdentDesc is the descriptor attached to a declared name: its type,
// storage class, slot index, and whether the runtime provides it.
// Created once when a declaration is admitted via Scope.Add; Add
// assigns the final scope/index, and the only later mutation is the
// prelude bootstrap setting BuiltIn.
type IdentDesc struct {
	Name    string
	Type    *types.TypeDesc
	Scope   Kind
	Index   uint32
	BuiltIn bool
}

func (d *IdentDesc) String() string {
	if d.BuiltIn {
		return fmt.Sprintf("%s, %s, built-in", d.Type, d.Scope)
	}
	return fmt.Sprintf("%s, %s, %d", d.Type, d.Scope, d.Index)
}

// Scope is one lexical frame: its own identifier table, a link to its
// enclosing frame, an optional marker that this frame is a function
// body, and the two monotonic slot allocators for that function's (or
// the program's) locals and parameters.
type Scope struct {
	idents     map[string]*IdentDesc
	parent     *Scope
	fn         *IdentDesc // set iff this frame is a function body
	varIndex   uint32
	paramIndex uint32
}

// NewRoot creates an empty global frame.
func NewRoot() *Scope {
	return &Scope{idents: make(map[string]*IdentDesc)}
}

// NewChild creates a new frame whose parent is the given scope.
func NewChild(parent *Scope) *Scope {
	return &Scope{idents: make(map[string]*IdentDesc), parent: parent}
}

// SetFunc marks this frame as the body of the given function
// identifier, so CurrFunc resolves to it from nested frames.
func (s *Scope) SetFunc(fn *IdentDesc) { s.fn = fn }

// Func returns the IdentDesc this frame was marked with via SetFunc,
// or nil if this frame is not itself a function body.
func (s *Scope) Func() *IdentDesc { return s.fn }

// Lookup walks the parent chain and returns the first identifier with
// the given name, or nil if none is found.
func (s *Scope) Lookup(name string) *IdentDesc {
	for cur := s; cur != nil; cur = cur.parent {
		if ident, ok := cur.idents[name]; ok {
			return ident
		}
	}
	return nil
}

// CurrGlobal walks the parent chain to the root frame.
func (s *Scope) CurrGlobal() *Scope {
	cur := s
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// CurrFunc walks the parent chain to the nearest frame marked via
// SetFunc, or returns nil if no enclosing frame is a function body.
func (s *Scope) CurrFunc() *Scope {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.fn != nil {
			return cur
		}
	}
	return nil
}

// Add admits a new identifier into this scope, per spec.md §4.2:
//
//  1. Non-PARAM identifiers are reclassified LOCAL (inside a function)
//     or GLOBAL (at top level).
//  2. A name already visible through the parent chain is rejected,
//     with two exceptions: a LOCAL may shadow a GLOBAL, and a PARAM
//     is rejected only when the visible name is another PARAM (so it
//     may shadow a LOCAL or GLOBAL of the same name).
//  3. Non-function identifiers get the next slot index in their
//     storage class (PARAM indices count in the enclosing function's
//     frame; LOCAL/GLOBAL indices count in the function's frame, or
//     the global frame's if there is none).
func (s *Scope) Add(ident *IdentDesc) (*IdentDesc, error) {
	funcScope := s.CurrFunc()
	globalScope := s.CurrGlobal()

	if ident.Scope != Param {
		if funcScope != nil {
			ident.Scope = Local
		} else {
			ident.Scope = Global
		}
	}

	if existing := s.Lookup(ident.Name); existing != nil {
		collision := true
		switch ident.Scope {
		case Param:
			collision = existing.Scope == Param
		case Local:
			collision = existing.Scope != Global
		default:
			collision = true
		}
		if collision {
			return nil, fmt.Errorf("identifier %s already declared", ident.Name)
		}
	}

	if !ident.Type.IsFunc() {
		if ident.Scope == Param {
			ident.Index = funcScope.paramIndex
			funcScope.paramIndex++
		} else {
			target := funcScope
			if target == nil {
				target = globalScope
			}
			ident.Index = target.varIndex
			target.varIndex++
		}
	}

	s.idents[ident.Name] = ident
	return ident, nil
}

// ResetGlobalVarIndex zeroes the root frame's variable-slot allocator.
// Used by the prelude bootstrap (spec.md §4.5) so user-declared globals
// number from zero after the built-in prototypes are registered.
func (s *Scope) ResetGlobalVarIndex() {
	s.varIndex = 0
}

// Idents returns the frame's own identifier table (not the parent
// chain). Used by the prelude bootstrap to flip BuiltIn on every
// registered prototype.
func (s *Scope) Idents() map[string]*IdentDesc {
	return s.idents
}
