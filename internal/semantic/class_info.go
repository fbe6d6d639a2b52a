package semantic

import (
	"github.com/turbobuilt/gots/internal/ast"
	"github.com/turbobuilt/gots/internal/types"
)

// FieldInfo is one resolved field of a ClassInfo: its dense,
// declaration-order offset (stable for the program's lifetime) and
// resolved type.
type FieldInfo struct {
	Name   string
	Offset int
	Type   *types.Type
}

// ClassInfo is the registered, semantically resolved form of an
// ast.ClassDeclaration.
type ClassInfo struct {
	Name        string
	Parent      *ClassInfo
	Fields      []*FieldInfo
	FieldIndex  map[string]*FieldInfo
	Methods     map[string]*ast.MethodDeclaration
	Constructor *ast.ConstructorDeclaration
	InstanceSize int // bytes; 8 per field, including inherited fields
}

// LookupField resolves a field by name, walking up the parent chain.
func (c *ClassInfo) LookupField(name string) *FieldInfo {
	for cur := c; cur != nil; cur = cur.Parent {
		if f, ok := cur.FieldIndex[name]; ok {
			return f
		}
	}
	return nil
}

// LookupMethod resolves a method by name, walking up the parent chain.
func (c *ClassInfo) LookupMethod(name string) *ast.MethodDeclaration {
	for cur := c; cur != nil; cur = cur.Parent {
		if m, ok := cur.Methods[name]; ok {
			return m
		}
	}
	return nil
}

// ClassRegistry is the process-wide append-only table of registered
// classes, keyed by name.
type ClassRegistry struct {
	classes map[string]*ClassInfo
}

func NewClassRegistry() *ClassRegistry {
	return &ClassRegistry{classes: map[string]*ClassInfo{}}
}

func (r *ClassRegistry) Get(name string) (*ClassInfo, bool) {
	ci, ok := r.classes[name]
	return ci, ok
}

// Register resolves decl into a ClassInfo and adds it to the registry.
// The parent, if named, must already be registered.
func (r *ClassRegistry) Register(decl *ast.ClassDeclaration) (*ClassInfo, error) {
	var parent *ClassInfo
	if decl.ParentName != "" {
		p, ok := r.classes[decl.ParentName]
		if !ok {
			return nil, &UnresolvedParentError{Class: decl.Name, Parent: decl.ParentName}
		}
		parent = p
	}

	ci := &ClassInfo{
		Name:       decl.Name,
		Parent:     parent,
		FieldIndex: map[string]*FieldInfo{},
		Methods:    map[string]*ast.MethodDeclaration{},
	}

	offset := 0
	if parent != nil {
		offset = parent.InstanceSize / 8
	}
	for _, f := range decl.Fields {
		fi := &FieldInfo{Name: f.Name, Offset: offset, Type: resolveTypeExpr(f.Type)}
		ci.Fields = append(ci.Fields, fi)
		ci.FieldIndex[f.Name] = fi
		offset++
	}
	ci.InstanceSize = offset * 8

	for _, m := range decl.Methods {
		ci.Methods[m.Name] = m
	}
	ci.Constructor = decl.Constructor

	r.classes[decl.Name] = ci
	return ci, nil
}

// UnresolvedParentError is raised when a class's `extends` clause names a
// class that has not yet been registered.
type UnresolvedParentError struct {
	Class, Parent string
}

func (e *UnresolvedParentError) Error() string {
	return "class " + e.Class + " extends unresolved parent " + e.Parent
}
