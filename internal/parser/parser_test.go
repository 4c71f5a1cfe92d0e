package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/codeindex/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopSource = `package shop

import (
	"fmt"
	"strings"
)

// Base holds shared fields
type Base struct {
	ID string
}

// User represents a user in the system
type User struct {
	Base
	Name  string
	Email Address
}

type Address string

// GetName returns the user's name
func (u *User) GetName() string {
	return strings.TrimSpace(u.Name)
}

// Greet prints a greeting
func (u *User) Greet() {
	fmt.Println(u.GetName())
}

// NewUser creates a new user
func NewUser(name string) *User {
	return &User{Name: name}
}

const MaxUsers = 10

var registry = map[string]*User{}
`

// writeSource creates a Go file in a temp dir and returns its path and symbol id scope
func writeSource(t *testing.T, name, content string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path, filepath.ToSlash(dir) + "::"
}

func symbolByID(outcome *types.ParseOutcome, id string) (types.Symbol, bool) {
	for _, sym := range outcome.Symbols {
		if sym.ID == id {
			return sym, true
		}
	}
	return types.Symbol{}, false
}

func hasRelation(outcome *types.ParseOutcome, source, target string, kind types.RelationKind) bool {
	for _, rel := range outcome.Relations {
		if rel.SourceID == source && rel.TargetID == target && rel.Kind == kind {
			return true
		}
	}
	return false
}

func TestParseFile_ValidGoFile(t *testing.T) {
	path, scope := writeSource(t, "shop.go", shopSource)

	p := New()
	outcome, err := p.ParseFile(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "go", outcome.Language)
	assert.Equal(t, "shop", outcome.Metadata[MetaPackage])
	assert.Equal(t, "fmt,strings", outcome.Metadata[MetaImports])

	want := map[string]types.SymbolKind{
		"shop.Base":         types.KindStruct,
		"shop.Base.ID":      types.KindField,
		"shop.User":         types.KindStruct,
		"shop.User.Name":    types.KindField,
		"shop.User.Email":   types.KindField,
		"shop.Address":      types.KindClass,
		"shop.User.GetName": types.KindMethod,
		"shop.User.Greet":   types.KindMethod,
		"shop.NewUser":      types.KindFunction,
		"shop.MaxUsers":     types.KindVariable,
		"shop.registry":     types.KindVariable,
	}
	assert.Len(t, outcome.Symbols, len(want))
	for suffix, kind := range want {
		sym, ok := symbolByID(outcome, scope+suffix)
		if assert.True(t, ok, suffix) {
			assert.Equal(t, kind, sym.Kind, suffix)
			assert.Equal(t, path, sym.FilePath)
			assert.NoError(t, sym.Validate())
		}
	}
	assert.Equal(t, len(outcome.Symbols), len(outcome.SymbolIDs))
}

func TestParseFile_SymbolDetails(t *testing.T) {
	path, scope := writeSource(t, "shop.go", shopSource)

	outcome, err := New().ParseFile(path, nil)
	require.NoError(t, err)

	user, ok := symbolByID(outcome, scope+"shop.User")
	require.True(t, ok)
	assert.Equal(t, "User represents a user in the system", user.Documentation)
	assert.Equal(t, "type User struct { ... } // 3 fields", user.Signature)
	assert.Equal(t, 14, user.Line)
	assert.Equal(t, 6, user.Column)
	assert.Equal(t, "shop", user.Namespace)
	assert.Equal(t, "exported", user.Metadata[MetaScope])

	getName, ok := symbolByID(outcome, scope+"shop.User.GetName")
	require.True(t, ok)
	assert.Equal(t, "func (*User) GetName() string", getName.Signature)
	assert.Equal(t, scope+"shop.User", getName.ParentID)
	assert.Equal(t, "User", getName.Metadata[MetaRecv])

	newUser, ok := symbolByID(outcome, scope+"shop.NewUser")
	require.True(t, ok)
	assert.Equal(t, "func NewUser(name string) *User", newUser.Signature)
	assert.Empty(t, newUser.ParentID)

	addr, ok := symbolByID(outcome, scope+"shop.Address")
	require.True(t, ok)
	assert.Equal(t, "type", addr.Metadata[MetaGoKind])
	assert.Equal(t, "type Address string", addr.Signature)

	maxUsers, ok := symbolByID(outcome, scope+"shop.MaxUsers")
	require.True(t, ok)
	assert.Equal(t, "const", maxUsers.Metadata[MetaGoKind])
	assert.Equal(t, "const MaxUsers = ...", maxUsers.Signature)

	registry, ok := symbolByID(outcome, scope+"shop.registry")
	require.True(t, ok)
	assert.Equal(t, "unexported", registry.Metadata[MetaScope])
}

func TestParseFile_Relations(t *testing.T) {
	path, scope := writeSource(t, "shop.go", shopSource)

	outcome, err := New().ParseFile(path, nil)
	require.NoError(t, err)

	id := func(s string) string { return scope + "shop." + s }

	assert.True(t, hasRelation(outcome, id("Base"), id("Base.ID"), types.RelationContains))
	assert.True(t, hasRelation(outcome, id("User"), id("User.Name"), types.RelationContains))
	assert.True(t, hasRelation(outcome, id("User"), id("User.GetName"), types.RelationContains))
	assert.True(t, hasRelation(outcome, id("User"), id("Base"), types.RelationInheritsFrom))
	assert.True(t, hasRelation(outcome, id("User.Email"), id("Address"), types.RelationUses))
	assert.True(t, hasRelation(outcome, id("NewUser"), id("User"), types.RelationUses))
	assert.True(t, hasRelation(outcome, id("User.Greet"), id("User.GetName"), types.RelationCalls))

	// Package qualified calls and builtins never become edges
	for _, rel := range outcome.Relations {
		assert.NotContains(t, rel.TargetID, "Println")
		assert.NotContains(t, rel.TargetID, "string")
	}

	seen := make(map[types.RelationKey]bool)
	for _, rel := range outcome.Relations {
		assert.False(t, seen[rel.Key()], "duplicate relation %v", rel.Key())
		seen[rel.Key()] = true
	}
}

func TestParseFile_References(t *testing.T) {
	path, scope := writeSource(t, "shop.go", shopSource)

	outcome, err := New().ParseFile(path, nil)
	require.NoError(t, err)

	defs := 0
	var userRefs, nameRefs []types.Reference
	for _, ref := range outcome.References {
		if ref.IsDefinition {
			defs++
		}
		switch ref.SymbolID {
		case scope + "shop.User":
			userRefs = append(userRefs, ref)
		case scope + "shop.User.Name":
			nameRefs = append(nameRefs, ref)
		}
	}
	assert.Equal(t, len(outcome.Symbols), defs, "one definition per symbol")

	// Receiver types are not walked; signatures, bodies and initializers are
	var containers []string
	for _, ref := range userRefs {
		if !ref.IsDefinition {
			containers = append(containers, ref.ContainerID)
		}
	}
	assert.Contains(t, containers, scope+"shop.NewUser")
	assert.Contains(t, containers, scope+"shop.registry")

	require.Len(t, nameRefs, 2)
	assert.True(t, nameRefs[0].IsDefinition)
	assert.Equal(t, scope+"shop.User.GetName", nameRefs[1].ContainerID)
	assert.Equal(t, 24, nameRefs[1].Line)
}

func TestParseFile_ContentOverridesDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.go")

	outcome, err := New().ParseFile(path, []byte("package mem\n\nfunc Hello() {}\n"))
	require.NoError(t, err)
	require.Len(t, outcome.Symbols, 1)
	assert.Equal(t, "Hello", outcome.Symbols[0].Name)

	_, err = New().ParseFile(path, nil)
	assert.Error(t, err)
}

func TestParseFile_SyntaxError(t *testing.T) {
	path, _ := writeSource(t, "broken.go", "package broken\n\nfunc Broken( {\n")

	outcome, err := New().ParseFile(path, nil)
	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, types.ErrParseFailed)

	var pe *types.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, path, pe.File)
	assert.Equal(t, 3, pe.Line)
	assert.Contains(t, pe.Message, "syntax error")
}

func TestParseFile_InitAndBlank(t *testing.T) {
	src := `package boot

func init() {}

func init() {}

var _ = 1

func _() {}
`
	path, scope := writeSource(t, "boot.go", src)

	outcome, err := New().ParseFile(path, nil)
	require.NoError(t, err)
	require.Len(t, outcome.Symbols, 2)
	assert.Equal(t, scope+"boot.init@boot.go:3", outcome.Symbols[0].ID)
	assert.Equal(t, scope+"boot.init@boot.go:5", outcome.Symbols[1].ID)
}

func TestParseFile_MethodOrdering(t *testing.T) {
	src := `package later

func (l *Later) Do() {}

func (r Remote) Ping() {}

type Later struct{}
`
	path, scope := writeSource(t, "later.go", src)

	outcome, err := New().ParseFile(path, nil)
	require.NoError(t, err)

	do, ok := symbolByID(outcome, scope+"later.Later.Do")
	require.True(t, ok)
	assert.Equal(t, scope+"later.Later", do.ParentID, "receiver declared later in the same file")

	ping, ok := symbolByID(outcome, scope+"later.Remote.Ping")
	require.True(t, ok)
	assert.Empty(t, ping.ParentID, "receiver declared in another file")
	assert.True(t, hasRelation(outcome, scope+"later.Remote", ping.ID, types.RelationContains))
}

func TestParseFile_CrossFileCalls(t *testing.T) {
	src := `package multi

func Run() {
	helper()
	x := local()
	_ = x
}

func local() int {
	n := len("abc")
	return n
}
`
	path, scope := writeSource(t, "run.go", src)

	outcome, err := New().ParseFile(path, nil)
	require.NoError(t, err)

	assert.True(t, hasRelation(outcome, scope+"multi.Run", scope+"multi.helper", types.RelationCalls))
	assert.True(t, hasRelation(outcome, scope+"multi.Run", scope+"multi.local", types.RelationCalls))
	for _, rel := range outcome.Relations {
		assert.NotEqual(t, scope+"multi.len", rel.TargetID)
		assert.NotEqual(t, scope+"multi.n", rel.TargetID)
	}
}

func TestParseFile_Interface(t *testing.T) {
	src := `package repo

type Reader interface {
	Read(p []byte) (n int, err error)
}

// UserRepository stores users
type UserRepository interface {
	Reader
	Find(id string) (*Record, error)
}

type Record struct{}
`
	path, scope := writeSource(t, "repo.go", src)

	outcome, err := New().ParseFile(path, nil)
	require.NoError(t, err)

	find, ok := symbolByID(outcome, scope+"repo.UserRepository.Find")
	require.True(t, ok)
	assert.Equal(t, types.KindMethod, find.Kind)
	assert.Equal(t, scope+"repo.UserRepository", find.ParentID)
	assert.Equal(t, "Find(id string) (*Record, error)", find.Signature)

	read, ok := symbolByID(outcome, scope+"repo.Reader.Read")
	require.True(t, ok)
	assert.Equal(t, "Read(p []byte) (n int, err error)", read.Signature)

	assert.True(t, hasRelation(outcome, scope+"repo.UserRepository", scope+"repo.Reader", types.RelationInheritsFrom))
	assert.True(t, hasRelation(outcome, find.ID, scope+"repo.Record", types.RelationUses))

	iface, ok := symbolByID(outcome, scope+"repo.UserRepository")
	require.True(t, ok)
	assert.Equal(t, "true", iface.Metadata[MetaRepository])
	assert.Equal(t, "type UserRepository interface { ... } // 2 methods", iface.Signature)
}

func TestParseFile_Generics(t *testing.T) {
	src := `package gen

type List[T any] struct {
	items []T
}

func (l *List[T]) Push(v T) {
	l.items = append(l.items, v)
}

func Map[T, U any](in []T, f func(T) U) []U {
	return nil
}
`
	path, scope := writeSource(t, "gen.go", src)

	outcome, err := New().ParseFile(path, nil)
	require.NoError(t, err)

	push, ok := symbolByID(outcome, scope+"gen.List.Push")
	require.True(t, ok)
	assert.Equal(t, scope+"gen.List", push.ParentID)

	m, ok := symbolByID(outcome, scope+"gen.Map")
	require.True(t, ok)
	assert.Equal(t, "func Map[T any, U any](in []T, f func(T) U) []U", m.Signature)

	for _, rel := range outcome.Relations {
		assert.NotEqual(t, scope+"gen.T", rel.TargetID, "type parameters are local")
	}
}
