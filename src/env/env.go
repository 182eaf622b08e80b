// Package env implements the Lowering Environment: the register file,
// name-to-register bindings, the shared functions directory, stack-frame
// bookkeeping and the constant-tracking side-table threaded through every
// lowering call.
//
// Grounded on vslc's backend/regfile.RegisterFile abstraction and the
// lowest-free-index allocation strategy of backend/arm's
// CreateRegisterFile/GetNextTempI, generalized to the line-addressed
// machine this module targets and split per the redesign notes so
// register occupancy and constant tracking are two maps, not one.
package env

import "armgen/src/ir"

// reserved holds the register indices fresh_register never returns.
var reserved = map[int]struct{}{
	ir.X0: {},
	ir.SP: {},
	ir.RP: {},
}

// FunctionEntry is one {name, entry_line} record in the functions directory.
type FunctionEntry struct {
	Name string
	Line int
}

// FunctionTable is the functions directory shared by the top-level
// Environment and every callee Environment lowered from it: the table is
// passed by reference rather than copied into each fresh Environment, so a
// function recorded in any scope is resolvable by every call site lowered
// after its definition, nested or not. A function is recorded when its
// definition is lowered; a call site lowered before that does not find it.
type FunctionTable struct {
	entries []FunctionEntry
	byName  map[string]int
}

// NewFunctionTable returns an empty functions directory.
func NewFunctionTable() *FunctionTable {
	return &FunctionTable{byName: make(map[string]int)}
}

// Record appends (name, line) to the directory. It is an error to record
// the same name twice.
func (ft *FunctionTable) Record(name string, line int) error {
	if _, ok := ft.byName[name]; ok {
		return &DuplicateFunctionError{Name: name}
	}
	ft.byName[name] = len(ft.entries)
	ft.entries = append(ft.entries, FunctionEntry{Name: name, Line: line})
	return nil
}

// Find returns the entry line for name, or ok == false if undeclared.
func (ft *FunctionTable) Find(name string) (line int, ok bool) {
	idx, ok := ft.byName[name]
	if !ok {
		return 0, false
	}
	return ft.entries[idx].Line, true
}

// DuplicateFunctionError reports a second definition of the same function
// name; the functions directory permits at most one entry per name.
type DuplicateFunctionError struct {
	Name string
}

func (e *DuplicateFunctionError) Error() string {
	return "function already defined: " + e.Name
}

// knownValue is the constant-tracking side-table entry for one register:
// either a statically known integer or the "not a constant" marker.
type knownValue struct {
	value int64
	known bool
}

// Environment is the Lowering Environment of a single function body (or
// the top-level program). It owns the register file, the name<->register
// bindings, the constant-tracking side-table, the operand stack used by
// the call protocol, and a reference to the shared functions directory.
type Environment struct {
	occupied [ir.NumRegisters]bool
	values   map[int]knownValue
	bindings map[string]int
	funcs    *FunctionTable
	stack    *Stack
	stackLen int
}

// New returns a fresh Environment sharing funcs with any enclosing scope.
// Name<->register bindings and register occupancy are never inherited,
// per §5: a callee's body is lowered against its own Environment object so
// the caller's register state is preserved by construction.
func New(funcs *FunctionTable) *Environment {
	return &Environment{
		values:   make(map[int]knownValue),
		bindings: make(map[string]int),
		funcs:    funcs,
		stack:    NewStack(),
	}
}

// Funcs returns the shared functions directory.
func (e *Environment) Funcs() *FunctionTable { return e.funcs }

// Stack returns the operand stack used for caller-save bookkeeping.
func (e *Environment) Stack() *Stack { return e.stack }

// StackSize returns the current logical stack-size counter.
func (e *Environment) StackSize() int { return e.stackLen }

// GrowStack advances the logical stack-size counter by n words.
func (e *Environment) GrowStack(n int) { e.stackLen += n }

// UnknownNameError reports a reference to a name with no active binding.
type UnknownNameError struct {
	Name string
}

func (e *UnknownNameError) Error() string { return "unknown name: " + e.Name }

// NoFreeRegisterError reports register-file exhaustion.
type NoFreeRegisterError struct{}

func (e *NoFreeRegisterError) Error() string { return "no free register" }

// RegisterInUseError reports a bind() call targeting a register already
// holding another live binding.
type RegisterInUseError struct {
	Register int
}

func (e *RegisterInUseError) Error() string {
	return "register already in use"
}

// Bind records name -> reg. It fails if reg is already bound to a
// different name; a register merely reserved as scratch (by
// FreshRegister, with no name attached yet) is fair game.
func (e *Environment) Bind(name string, reg int) error {
	for boundName, boundReg := range e.bindings {
		if boundReg == reg && boundName != name {
			return &RegisterInUseError{Register: reg}
		}
	}
	e.occupied[reg] = true
	e.bindings[name] = reg
	return nil
}

// Lookup returns the register bound to name.
func (e *Environment) Lookup(name string) (int, error) {
	reg, ok := e.bindings[name]
	if !ok {
		return 0, &UnknownNameError{Name: name}
	}
	return reg, nil
}

// LookupOrBind returns the register bound to name, binding it to a fresh
// register first if it has no binding yet (the assignment-statement
// "lookup_or_bind" used for `x = e` when x is not a function parameter).
func (e *Environment) LookupOrBind(name string) (int, error) {
	if reg, ok := e.bindings[name]; ok {
		return reg, nil
	}
	reg, err := e.FreshRegister()
	if err != nil {
		return 0, err
	}
	if err := e.Bind(name, reg); err != nil {
		return 0, err
	}
	return reg, nil
}

// FreshRegister returns the lowest-indexed register that is neither
// currently occupied nor one of {X0, SP, RP}, following the lowest-free-
// index scan vslc's GetNextTempI performs over its reserved register range.
func (e *Environment) FreshRegister() (int, error) {
	for i := 0; i < ir.NumRegisters; i++ {
		if _, isReserved := reserved[i]; isReserved {
			continue
		}
		if !e.occupied[i] {
			e.occupied[i] = true
			return i, nil
		}
	}
	return 0, &NoFreeRegisterError{}
}

// FreeIfTemporary releases reg iff no name is bound to it; a no-op on
// registers holding a named variable.
func (e *Environment) FreeIfTemporary(reg int) {
	for _, bound := range e.bindings {
		if bound == reg {
			return
		}
	}
	e.occupied[reg] = false
	delete(e.values, reg)
}

// Remember records that reg currently holds the statically known value v.
func (e *Environment) Remember(reg int, v int64) {
	e.values[reg] = knownValue{value: v, known: true}
}

// RememberUnknown marks reg as not holding a statically known value.
func (e *Environment) RememberUnknown(reg int) {
	e.values[reg] = knownValue{known: false}
}

// KnownValue returns the statically known value currently tracked for reg,
// if any.
func (e *Environment) KnownValue(reg int) (int64, bool) {
	kv, ok := e.values[reg]
	if !ok || !kv.known {
		return 0, false
	}
	return kv.value, true
}

// KnownValueForName is a convenience used by constant propagation: the
// statically known value of the register currently bound to name, if any.
func (e *Environment) KnownValueForName(name string) (int64, bool) {
	reg, ok := e.bindings[name]
	if !ok {
		return 0, false
	}
	return e.KnownValue(reg)
}

// registerSnapshot captures a register's occupancy and known-value state so
// the call protocol's caller-save bookkeeping can restore it verbatim.
type registerSnapshot struct {
	occupied bool
	value    knownValue
}

// SaveRegister pushes reg's current state onto the operand stack. This is
// the Environment-level half of the call protocol's "save to the stack"
// steps: it has no IR effect by itself, since the instruction set has no
// store opcode (see SPEC_FULL.md's resolution of the call-protocol
// ambiguity).
func (e *Environment) SaveRegister(reg int) {
	e.stack.Push(registerSnapshot{occupied: e.occupied[reg], value: e.values[reg]})
}

// RestoreRegister pops the most recently saved snapshot and applies it to
// reg.
func (e *Environment) RestoreRegister(reg int) {
	snap := e.stack.Pop().(registerSnapshot)
	e.occupied[reg] = snap.occupied
	if snap.value.known {
		e.values[reg] = snap.value
	} else {
		delete(e.values, reg)
	}
}

// RecordFunction appends (name, line) to the shared functions directory.
func (e *Environment) RecordFunction(name string, line int) error {
	return e.funcs.Record(name, line)
}

// FindFunction looks up name in the shared functions directory.
func (e *Environment) FindFunction(name string) (int, bool) {
	return e.funcs.Find(name)
}
