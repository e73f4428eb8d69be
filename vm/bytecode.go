package vm

import (
	"fmt"

	"github.com/jpamb/interpreter/jvm"
)

// Loader supplies the program image: decoded instruction lists per method
// and class metadata per class. Implementations must present a fixed,
// immutable image for the lifetime of a run.
type Loader interface {
	MethodOpcodes(method jvm.AbsMethodID) ([]jvm.Opcode, error)
	FindClass(class jvm.ClassName) (*jvm.ClassFile, error)
}

// Bytecode is the instruction store: it answers instruction lookups by PC,
// requesting each method's instruction list from the Loader on first
// reference and memoizing it for the rest of the run. There is no
// invalidation.
type Bytecode struct {
	loader  Loader
	methods map[string][]jvm.Opcode
}

// NewBytecode creates an instruction store over the given loader.
func NewBytecode(loader Loader) *Bytecode {
	return &Bytecode{
		loader:  loader,
		methods: make(map[string][]jvm.Opcode),
	}
}

// At returns the instruction addressed by pc.
func (b *Bytecode) At(pc PC) (jvm.Opcode, error) {
	ops, err := b.method(pc.Method)
	if err != nil {
		return nil, err
	}
	if pc.Offset < 0 || pc.Offset >= len(ops) {
		return nil, fmt.Errorf("%w: offset %d outside method %s (%d instructions)",
			ErrMalformedProgram, pc.Offset, pc.Method, len(ops))
	}
	return ops[pc.Offset], nil
}

func (b *Bytecode) method(method jvm.AbsMethodID) ([]jvm.Opcode, error) {
	key := method.Key()
	if ops, ok := b.methods[key]; ok {
		return ops, nil
	}
	ops, err := b.loader.MethodOpcodes(method)
	if err != nil {
		return nil, fmt.Errorf("loading method %s: %w", method, err)
	}
	b.methods[key] = ops
	return ops, nil
}

// StaticField resolves a static field to its recorded initial value, or the
// default for its declared type when the image records none.
func (b *Bytecode) StaticField(field jvm.AbsFieldID) (jvm.Value, error) {
	cf, err := b.loader.FindClass(field.Class)
	if err != nil {
		return jvm.Value{}, fmt.Errorf("loading class %s: %w", field.Class, err)
	}
	f, ok := cf.Field(field.Field.Name)
	if !ok {
		return jvm.Value{}, fmt.Errorf("%w: static field %s", ErrMalformedProgram, field)
	}
	if f.Value != nil {
		return *f.Value, nil
	}
	if f.Type == nil {
		return jvm.Value{}, fmt.Errorf("%w: static field %s has no type", ErrMalformedProgram, field)
	}
	return jvm.DefaultValue(f.Type), nil
}

// NewInstance builds an object value for class with every declared instance
// field default-initialized by its type.
func (b *Bytecode) NewInstance(class jvm.ClassName) (jvm.Value, error) {
	cf, err := b.loader.FindClass(class)
	if err != nil {
		return jvm.Value{}, fmt.Errorf("loading class %s: %w", class, err)
	}
	fields := make(map[string]jvm.Value)
	for _, f := range cf.Fields {
		if f.Static {
			continue
		}
		if f.Type == nil {
			return jvm.Value{}, fmt.Errorf("%w: field %s.%s has no type", ErrMalformedProgram, class, f.Name)
		}
		fields[f.Name] = jvm.DefaultValue(f.Type)
	}
	return jvm.ObjectOf(class, fields), nil
}
