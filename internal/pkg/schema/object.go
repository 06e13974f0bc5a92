package schema

// Describer is implemented by schemas that can name what they expect. The text
// ends up in Issue.Expected for missing required fields.
type Describer interface {
	Describe() string
}

func (stringSchema) Describe() string       { return "string" }
func (l literalSchema[T]) Describe() string { return `"` + string(l.want) + `"` }
func (e enumSchema[T]) Describe() string    { return e.expected() }
func (timestampSchema) Describe() string    { return "ISO-8601 timestamp" }
func (intSchema) Describe() string          { return "integer" }
func (a arraySchema[E]) Describe() string   { return "array" }

func describe(s any) string {
	if d, ok := s.(Describer); ok {
		return d.Describe()
	}
	return "value"
}

// Field binds one JSON property to a destination inside T.
type Field[T any] struct {
	name     string
	required bool
	nullable bool
	expected string
	parse    func(raw any, dst *T) error
}

// Name returns the JSON property name.
func (f Field[T]) Name() string { return f.name }

// IsRequired reports whether absence of the property is an issue.
func (f Field[T]) IsRequired() bool { return f.required }

func bind[T, F any](name string, s Schema[F], set func(*T, F)) Field[T] {
	return Field[T]{
		name:     name,
		expected: describe(s),
		parse: func(raw any, dst *T) error {
			v, err := s.Parse(raw)
			if err != nil {
				return err
			}
			set(dst, v)
			return nil
		},
	}
}

// Required declares a property that must be present and satisfy s.
func Required[T, F any](name string, s Schema[F], set func(*T, F)) Field[T] {
	f := bind(name, s, set)
	f.required = true
	return f
}

// Optional declares a property that may be absent. A present null is still an
// invalid_type issue.
func Optional[T, F any](name string, s Schema[F], set func(*T, F)) Field[T] {
	return bind(name, s, set)
}

// Nullish declares a property that may be absent or null.
func Nullish[T, F any](name string, s Schema[F], set func(*T, F)) Field[T] {
	f := bind(name, s, set)
	f.nullable = true
	return f
}

// Embed lifts fields declared on E into T through get, the way an embedded
// struct shares its fields with the outer one.
func Embed[T, E any](get func(*T) *E, fields ...Field[E]) []Field[T] {
	out := make([]Field[T], 0, len(fields))
	for _, f := range fields {
		f := f
		out = append(out, Field[T]{
			name:     f.name,
			required: f.required,
			nullable: f.nullable,
			expected: f.expected,
			parse:    func(raw any, dst *T) error { return f.parse(raw, get(dst)) },
		})
	}
	return out
}

// ObjectSchema parses JSON objects into T. Unknown properties are dropped.
type ObjectSchema[T any] struct {
	fields  []Field[T]
	refines []func(T) Issues
}

// Object declares an object schema from its fields, evaluated in order.
func Object[T any](fields ...Field[T]) *ObjectSchema[T] {
	return &ObjectSchema[T]{fields: fields}
}

// With returns a copy of the schema with more fields appended. A field whose
// name is already declared replaces the earlier declaration.
func (o *ObjectSchema[T]) With(fields ...Field[T]) *ObjectSchema[T] {
	out := &ObjectSchema[T]{
		fields:  make([]Field[T], 0, len(o.fields)+len(fields)),
		refines: append([]func(T) Issues(nil), o.refines...),
	}
	out.fields = append(out.fields, o.fields...)
	for _, f := range fields {
		replaced := false
		for i := range out.fields {
			if out.fields[i].name == f.name {
				out.fields[i] = f
				replaced = true
				break
			}
		}
		if !replaced {
			out.fields = append(out.fields, f)
		}
	}
	return out
}

// Refine adds an object-level check that runs after every field parsed
// successfully. Returned issue paths are relative to the object.
func (o *ObjectSchema[T]) Refine(fn func(T) Issues) *ObjectSchema[T] {
	if fn != nil {
		o.refines = append(o.refines, fn)
	}
	return o
}

// Fields returns the declared fields in order.
func (o *ObjectSchema[T]) Fields() []Field[T] {
	return append([]Field[T](nil), o.fields...)
}

func (o *ObjectSchema[T]) Describe() string { return "object" }

func (o *ObjectSchema[T]) Parse(v any) (T, error) {
	var out T
	src, ok := v.(map[string]any)
	if !ok {
		return out, Issues{{Path: "/", Code: CodeInvalidType, Expected: "object", Actual: v, Message: "expected object, received " + kindOf(v)}}
	}
	var iss Issues
	for _, f := range o.fields {
		path := "/" + escapePointer(f.name)
		raw, present := src[f.name]
		if !present || (raw == nil && f.nullable) {
			if f.required {
				iss = append(iss, Issue{Path: path, Code: CodeRequired, Expected: f.expected, Message: "required property missing"})
			}
			continue
		}
		if err := f.parse(raw, &out); err != nil {
			iss = append(iss, childIssues(path, err)...)
		}
	}
	if len(iss) > 0 {
		var zero T
		return zero, iss
	}
	for _, fn := range o.refines {
		iss = append(iss, fn(out)...)
	}
	if len(iss) > 0 {
		var zero T
		return zero, iss
	}
	return out, nil
}
