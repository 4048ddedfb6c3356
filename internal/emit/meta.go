package emit

import (
	"github.com/cmmoran/aboutgen/internal/model"
	"github.com/cmmoran/aboutgen/internal/scope"
)

// fieldTypes resolves the type spelled in each field's member-name wrapper:
// the qualified name of a declaration of this tree, or the opaque type name.
func (e *ClassEmitter) fieldTypes(path scope.Path, c *model.Class, fields []*model.Field) ([]string, error) {
	owner := scope.Qualify(path, c)
	out := make([]string, len(fields))
	for i, f := range fields {
		t, err := e.resolveType(owner, f)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func (e *ClassEmitter) resolveType(owner string, f *model.Field) (string, error) {
	if f.Type.Decl != nil {
		if e.index == nil {
			return "", errUnresolved(owner, f)
		}
		name, ok := e.index.QualifiedName(f.Type.Decl)
		if !ok {
			return "", errUnresolved(owner, f)
		}
		return name, nil
	}
	if f.Type.Name == "" {
		return "", errUnresolved(owner, f)
	}
	return f.Type.Name, nil
}

func writeEnumMeta(o *sink, path scope.Path, en *model.Enumeration) {
	qualified := scope.Qualify(path, en)
	o.printf("\n/**\n * @brief Reflection information for <code>%s</code>\n */\n", qualified)
	o.printf("template <> struct ClassMetaInfo<%s>\n{\n", qualified)
	o.printf("  /// Enum name as string literal\n")
	o.printf("  static constexpr const char* name = \"%s\";\n\n", en.Name)
	o.printf("  /// Enum name with full namespace as string literal\n")
	o.printf("  static constexpr const char* absolute_name = \"%s\";\n", qualified)
	o.printf("};  // struct ClassMetaInfo<%s>\n", qualified)
}
