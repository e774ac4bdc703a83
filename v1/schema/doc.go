// Package schema holds explicit field descriptors and scalar coercion.
//
// A Field describes one named value: its kind, default, whether it is required
// and an optional validator. The settings loader uses fields to validate and
// self-heal configuration trees; database.Map uses a Shape, a constructor plus
// one setter per field, to project result rows into caller types without
// reflection.
//
//	var userShape = schema.Shape[User]{
//	    New: func() User { return User{} },
//	    Fields: []schema.Binding[User]{
//	        schema.Bind(schema.Field{Name: "id", Kind: schema.Int64}, func(u *User, v any) { u.ID = v.(int64) }),
//	        schema.Bind(schema.Field{Name: "name", Kind: schema.String}, func(u *User, v any) { u.Name = v.(string) }),
//	    },
//	}
//
// Coercion is delegated to github.com/spf13/cast, so "42" becomes 42 for an Int
// field and "true" becomes true for a Bool field.
package schema
