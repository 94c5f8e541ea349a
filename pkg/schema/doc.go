// Package schema provides typed validation of preference values.
//
// Preference values are lists of strings. A Schema maps keys to types that
// decide how many values a key may hold and how each one must parse:
//
//	s := schema.Schema{
//	    "count":   schema.Int(),
//	    "enabled": schema.Bool(),
//	    "feeds":   schema.Slice(schema.String()),
//	}
//
//	err := schema.Validate(s, map[string][]string{
//	    "count": {"10"},
//	    "feeds": {"world", "sports"},
//	})
//
// Schemas are usually declared as type strings in a preference definition:
//
//	s, err := schema.ParseTypeMap(map[string]string{
//	    "count": "int",
//	    "feeds": "[string]",
//	})
//
// Validator turns a schema into a ports.PreferencesValidator whose
// rejections carry the failing keys, and Factory plugs it into a
// preferences.Manager.
package schema
