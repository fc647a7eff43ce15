package classify

// rules is the classification table for the tree-sitter Python grammar.
//
// The kind tags match the grammar's node catalog. Kinds absent from the
// table fall back to [Generic] when the caller allows it; keeping the table
// explicit makes grammar drift visible instead of silently mis-rendering.
var rules = map[string]Rule{
	// Structure
	"module":               {PositionalRole: "body"},
	"block":                {PositionalRole: "body"},
	"expression_statement": {PositionalRole: "value"},
	"decorated_definition": {PositionalRole: "parts"},
	"decorator":            {PositionalRole: "value"},

	// Statements
	"assignment":           {},
	"augmented_assignment": {},
	"return_statement":     {PositionalRole: "value"},
	"delete_statement":     {PositionalRole: "targets"},
	"raise_statement":      {PositionalRole: "value"},
	"assert_statement":     {PositionalRole: "args"},
	"global_statement":     {PositionalRole: "names"},
	"nonlocal_statement":   {PositionalRole: "names"},
	"pass_statement":       {Inline: true},
	"break_statement":      {Inline: true},
	"continue_statement":   {Inline: true},
	"if_statement":         {},
	"elif_clause":          {},
	"else_clause":          {PositionalRole: "body"},
	"for_statement":        {},
	"while_statement":      {},
	"try_statement":        {PositionalRole: "body"},
	"except_clause":        {PositionalRole: "body"},
	"finally_clause":       {PositionalRole: "body"},
	"with_statement":       {PositionalRole: "body"},
	"with_clause":          {PositionalRole: "items"},
	"with_item":            {},
	"match_statement":      {PositionalRole: "body"},
	"case_clause":          {PositionalRole: "body"},
	"case_pattern":         {PositionalRole: "value"},

	// Imports
	"import_statement":        {PositionalRole: "names"},
	"import_from_statement":   {PositionalRole: "names"},
	"future_import_statement": {PositionalRole: "names"},
	"dotted_name":             {PositionalRole: "parts"},
	"aliased_import":          {},
	"relative_import":         {PositionalRole: "parts"},
	"wildcard_import":         {Inline: true},

	// Definitions
	"function_definition":      {},
	"class_definition":         {},
	"parameters":               {PositionalRole: "params"},
	"lambda":                   {},
	"lambda_parameters":        {PositionalRole: "params"},
	"typed_parameter":          {PositionalRole: "name"},
	"default_parameter":        {},
	"typed_default_parameter":  {},
	"list_splat_pattern":       {PositionalRole: "name"},
	"dictionary_splat_pattern": {PositionalRole: "name"},
	"keyword_separator":        {Inline: true},
	"positional_separator":     {Inline: true},
	"type":                     {PositionalRole: "value"},
	"argument_list":            {PositionalRole: "args"},
	"keyword_argument":         {},

	// Expressions
	"binary_operator":          {},
	"unary_operator":           {},
	"not_operator":             {PositionalRole: "argument"},
	"boolean_operator":         {},
	"comparison_operator":      {PositionalRole: "operands"},
	"conditional_expression":   {PositionalRole: "parts"},
	"parenthesized_expression": {PositionalRole: "value"},
	"call":                     {},
	"attribute":                {},
	"subscript":                {},
	"slice":                    {PositionalRole: "parts"},
	"await":                    {PositionalRole: "value"},
	"yield":                    {PositionalRole: "value"},
	"expression_list":          {PositionalRole: "values"},
	"pattern_list":             {PositionalRole: "patterns"},
	"tuple_pattern":            {PositionalRole: "elements"},
	"list_pattern":             {PositionalRole: "elements"},

	// Containers and comprehensions
	"list":                     {PositionalRole: "elements"},
	"tuple":                    {PositionalRole: "elements"},
	"set":                      {PositionalRole: "elements"},
	"dictionary":               {PositionalRole: "entries"},
	"pair":                     {},
	"list_comprehension":       {PositionalRole: "parts"},
	"set_comprehension":        {PositionalRole: "parts"},
	"dictionary_comprehension": {PositionalRole: "parts"},
	"generator_expression":     {PositionalRole: "parts"},
	"for_in_clause":            {PositionalRole: "parts"},
	"if_clause":                {PositionalRole: "condition"},

	// Literals and atoms
	"identifier":          {Inline: true},
	"integer":             {Inline: true},
	"float":               {Inline: true},
	"true":                {Inline: true},
	"false":               {Inline: true},
	"none":                {Inline: true},
	"ellipsis":            {Inline: true},
	"string":              {Inline: true, PositionalRole: "parts"},
	"string_start":        {Inline: true},
	"string_content":      {Inline: true},
	"string_end":          {Inline: true},
	"escape_sequence":     {Inline: true},
	"concatenated_string": {PositionalRole: "parts"},
	"interpolation":       {PositionalRole: "value"},
	"format_specifier":    {PositionalRole: "parts"},
}
