package parser

var KEYWORDS = map[string]TokenType{
	"def":    DEF,
	"extern": EXTERN,
	"if":     IF,
	"then":   THEN,
	"else":   ELSE,
	"for":    FOR,
	"while":  WHILE,
	"in":     IN,
	"var":    VAR,
}

func lookupIdentifier(name string) TokenType {
	if t, ok := KEYWORDS[name]; ok {
		return t
	}
	return IDENTIFIER
}
