package predicate

// TokenType represents the type of a lexical token.
type TokenType int

const (
	// Literals
	TokenIdentifier TokenType = iota
	TokenNumber               // integer or float literal
	TokenString               // 'single-quoted string'

	// Keywords
	TokenAND
	TokenOR
	TokenNOT
	TokenIN
	TokenANY
	TokenALL

	// Operators and punctuation
	TokenLParen // (
	TokenRParen // )
	TokenComma  // ,
	TokenEQ     // =
	TokenNEQ    // != or <>
	TokenLT     // <
	TokenGT     // >
	TokenLTE    // <=
	TokenGTE    // >=

	TokenEOF
)

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Col     int
}

var keywords = map[string]TokenType{
	"AND": TokenAND,
	"OR":  TokenOR,
	"NOT": TokenNOT,
	"IN":  TokenIN,
	"ANY": TokenANY,
	"ALL": TokenALL,
}

// LookupKeyword returns the keyword token type for an identifier, or TokenIdentifier.
func LookupKeyword(ident string) TokenType {
	// Case-insensitive lookup
	upper := toUpper(ident)
	if tt, ok := keywords[upper]; ok {
		return tt
	}
	return TokenIdentifier
}

func toUpper(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			b[i] = c - 32
		} else {
			b[i] = c
		}
	}
	return string(b)
}
