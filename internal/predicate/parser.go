package predicate

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser parses a WHERE clause into a conjunction of Comparisons.
//
// The accepted grammar is the subset the pruning core can reason about:
// top-level AND of comparisons, IN lists, and = ANY / = ALL arrays. OR and
// NOT between predicates are not part of the canonical form and produce a
// parse error rather than silently unprunable output.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a parser over a token stream.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// ParseWhere parses a WHERE clause string into its list of conjuncts.
func ParseWhere(input string) ([]Comparison, error) {
	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		return nil, err
	}
	p := NewParser(tokens)
	preds, err := p.parseConjunction()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != TokenEOF {
		return nil, p.errorf("unexpected token after expression: %q", p.peek().Literal)
	}
	return preds, nil
}

func (p *Parser) peek() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return Token{Type: TokenEOF}
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return Token{}, p.errorf("unexpected token %q", tok.Literal)
	}
	return p.advance(), nil
}

func (p *Parser) match(tt TokenType) bool {
	if p.peek().Type == tt {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	tok := p.peek()
	return fmt.Errorf("line %d col %d: %s", tok.Line, tok.Col, fmt.Sprintf(format, args...))
}

func (p *Parser) parseConjunction() ([]Comparison, error) {
	var preds []Comparison

	for {
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		preds = append(preds, term...)

		switch p.peek().Type {
		case TokenAND:
			p.advance()
		case TokenOR:
			return nil, p.errorf("OR between predicates is not supported")
		case TokenNOT:
			return nil, p.errorf("NOT is not supported")
		default:
			return preds, nil
		}
	}
}

// parseTerm parses either a parenthesized conjunction or a single comparison.
func (p *Parser) parseTerm() ([]Comparison, error) {
	if p.peek().Type == TokenLParen {
		p.advance()
		preds, err := p.parseConjunction()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return preds, nil
	}

	cmp, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	return []Comparison{cmp}, nil
}

func (p *Parser) parseComparison() (Comparison, error) {
	left, err := p.parseOperand()
	if err != nil {
		return Comparison{}, err
	}

	// col IN (v1, v2, ...) is sugar for col = ANY
	if p.peek().Type == TokenIN {
		p.advance()
		values, err := p.parseValueList()
		if err != nil {
			return Comparison{}, err
		}
		return Comparison{Left: left, Op: OpEqual, Right: Array{Values: values, UseOr: true}}, nil
	}

	op := tokenOperator(p.peek().Type)
	if op == OpInvalid {
		return Comparison{}, p.errorf("expected comparison operator, got %q", p.peek().Literal)
	}
	p.advance()

	// col = ANY (...) / col = ALL (...)
	switch p.peek().Type {
	case TokenANY, TokenALL:
		useOr := p.advance().Type == TokenANY
		values, err := p.parseValueList()
		if err != nil {
			return Comparison{}, err
		}
		return Comparison{Left: left, Op: op, Right: Array{Values: values, UseOr: useOr}}, nil
	}

	right, err := p.parseOperand()
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{Left: left, Op: op, Right: right}, nil
}

func (p *Parser) parseOperand() (Operand, error) {
	tok := p.peek()

	switch tok.Type {
	case TokenNumber:
		p.advance()
		v, err := parseNumber(tok.Literal)
		if err != nil {
			return nil, err
		}
		return Const{Value: v}, nil

	case TokenString:
		p.advance()
		return Const{Value: tok.Literal}, nil

	case TokenIdentifier:
		p.advance()
		if p.peek().Type == TokenLParen {
			return p.parseFunctionCall(tok.Literal)
		}
		return Column{Name: tok.Literal}, nil

	default:
		return nil, p.errorf("unexpected token %q in expression", tok.Literal)
	}
}

func (p *Parser) parseFunctionCall(name string) (Operand, error) {
	p.advance() // consume (

	var args []Operand
	if p.peek().Type != TokenRParen {
		for {
			arg, err := p.parseOperand()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(TokenComma) {
				break
			}
		}
	}

	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	return Func{Name: strings.ToLower(name), Args: args}, nil
}

// parseValueList parses (v1, v2, ...) with at least one constant.
func (p *Parser) parseValueList() ([]interface{}, error) {
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	var values []interface{}
	for {
		tok := p.peek()
		switch tok.Type {
		case TokenNumber:
			p.advance()
			v, err := parseNumber(tok.Literal)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		case TokenString:
			p.advance()
			values = append(values, tok.Literal)
		default:
			return nil, p.errorf("expected constant in value list, got %q", tok.Literal)
		}
		if !p.match(TokenComma) {
			break
		}
	}

	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return values, nil
}

func parseNumber(lit string) (interface{}, error) {
	if strings.Contains(lit, ".") {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	n, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func tokenOperator(tt TokenType) Operator {
	switch tt {
	case TokenEQ:
		return OpEqual
	case TokenNEQ:
		return OpNotEqual
	case TokenLT:
		return OpLess
	case TokenGT:
		return OpGreater
	case TokenLTE:
		return OpLessEqual
	case TokenGTE:
		return OpGreaterEqual
	default:
		return OpInvalid
	}
}
