// Package syntax implements the parser contract the evaluator depends
// on: Parse(text) -> (Expression, error), where a non-nil error is
// always an *errs.SyntaxError. The grammar is a small recursive-descent
// design in the shape of mvdan-sh's own lexer+parser pair
// (_examples/mvdan-sh/syntax/lexer.go, parser.go): a hand-rolled
// tokenizer feeding a precedence-climbing expression parser, tracking
// source positions for diagnostics the way syntax.Pos does in the
// teacher.
package syntax

import "fmt"

// TokKind identifies a lexical token kind.
type TokKind uint8

const (
	TokEOF TokKind = iota
	TokInteger
	TokFloat
	TokString       // "double quoted" (template-rendered at eval)
	TokRawString    // 'single quoted' (parsed to the same value.String as TokString, so also template-rendered at eval)
	TokSymbol       // bare identifier; a leading '_' in infix position is a user-defined operator (parser.parseUserOp)
	TokWord         // bare word in command-argument position (may contain '*', '~', '/')

	TokLParen
	TokRParen
	TokLBracket
	TokRBracket
	TokLBrace
	TokRBrace
	TokComma
	TokSemi
	TokColon
	TokAt     // @
	TokDot    // .
	TokQuote  // '
	TokArrow  // ->

	TokAssign   // =
	TokPlusEq   // +=
	TokMinusEq  // -=
	TokStarEq   // *=
	TokSlashEq  // /=

	TokPlus    // +
	TokMinus   // -
	TokStar    // *
	TokSlash   // /
	TokPercent // %
	TokPow     // **

	TokEq      // ==
	TokNe      // !=
	TokLt      // <
	TokGt      // >
	TokLe      // <=
	TokGe      // >=
	TokAndAnd  // &&
	TokOrOr    // ||
	TokNot     // !
	TokContain // ~~
	TokMatch   // ~=
	TokRange   // ..

	TokPipe       // |
	TokPipeAppend // |>
	TokShr        // >>
	TokShrBang    // >>!
	TokShl        // <<

	TokKwLet
	TokKwIf
	TokKwElse
	TokKwWhile
	TokKwFor
	TokKwIn
	TokKwLoop
	TokKwMatch
	TokKwBreak
	TokKwContinue
	TokKwReturn
	TokKwTrue
	TokKwFalse
	TokKwNone
)

// Pos is a 1-based line/column source position.
type Pos struct {
	Line, Col int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

// Token is one lexical token.
type Token struct {
	Kind TokKind
	Val  string
	Pos  Pos
}

var keywords = map[string]TokKind{
	"let":      TokKwLet,
	"if":       TokKwIf,
	"else":     TokKwElse,
	"while":    TokKwWhile,
	"for":      TokKwFor,
	"in":       TokKwIn,
	"loop":     TokKwLoop,
	"match":    TokKwMatch,
	"break":    TokKwBreak,
	"continue": TokKwContinue,
	"return":   TokKwReturn,
	"True":     TokKwTrue,
	"False":    TokKwFalse,
	"None":     TokKwNone,
}
