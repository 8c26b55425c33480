package boardfile

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// BoardLexer defines the lexical structure of board definition files.
// The syntax borrows VHDL conventions: "--" comments, case-insensitive
// keywords and "name is ... end name;" blocks.
var BoardLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `--[^\n]*`},
	{Name: "Whitespace", Pattern: `[\s\t\n\r]+`},

	// Block structure
	{Name: "KwBoard", Pattern: `(?i)\bBOARD\b`},
	{Name: "KwIs", Pattern: `(?i)\bIS\b`},
	{Name: "KwEnd", Pattern: `(?i)\bEND\b`},

	// Statements
	{Name: "KwName", Pattern: `(?i)\bNAME\b`},
	{Name: "KwSupply", Pattern: `(?i)\bSUPPLY\b`},
	{Name: "KwLogic", Pattern: `(?i)\bLOGIC\b`},
	{Name: "KwMaxCurrent", Pattern: `(?i)\bMAX_CURRENT\b`},
	{Name: "KwTimer", Pattern: `(?i)\bTIMER\b`},
	{Name: "KwPin", Pattern: `(?i)\bPIN\b`},

	{Name: "Colon", Pattern: `:`},
	{Name: "Semicolon", Pattern: `;`},
	{Name: "Comma", Pattern: `,`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},

	// Pin ids that start with a digit ("5V", "3V3") must be quoted.
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},

	{Name: "Real", Pattern: `[0-9]+\.[0-9]+`},
	{Name: "Integer", Pattern: `[0-9]+`},

	// Identifiers (must come after keywords)
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
})
