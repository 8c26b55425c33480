package boardfile

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
)

// Parser reads board definition files.
type Parser struct {
	parser *participle.Parser[File]
}

// NewParser creates a new board file parser instance.
func NewParser() (*Parser, error) {
	parser, err := participle.Build[File](
		participle.Lexer(BoardLexer),
		participle.Elide("Comment", "Whitespace"),
		participle.Unquote("String"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, fmt.Errorf("boardfile: failed to build parser: %w", err)
	}
	return &Parser{parser: parser}, nil
}

// Parse parses a board file from a reader. name is used in positions.
func (p *Parser) Parse(name string, r io.Reader) (*File, error) {
	f, err := p.parser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("boardfile: parse error: %w", err)
	}
	return f, nil
}

// ParseString parses a board file from a string.
func (p *Parser) ParseString(input string) (*File, error) {
	f, err := p.parser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("boardfile: parse error: %w", err)
	}
	return f, nil
}

// ParseFile parses a board file from a file path.
func (p *Parser) ParseFile(filename string) (*File, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("boardfile: failed to open file: %w", err)
	}
	defer file.Close()

	return p.Parse(filename, file)
}

// Boards parses r and converts every board it declares.
func (p *Parser) Boards(name string, r io.Reader) ([]*hw.Board, error) {
	f, err := p.Parse(name, r)
	if err != nil {
		return nil, err
	}
	return f.ToBoards()
}
