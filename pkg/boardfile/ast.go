package boardfile

import "github.com/alecthomas/participle/v2/lexer"

// File is a board definition file. One file may declare several boards.
type File struct {
	Boards []*BoardDecl `@@*`
}

// BoardDecl is one board block.
// Example: board UNO_R3 is ... end UNO_R3;
type BoardDecl struct {
	Pos lexer.Position

	ID         string       `KwBoard @Ident KwIs`
	Statements []*Statement `@@*`
	EndID      string       `KwEnd @Ident? Semicolon`
}

// Statement is one line inside a board block.
type Statement struct {
	Pos lexer.Position

	Name       *string    `  KwName @String Semicolon`
	Supply     *float64   `| KwSupply @( Real | Integer ) Semicolon`
	Logic      *float64   `| KwLogic @( Real | Integer ) Semicolon`
	MaxCurrent *float64   `| KwMaxCurrent @( Real | Integer ) Semicolon`
	Timer      *TimerDecl `| @@ Semicolon`
	Pin        *PinDecl   `| @@ Semicolon`
}

// TimerDecl names a hardware counter and the PWM pins it drives.
// Example: timer TIMER1 (D9, D10);
type TimerDecl struct {
	Name string   `KwTimer @Ident`
	Pins []string `LParen ( @( Ident | String ) ( Comma @( Ident | String ) )* )? RParen`
}

// PinDecl declares one header pin.
// Example: pin D3 : bidirectional (digital, pwm);
type PinDecl struct {
	Pos lexer.Position

	ID   string   `KwPin @( Ident | String )`
	Type string   `Colon @Ident`
	Caps []string `( LParen ( @Ident ( Comma @Ident )* )? RParen )?`
}

// GetPins returns the pin declarations in file order.
func (b *BoardDecl) GetPins() []*PinDecl {
	var pins []*PinDecl
	for _, s := range b.Statements {
		if s.Pin != nil {
			pins = append(pins, s.Pin)
		}
	}
	return pins
}

// GetTimers returns the timer declarations in file order.
func (b *BoardDecl) GetTimers() []*TimerDecl {
	var timers []*TimerDecl
	for _, s := range b.Statements {
		if s.Timer != nil {
			timers = append(timers, s.Timer)
		}
	}
	return timers
}
