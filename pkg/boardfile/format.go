package boardfile

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
)

// Write renders boards in the board file syntax. The output parses back to
// the same boards.
func Write(w io.Writer, boards ...*hw.Board) error {
	for i, b := range boards {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, Format(b)); err != nil {
			return err
		}
	}
	return nil
}

// Format renders one board.
func Format(b *hw.Board) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "board %s is\n", b.ID)
	if b.Name != "" && b.Name != b.ID {
		fmt.Fprintf(&sb, "  name %s;\n", strconv.Quote(b.Name))
	}
	fmt.Fprintf(&sb, "  supply %s;\n", number(b.SupplyVoltage))
	fmt.Fprintf(&sb, "  logic %s;\n", number(b.LogicVoltage))
	fmt.Fprintf(&sb, "  max_current %s;\n", number(b.MaxCurrentMA))
	for _, t := range b.Timers {
		ids := make([]string, len(t.Pins))
		for i, p := range t.Pins {
			ids[i] = pinID(p)
		}
		fmt.Fprintf(&sb, "  timer %s (%s);\n", t.Name, strings.Join(ids, ", "))
	}
	for _, p := range b.Pins {
		caps := p.Caps.List()
		names := make([]string, len(caps))
		for i, c := range caps {
			names[i] = capName(c)
		}
		fmt.Fprintf(&sb, "  pin %s : %s (%s);\n", pinID(p.ID), p.Type, strings.Join(names, ", "))
	}
	fmt.Fprintf(&sb, "end %s;\n", b.ID)
	return sb.String()
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// pinID quotes ids that do not lex as identifiers.
func pinID(id string) string {
	if id == "" {
		return `""`
	}
	for i, r := range id {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9')
		if !ok {
			return strconv.Quote(id)
		}
	}
	if isKeyword(id) {
		return strconv.Quote(id)
	}
	return id
}

func isKeyword(s string) bool {
	switch strings.ToLower(s) {
	case "board", "is", "end", "name", "supply", "logic", "max_current", "timer", "pin":
		return true
	}
	return false
}

// capName writes capabilities in the snake_case file form.
func capName(c hw.Capability) string {
	switch c {
	case hw.I2cSda:
		return "i2c_sda"
	case hw.I2cScl:
		return "i2c_scl"
	case hw.SpiMosi:
		return "spi_mosi"
	case hw.SpiMiso:
		return "spi_miso"
	case hw.SpiSck:
		return "spi_sck"
	case hw.UartTx:
		return "uart_tx"
	case hw.UartRx:
		return "uart_rx"
	case hw.Power5V:
		return "power_5v"
	case hw.Power3V3:
		return "power_3v3"
	case hw.PowerVin:
		return "power_vin"
	}
	return strings.ToLower(c.String())
}
