package link

// Parser decodes host commands fed one byte at a time.
type Parser struct {
	code   byte
	remain int
	args   []float64
	digits []byte
}

// Pending indicates a command is partially received.
func (p *Parser) Pending() bool {
	return p.code != 0
}

// Reset drops a partially received command.
func (p *Parser) Reset() {
	p.code, p.remain, p.args, p.digits = 0, 0, nil, nil
}

// Parse consumes one byte. It returns a Command when complete. A byte
// violating the format drops the partial command and returns a
// CommandError; the next byte starts a new command.
func (p *Parser) Parse(b byte) (*Command, error) {
	if p.code == 0 {
		return p.parseCode(b)
	}
	if p.code == CmdEffort {
		return p.parseEffort(b)
	}
	if b < '0' || b > '9' {
		code := p.code
		p.Reset()
		return nil, &CommandError{Code: code, Reason: "invalid digit " + quote(b)}
	}
	p.digits = append(p.digits, b)
	if len(p.digits) < FieldWidth {
		return nil, nil
	}
	var v int
	for _, d := range p.digits {
		v = v*10 + int(d-'0')
	}
	p.args = append(p.args, float64(v)/100)
	p.digits = p.digits[:0]
	if p.remain--; p.remain > 0 {
		return nil, nil
	}
	return p.ready(), nil
}

func (p *Parser) parseCode(b byte) (*Command, error) {
	switch b {
	case '\r', '\n', ' ', '\t':
		return nil, nil
	}
	n, ok := numFields[b]
	if !ok {
		return nil, &CommandError{Code: b, Reason: "unknown command"}
	}
	p.code = b
	if n == 0 {
		return p.ready(), nil
	}
	p.remain = n
	p.args = make([]float64, 0, n)
	return nil, nil
}

func (p *Parser) parseEffort(b byte) (*Command, error) {
	switch {
	case b == effortFull:
		p.args = append(p.args, 100)
	case b >= '0' && b <= '9':
		p.args = append(p.args, float64(b-'0')*10)
	default:
		p.Reset()
		return nil, &CommandError{Code: CmdEffort, Reason: "invalid effort " + quote(b)}
	}
	return p.ready(), nil
}

func (p *Parser) ready() *Command {
	cmd := &Command{Code: p.code, Args: p.args}
	p.Reset()
	return cmd
}

func quote(b byte) string {
	if b >= 0x20 && b < 0x7f {
		return "'" + string(b) + "'"
	}
	const hex = "0123456789abcdef"
	return "0x" + string([]byte{hex[b>>4], hex[b&0xf]})
}
