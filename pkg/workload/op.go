package workload

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Script keywords.
const (
	KeywordAlloc   = "alloc"
	KeywordFree    = "free"
	KeywordCheck   = "check"
	CommentPrefix  = "#"
	maxNameLength  = 64
	maxScriptToken = 1 << 20
)

// Kind identifies a workload operation.
type Kind uint8

const (
	OpAlloc Kind = iota + 1
	OpFree
	OpCheck
)

func (k Kind) String() string {
	switch k {
	case OpAlloc:
		return KeywordAlloc
	case OpFree:
		return KeywordFree
	case OpCheck:
		return KeywordCheck
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Op is one workload step.
type Op struct {
	Kind Kind
	Name string // Block name for alloc/free
	Size int    // Request size for alloc
	Line int    // Source line, 0 for generated ops
}

// String renders op in script syntax.
func (op Op) String() string {
	switch op.Kind {
	case OpAlloc:
		return fmt.Sprintf("%s %s %d", KeywordAlloc, op.Name, op.Size)
	case OpFree:
		return fmt.Sprintf("%s %s", KeywordFree, op.Name)
	default:
		return op.Kind.String()
	}
}

// Parse reads a workload script.
func Parse(r io.Reader) ([]Op, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxScriptToken)

	var ops []Op
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		trim := strings.TrimSpace(scanner.Text())
		if trim == "" || strings.HasPrefix(trim, CommentPrefix) {
			continue
		}
		op, err := parseLine(trim)
		if err != nil {
			return nil, fmt.Errorf("workload: line %d: %w", lineNo, err)
		}
		op.Line = lineNo
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("workload: %w", err)
	}
	return ops, nil
}

func parseLine(line string) (Op, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case KeywordAlloc:
		if len(fields) != 3 {
			return Op{}, fmt.Errorf("want %q, got %q", "alloc <name> <size>", line)
		}
		if err := validName(fields[1]); err != nil {
			return Op{}, err
		}
		size, err := strconv.Atoi(fields[2])
		if err != nil {
			return Op{}, fmt.Errorf("bad size %q: %w", fields[2], err)
		}
		if size <= 0 {
			return Op{}, fmt.Errorf("size must be positive, got %d", size)
		}
		return Op{Kind: OpAlloc, Name: fields[1], Size: size}, nil

	case KeywordFree:
		if len(fields) != 2 {
			return Op{}, fmt.Errorf("want %q, got %q", "free <name>", line)
		}
		if err := validName(fields[1]); err != nil {
			return Op{}, err
		}
		return Op{Kind: OpFree, Name: fields[1]}, nil

	case KeywordCheck:
		if len(fields) != 1 {
			return Op{}, fmt.Errorf("%s takes no arguments", KeywordCheck)
		}
		return Op{Kind: OpCheck}, nil
	}
	return Op{}, fmt.Errorf("unknown operation %q", fields[0])
}

func validName(name string) error {
	if len(name) > maxNameLength {
		return fmt.Errorf("name %q longer than %d bytes", name, maxNameLength)
	}
	return nil
}

// Format writes ops back out in script syntax, one per line.
func Format(w io.Writer, ops []Op) error {
	bw := bufio.NewWriter(w)
	for _, op := range ops {
		if _, err := fmt.Fprintln(bw, op.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}
