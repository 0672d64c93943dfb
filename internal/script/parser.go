// Package script holds the narrative script model: the AST, the two-phase
// Markdown-flavored parser, the condition sublanguage, and the label index
// used for jumps. Parsing is line-oriented and tolerant: unrecognized lines
// become warnings, structural defects become ParseErrors.
package script

import (
	"fmt"
	"strings"
)

// blockKind discriminates the phase-1 block variants.
type blockKind int

const (
	blockSingleLine blockKind = iota
	blockTable
	blockConditional
)

// block is a phase-1 unit: a single line, a run of table rows, or an
// if/endif region. Lines keep their 1-based source line numbers.
type block struct {
	kind      blockKind
	lines     []blockLine
	startLine int
}

type blockLine struct {
	text string
	num  int
}

// recognizeBlocks partitions source lines into blocks. Tables are runs of
// `|`-prefixed lines broken by a blank or non-table line; conditionals run
// from `if` through the matching `endif`, tolerating nesting. An unclosed
// conditional is still emitted so phase 2 can report it.
func recognizeBlocks(text string) []block {
	var blocks []block
	var table *block
	var conditional *block
	depth := 0

	flushTable := func() {
		if table != nil {
			blocks = append(blocks, *table)
			table = nil
		}
	}

	lineNum := 0
	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		lineNum++
		trimmed := strings.TrimSpace(raw)

		isIf := hasPrefixFold(trimmed, "if ")
		isEndif := strings.EqualFold(trimmed, "endif")

		if conditional != nil {
			if isIf {
				depth++
			}
			conditional.lines = append(conditional.lines, blockLine{text: trimmed, num: lineNum})
			if isEndif {
				if depth > 0 {
					depth--
				} else {
					blocks = append(blocks, *conditional)
					conditional = nil
				}
			}
			continue
		}

		if isIf {
			flushTable()
			conditional = &block{
				kind:      blockConditional,
				lines:     []blockLine{{text: trimmed, num: lineNum}},
				startLine: lineNum,
			}
			depth = 0
			continue
		}

		if trimmed == "" {
			flushTable()
			continue
		}

		if strings.HasPrefix(trimmed, "|") {
			if table == nil {
				table = &block{kind: blockTable, startLine: lineNum}
			}
			table.lines = append(table.lines, blockLine{text: trimmed, num: lineNum})
			continue
		}

		flushTable()
		blocks = append(blocks, block{
			kind:      blockSingleLine,
			lines:     []blockLine{{text: trimmed, num: lineNum}},
			startLine: lineNum,
		})
	}

	flushTable()
	if conditional != nil {
		blocks = append(blocks, *conditional)
	}
	return blocks
}

// Parser turns script source into a Script, collecting non-fatal warnings
// along the way.
type Parser struct {
	warnings []Warning
}

// NewParser creates a parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses with an empty base path; authored asset paths are kept as-is.
func (p *Parser) Parse(scriptID, text string) (*Script, error) {
	return p.ParseWithBasePath(scriptID, text, "")
}

// ParseWithBasePath parses script text. basePath is the directory of the
// script file, used later to resolve relative asset paths.
func (p *Parser) ParseWithBasePath(scriptID, text, basePath string) (*Script, error) {
	p.warnings = nil

	var nodes []Node
	var sourceMap []int
	for _, b := range recognizeBlocks(text) {
		node, err := p.parseBlock(b)
		if err != nil {
			return nil, err
		}
		if node != nil {
			nodes = append(nodes, node)
			sourceMap = append(sourceMap, b.startLine)
		}
	}

	s := NewScript(scriptID, nodes, basePath, sourceMap)
	s.warnings = append(p.warnings, s.warnings...)
	return s, nil
}

// Warnings returns the warnings from the most recent Parse call.
func (p *Parser) Warnings() []Warning { return p.warnings }

func (p *Parser) warnf(line int, format string, args ...any) {
	p.warnings = append(p.warnings, Warning{Line: line, Message: fmt.Sprintf(format, args...)})
}

func (p *Parser) parseBlock(b block) (Node, error) {
	switch b.kind {
	case blockSingleLine:
		return p.parseSingleLine(b.lines[0].text, b.lines[0].num)
	case blockTable:
		return p.parseTable(b.lines, b.startLine)
	case blockConditional:
		return p.parseConditional(b.lines, b.startLine)
	}
	return nil, nil
}
