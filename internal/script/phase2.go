package script

import (
	"strings"
)

// parseSingleLine types one line into a node, or nil with a warning when the
// line is not recognizable.
func (p *Parser) parseSingleLine(line string, num int) (Node, error) {
	line = strings.TrimSpace(line)

	if strings.HasPrefix(line, "#") {
		return p.parseChapter(line), nil
	}

	if strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**") && len(line) > 4 {
		name := strings.TrimSpace(line[2 : len(line)-2])
		if name != "" && !strings.Contains(name, "*") {
			return &Label{Name: name}, nil
		}
	}

	switch {
	case hasPrefixFold(line, "changebg"):
		return p.parseChangeBG(line, num)
	case hasPrefixFold(line, "changescene"):
		return p.parseChangeScene(line, num)
	case hasPrefixFold(line, "show"):
		return p.parseShow(line, num)
	case hasPrefixFold(line, "hide"):
		return p.parseHide(line, num)
	case hasPrefixFold(line, "goto"):
		return p.parseGoto(line, num)
	case hasPrefixFold(line, "stopbgm"):
		return &StopBgm{}, nil
	case hasPrefixFold(line, "set "):
		return p.parseSetVar(line, num)
	case hasPrefixFold(line, "textboxhide"):
		return &TextBoxHide{}, nil
	case hasPrefixFold(line, "textboxshow"):
		return &TextBoxShow{}, nil
	case hasPrefixFold(line, "textboxclear"):
		return &TextBoxClear{}, nil
	case hasPrefixFold(line, "clearcharacters"):
		return &ClearCharacters{}, nil
	case strings.HasPrefix(line, "<audio"):
		return p.parseAudio(line, num)
	}

	if speaker, content, ok := parseDialogueLine(line); ok {
		return &Dialogue{Speaker: speaker, Content: content}, nil
	}

	p.warnf(num, "unrecognized line skipped: %s", line)
	return nil, nil
}

// parseChapter reads `# Title` through `###### Title`. Malformed headings
// are silently dropped; they are decoration, not flow.
func (p *Parser) parseChapter(line string) Node {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level > 6 {
		return nil
	}
	title := strings.TrimSpace(line[level:])
	if title == "" {
		return nil
	}
	return &Chapter{Title: title, Level: level}
}

func (p *Parser) parseChangeBG(line string, num int) (Node, error) {
	path, ok := extractImgSrc(line)
	if !ok {
		return nil, missingParameter(num, "changeBG", `image path (<img src="..."/>)`)
	}

	transition := p.extractTransition(line)
	if transition != nil {
		switch strings.ToLower(transition.Name) {
		case "fade", "fadewhite":
			hint := "Fade"
			if strings.EqualFold(transition.Name, "fadewhite") {
				hint = "FadeWhite"
			}
			return nil, invalidTransition(num,
				"changeBG no longer supports %q; use changeScene with %s(...) instead",
				transition.Name, hint)
		case "dissolve":
		default:
			return nil, invalidTransition(num,
				"changeBG only supports dissolve, not %q; use changeScene for full transitions",
				transition.Name)
		}
	}

	return &ChangeBG{Path: path, Transition: transition}, nil
}

func (p *Parser) parseChangeScene(line string, num int) (Node, error) {
	path, ok := extractImgSrc(line)
	if !ok {
		return nil, missingParameter(num, "changeScene", `image path (<img src="..."/>)`)
	}

	lower := strings.ToLower(line)
	if !strings.Contains(lower, " with ") && !strings.Contains(lower, ">with ") {
		return nil, missingParameter(num, "changeScene", "with clause (a transition is mandatory)")
	}

	transition := p.extractTransition(line)
	if transition == nil {
		return nil, invalidTransition(num, "cannot parse changeScene transition")
	}
	return &ChangeScene{Path: path, Transition: transition}, nil
}

// parseShow reads either `show <img src="..."/> as alias at position` or
// the short form `show alias at position` for an already-bound alias.
func (p *Parser) parseShow(line string, num int) (Node, error) {
	path, hasPath := extractImgSrc(line)

	var alias string
	if hasPath {
		v, ok := extractKeywordValue(line, "as")
		if !ok {
			return nil, missingParameter(num, "show", "as (alias)")
		}
		alias = v
	} else {
		afterShow := strings.TrimSpace(line[len("show"):])
		atPos := strings.Index(strings.ToLower(afterShow), " at ")
		if atPos < 0 {
			return nil, missingParameter(num, "show", "at (position)")
		}
		alias = strings.TrimSpace(afterShow[:atPos])
		if alias == "" {
			return nil, missingParameter(num, "show", "alias")
		}
	}

	positionText, ok := extractKeywordValue(line, "at")
	if !ok {
		return nil, missingParameter(num, "show", "at (position)")
	}
	position, ok := ParsePosition(positionText)
	if !ok {
		return nil, invalidParameter(num, "position", "unknown position %q", positionText)
	}

	return &ShowCharacter{
		Path:       path,
		Alias:      alias,
		Position:   position,
		Transition: p.extractTransition(line),
	}, nil
}

func (p *Parser) parseHide(line string, num int) (Node, error) {
	parts := strings.Fields(line)
	if len(parts) < 2 {
		return nil, missingParameter(num, "hide", "alias")
	}
	return &HideCharacter{Alias: parts[1], Transition: p.extractTransition(line)}, nil
}

func (p *Parser) parseGoto(line string, num int) (Node, error) {
	content := strings.TrimSpace(line[len("goto"):])
	if content == "" {
		return nil, missingParameter(num, "goto", "target label")
	}
	if strings.HasPrefix(content, "**") && strings.HasSuffix(content, "**") && len(content) > 4 {
		content = strings.TrimSpace(content[2 : len(content)-2])
	}
	if content == "" {
		return nil, missingParameter(num, "goto", "target label")
	}
	return &Goto{TargetLabel: content}, nil
}

func (p *Parser) parseSetVar(line string, num int) (Node, error) {
	content := strings.TrimSpace(line[len("set "):])

	eq := strings.IndexByte(content, '=')
	if eq < 0 {
		return nil, missingParameter(num, "set", "assignment '='")
	}
	varPart := strings.TrimSpace(content[:eq])
	valuePart := strings.TrimSpace(content[eq+1:])

	name, ok := strings.CutPrefix(varPart, "$")
	if !ok {
		return nil, invalidLine(num, "variable name must start with '$', got %q", varPart)
	}
	if name == "" {
		return nil, missingParameter(num, "set", "variable name")
	}
	if !isIdentifier(name) {
		return nil, invalidLine(num, "variable name may only contain letters, digits and underscores, got %q", name)
	}

	expr, err := ParseExpression(valuePart, num)
	if err != nil {
		return nil, err
	}
	return &SetVar{Name: name, Expr: expr}, nil
}

func (p *Parser) parseAudio(line string, num int) (Node, error) {
	path, ok := extractAudioSrc(line)
	if !ok {
		return nil, missingParameter(num, "audio", `audio path (<audio src="..."/>)`)
	}

	isBGM := false
	if closeTag := strings.Index(strings.ToLower(line), "</audio>"); closeTag >= 0 {
		after := line[closeTag+len("</audio>"):]
		isBGM = strings.Contains(strings.ToLower(after), "loop")
	}
	return &PlayAudio{Path: path, IsBGM: isBGM}, nil
}

// extractTransition pulls the `with ...` clause out of a line, handling the
// plain, `>with`, backtick-code and rule (`with <img src="mask"/> (...)`)
// forms. Returns nil when no clause is present or it cannot be parsed.
func (p *Parser) extractTransition(line string) *Transition {
	lower := strings.ToLower(line)

	withPos := -1
	skip := 0
	for _, pat := range []string{" with ", ">with ", " with`", ">with`"} {
		if pos := strings.LastIndex(lower, pat); pos > withPos {
			withPos = pos
			if strings.HasSuffix(pat, "`") {
				skip = len(pat) - 1
			} else {
				skip = len(pat)
			}
		}
	}
	if withPos < 0 {
		return nil
	}
	text := strings.TrimSpace(line[withPos+skip:])

	// A mask image makes this a rule transition with named args.
	if strings.Contains(text, "<img") {
		maskPath, ok := extractImgSrc(text)
		if !ok {
			return SimpleTransition("rule")
		}
		args := []TransitionArg{{Name: "mask", Value: StringValue(maskPath)}}
		if imgEnd := strings.Index(text, "/>"); imgEnd >= 0 {
			after := text[imgEnd+2:]
			open := strings.IndexByte(after, '(')
			closeParen := strings.LastIndexByte(after, ')')
			if open >= 0 && closeParen > open {
				if parsed, err := parseTransitionArgs(after[open+1 : closeParen]); err == nil {
					args = append(args, parsed...)
				}
			}
		}
		return &Transition{Name: "rule", Args: args}
	}

	// Inline-code form: `Dissolve(2.0)`.
	if strings.HasPrefix(text, "`") {
		text = strings.TrimPrefix(text, "`")
		if end := strings.IndexByte(text, '`'); end >= 0 {
			text = text[:end]
		}
	}

	t, ok := parseTransitionText(strings.TrimSpace(text))
	if !ok {
		return nil
	}
	return t
}

// parseTable turns a table block into a Choice node. The first non-separator
// row is the header and supplies the style; every option row needs at least
// a text cell and a target-label cell.
func (p *Parser) parseTable(lines []blockLine, startLine int) (Node, error) {
	var options []ChoiceOption
	style := ""
	headerParsed := false

	for _, bl := range lines {
		if isTableSeparator(bl.text) {
			continue
		}

		var cells []string
		for _, c := range strings.Split(bl.text, "|") {
			if c = strings.TrimSpace(c); c != "" {
				cells = append(cells, c)
			}
		}

		if !headerParsed {
			if len(cells) > 0 {
				style = cells[0]
			}
			headerParsed = true
			continue
		}

		if len(cells) < 2 {
			p.warnf(bl.num, "incomplete table row skipped")
			continue
		}
		options = append(options, ChoiceOption{Text: cells[0], TargetLabel: cells[1]})
	}

	if len(options) == 0 {
		return nil, invalidTable(startLine, "choice table has no valid options")
	}
	return &Choice{Style: style, Options: options}, nil
}

// parseConditional turns an if/elseif/else/endif block into a Conditional.
func (p *Parser) parseConditional(lines []blockLine, startLine int) (Node, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	if !strings.EqualFold(lines[len(lines)-1].text, "endif") {
		return nil, invalidLine(startLine, "conditional block not closed, missing 'endif'")
	}

	var branches []Branch
	var bodyLines []blockLine
	var condition Expr
	first := true

	closeBranch := func() error {
		body, err := p.parseBody(bodyLines)
		if err != nil {
			return err
		}
		branches = append(branches, Branch{Condition: condition, Body: body})
		bodyLines = nil
		condition = nil
		return nil
	}

	for _, bl := range lines {
		trimmed := strings.TrimSpace(bl.text)

		if first {
			if !hasPrefixFold(trimmed, "if ") {
				return nil, invalidLine(bl.num, "conditional block must start with 'if'")
			}
			cond, err := ParseExpression(trimmed[len("if "):], bl.num)
			if err != nil {
				return nil, err
			}
			condition = cond
			first = false
			continue
		}

		switch {
		case hasPrefixFold(trimmed, "elseif "):
			if err := closeBranch(); err != nil {
				return nil, err
			}
			cond, err := ParseExpression(trimmed[len("elseif "):], bl.num)
			if err != nil {
				return nil, err
			}
			condition = cond

		case strings.EqualFold(trimmed, "else"):
			if err := closeBranch(); err != nil {
				return nil, err
			}
			condition = nil

		case strings.EqualFold(trimmed, "endif"):
			if err := closeBranch(); err != nil {
				return nil, err
			}
			return &Conditional{Branches: branches}, nil

		default:
			bodyLines = append(bodyLines, bl)
		}
	}
	return nil, invalidLine(startLine, "conditional block has no branches")
}

func (p *Parser) parseBody(lines []blockLine) ([]Node, error) {
	var nodes []Node
	for _, bl := range lines {
		if strings.TrimSpace(bl.text) == "" {
			continue
		}
		node, err := p.parseSingleLine(bl.text, bl.num)
		if err != nil {
			return nil, err
		}
		if node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes, nil
}
