// Package depfile folds compiler-written dependency records into the action graph.
package depfile

import (
	"bufio"
	"io"
	"strings"

	"go.trai.ch/zerr"
)

// Record is one parsed rule of a dependency file.
type Record struct {
	Targets []string
	Prereqs []string
}

// Parse reads make-style rules: "out: a b \" with continuation lines, backslash
// escaped spaces and "$$" for a literal dollar.
func Parse(r io.Reader) ([]Record, error) {
	var (
		records []Record
		logical strings.Builder
	)

	flush := func() {
		line := logical.String()
		logical.Reset()
		if rec, ok := parseRule(line); ok {
			records = append(records, rec)
		}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(strings.TrimSpace(line), "#") && logical.Len() == 0 {
			continue
		}
		if cont, ok := continued(line); ok {
			logical.WriteString(cont)
			logical.WriteByte(' ')
			continue
		}
		logical.WriteString(line)
		flush()
	}
	if err := sc.Err(); err != nil {
		return nil, zerr.Wrap(err, "failed to read dependency record")
	}
	if logical.Len() > 0 {
		flush()
	}
	return records, nil
}

// continued reports whether a line ends in an unescaped backslash and strips it.
func continued(line string) (string, bool) {
	n := 0
	for i := len(line) - 1; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	if n%2 == 1 {
		return line[:len(line)-1], true
	}
	return line, false
}

func parseRule(line string) (Record, bool) {
	words := splitWords(line)
	if len(words) == 0 {
		return Record{}, false
	}

	var rec Record
	seenColon := false
	for _, w := range words {
		switch {
		case seenColon:
			rec.Prereqs = append(rec.Prereqs, w.text)
		case w.text == ":" && !w.escaped:
			seenColon = true
		case strings.HasSuffix(w.text, ":") && !w.escaped:
			rec.Targets = append(rec.Targets, strings.TrimSuffix(w.text, ":"))
			seenColon = true
		default:
			rec.Targets = append(rec.Targets, w.text)
		}
	}
	if !seenColon || len(rec.Targets) == 0 {
		return Record{}, false
	}
	return rec, true
}

type word struct {
	text    string
	escaped bool
}

// splitWords splits on unescaped whitespace. A colon followed by a space or the end of
// the line ends the target list and is returned as its own word.
func splitWords(line string) []word {
	var (
		words []word
		cur   strings.Builder
		esc   bool
	)
	emit := func() {
		if cur.Len() > 0 {
			words = append(words, word{text: cur.String(), escaped: esc})
		}
		cur.Reset()
		esc = false
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && i+1 < len(line) && (line[i+1] == ' ' || line[i+1] == '#' || line[i+1] == '\\'):
			cur.WriteByte(line[i+1])
			esc = true
			i++
		case c == '$' && i+1 < len(line) && line[i+1] == '$':
			cur.WriteByte('$')
			i++
		case c == ':' && (i+1 == len(line) || line[i+1] == ' ' || line[i+1] == '\t'):
			emit()
			words = append(words, word{text: ":"})
		case c == ' ' || c == '\t':
			emit()
		default:
			cur.WriteByte(c)
		}
	}
	emit()
	return words
}
