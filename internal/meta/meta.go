// Package meta parses and serializes the structured header embedded in note
// documents. The header is fenced by "---" lines and holds line-oriented
// "key: value" fields from a fixed table; everything after the closing fence
// is the body.
package meta

import (
	"strconv"
	"strings"
)

// Note types.
const (
	TypeNote = "note"
	TypeTask = "task"
)

// Task statuses (by convention; the codec does not validate them).
const (
	StatusOpen = "open"
	StatusDone = "done"
)

const fence = "---"

// Meta holds the structured fields of a document header. The zero value plus
// Type=note is the default for documents without a header.
type Meta struct {
	Type         string
	Status       string
	Due          string
	Priority     int
	Tags         []string
	Remind       string
	Reminded     bool
	Person       string
	Start        string
	Template     bool
	TemplateName string
}

// Default returns the metadata of a document without a header.
func Default() Meta {
	return Meta{Type: TypeNote}
}

// IsTask reports whether the document is a task.
func (m Meta) IsTask() bool { return m.Type == TypeTask }

// HasTaskFields reports whether any task-related field carries a non-default
// value. Documents without task fields, of type note and not templates, are
// stored without a header at all.
func (m Meta) HasTaskFields() bool {
	return m.Status != "" || m.Due != "" || m.Priority != 0 || len(m.Tags) > 0 ||
		m.Remind != "" || m.Person != "" || m.Start != "" || m.Reminded
}

// Parse splits raw document text into metadata and body. Every input has a
// valid parse: a missing opening fence, an unterminated header, or malformed
// lines all degrade to "no header" with the entire text as body.
func Parse(raw string) (Meta, string) {
	m := Default()

	if !strings.HasPrefix(raw, fence+"\n") {
		return m, raw
	}

	var header, body string
	// The closing-fence search starts after the opening fence's trailing
	// newline. A fence closed on the very next line ("---\n---\n") shares
	// that newline, is never matched, and degrades to "no header" like any
	// other unterminated block.
	if i := strings.Index(raw[4:], "\n"+fence+"\n"); i >= 0 {
		end := i + 4
		header = raw[4:end]
		body = strings.TrimLeft(raw[end+5:], " \t\r\n")
	} else if j := strings.Index(raw[4:], "\n"+fence); j >= 0 && j+4+4 == len(raw) {
		// Closing fence at the exact end of text: empty body.
		header = raw[4 : j+4]
	} else {
		// No closing fence before end of text.
		return m, raw
	}

	for _, line := range strings.Split(header, "\n") {
		line = strings.TrimSpace(line)
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "type":
			m.Type = value
		case "status":
			m.Status = value
		case "due":
			m.Due = value
		case "priority":
			m.Priority, _ = strconv.Atoi(value)
		case "tags":
			m.Tags = parseTags(value)
		case "remind":
			m.Remind = value
		case "reminded":
			m.Reminded = parseBool(value)
		case "person":
			m.Person = value
		case "start":
			m.Start = value
		case "template":
			m.Template = parseBool(value)
		case "template_name":
			m.TemplateName = value
		}
		// Unrecognized keys are dropped.
	}

	if m.Type == "" {
		m.Type = TypeNote
	}
	return m, body
}

// Serialize renders metadata plus body back into document text. A plain note
// with no task fields and no template flag serializes to the bare body; any
// other combination emits a full header with fields in fixed order, omitting
// fields at their default value.
func Serialize(m Meta, body string) string {
	typ := m.Type
	if typ == "" {
		typ = TypeNote
	}

	if typ == TypeNote && !m.Template && !m.HasTaskFields() {
		return body
	}

	var b strings.Builder
	b.WriteString(fence + "\n")
	if typ != TypeNote {
		writeField(&b, "type", typ)
	}
	if m.Status != "" {
		writeField(&b, "status", m.Status)
	}
	if m.Due != "" {
		writeField(&b, "due", m.Due)
	}
	if m.Priority != 0 {
		writeField(&b, "priority", strconv.Itoa(m.Priority))
	}
	if len(m.Tags) > 0 {
		writeField(&b, "tags", "["+strings.Join(m.Tags, ", ")+"]")
	}
	if m.Remind != "" {
		writeField(&b, "remind", m.Remind)
	}
	if m.Person != "" {
		writeField(&b, "person", m.Person)
	}
	if m.Start != "" {
		writeField(&b, "start", m.Start)
	}
	if m.Reminded {
		writeField(&b, "reminded", "true")
	}
	if m.Template {
		writeField(&b, "template", "true")
	}
	if m.TemplateName != "" {
		writeField(&b, "template_name", m.TemplateName)
	}
	b.WriteString(fence + "\n\n")
	b.WriteString(body)
	return b.String()
}

// parseTags accepts both the bracketed "[a, b]" form and a bare
// comma-separated list. Empty input yields an empty list.
func parseTags(value string) []string {
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		value = value[1 : len(value)-1]
	}
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

func parseBool(value string) bool {
	return value == "true" || value == "1"
}

func writeField(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}
