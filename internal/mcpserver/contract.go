package mcpserver

// NoteFormatContract describes the canonical note format that LLM consumers
// should follow when creating notes with metadata headers.
const NoteFormatContract = `# NoteHub Note Format Contract

Every NoteHub note is a Markdown file. Plain Markdown is always valid: a
note without a metadata header is a regular note.

## Metadata header

A note MAY start with a metadata header fenced by ` + "`---`" + ` lines. The header
holds one ` + "`key: value`" + ` pair per line. It must start at the very first byte
of the file.

` + "```" + `markdown
---
type: task
status: open
due: 2026-03-01
priority: 2
tags: [work, urgent]
remind: 2026-02-28 09:00
person: Alice
---

Body text in standard Markdown.
` + "```" + `

## Fields

- ` + "`type`" + ` — ` + "`note`" + ` (default) or ` + "`task`" + `.
- ` + "`status`" + ` — ` + "`open`" + ` or ` + "`done`" + `, tasks only.
- ` + "`due`" + ` — ISO date ` + "`YYYY-MM-DD`" + `.
- ` + "`priority`" + ` — integer, higher is more urgent.
- ` + "`tags`" + ` — comma-separated list, brackets optional: ` + "`[a, b]`" + ` or ` + "`a, b`" + `.
- ` + "`remind`" + ` — ` + "`YYYY-MM-DD`" + ` or ` + "`YYYY-MM-DD HH:MM`" + `; a reminder fires once
  when the moment passes.
- ` + "`person`" + ` — free-form assignee.
- ` + "`start`" + ` — ISO date; defaults to the note's creation date.

Unknown keys are dropped. Booleans accept ` + "`true`" + ` and ` + "`1`" + `.

## Rules

1. The closing ` + "`---`" + ` fence is required; without it the whole file is
   treated as body text.
2. Use ` + "`[[wikilinks]]`" + ` with the note title (no ` + "`.md`" + ` extension) to
   reference other notes.
3. File encoding is UTF-8.
`
