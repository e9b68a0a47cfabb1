package mcpserver

// NoteFormatContract describes the canonical Markdown note format that
// LLM consumers should follow when writing notes into the vault.
const NoteFormatContract = `# Note Format Contract

Every Markdown note in the vault MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # REQUIRED
created: 20250115103000             # OPTIONAL – 14-digit timestamp (YYYYMMDDHHMMSS)
tags:                               # OPTIONAL – YAML list
  - concept
  - permanent-note
---

# Human-readable title

One or more description paragraphs in plain Markdown.

## Key Quotes

> A verbatim quote worth keeping.

## Sources

- From: Source Name
  URL: https://example.com/page

## Related Notes

- [[20250110090000-other-note|Other Note]]
` + "```" + `

## Rules

1. **YAML frontmatter is mandatory.** The ` + "`" + `---` + "`" + ` fences must be the first
   thing in the file (no leading blank lines).
2. **` + "`" + `title` + "`" + ` field is required.** It is the primary display name everywhere.
3. **Filenames** are ` + "`" + `<14-digit timestamp>-<slug>.md` + "`" + `, e.g.
   ` + "`" + `20250115103000-spaced-repetition.md` + "`" + `. The slug is the lowercase,
   hyphenated title.
4. **Sections** use the exact headings ` + "`" + `## Key Quotes` + "`" + `, ` + "`" + `## Sources` + "`" + `, and
   ` + "`" + `## Related Notes` + "`" + `, in that order. Omit a section entirely when empty.
5. **Source entries** group one or more ` + "`" + `From:` + "`" + ` context lines followed by a
   single ` + "`" + `URL:` + "`" + ` line. Duplicate URLs are collapsed during merges.
6. **Related entries** are wikilinks: ` + "`" + `- [[<filename stem>|<Display Name>]]` + "`" + `.
   The display name after the pipe identifies the concept; merges keep the
   link whose stem carries the latest timestamp.
7. **Staging-only fields.** Notes written under ` + "`" + `staging/` + "`" + ` carry two extra
   frontmatter keys set by the duplicate resolver: ` + "`" + `is_new` + "`" + ` (boolean) and,
   when false, ` + "`" + `merge_into` + "`" + ` (the target filename in permanent-notes).
   Never write these by hand; they are stripped on approval.
8. **Tags** are lowercase, kebab-case. Notes tagged ` + "`" + `source` + "`" + ` land under
   ` + "`" + `sources/` + "`" + `; everything else lands under ` + "`" + `permanent-notes/` + "`" + `.
9. **Encoding** is UTF-8 with a trailing newline.

## Directories

- ` + "`" + `staging/concepts/` + "`" + ` and ` + "`" + `staging/sources/` + "`" + ` – new notes awaiting review.
- ` + "`" + `permanent-notes/` + "`" + ` – the approved concept corpus (flat).
- ` + "`" + `sources/` + "`" + ` – approved source notes (flat).
- ` + "`" + `INDEX.md` + "`" + ` and ` + "`" + `PEOPLE-INDEX.md` + "`" + ` are generated; never edit them.

## Assets & Images

- Upload assets via the ` + "`" + `upload_asset` + "`" + ` tool. It returns a ` + "`" + `markdownImage` + "`" + ` field ready to paste into the note body.
- Assets live in the shared ` + "`" + `attachments/` + "`" + ` directory (flat, no sub-folders).
- Reference them with the absolute path: ` + "`" + `![description](/attachments/filename.png)` + "`" + `
- Supported formats: png, jpg, jpeg, gif, webp, svg, pdf.
`
