package mcpserver

// EntryFormatContract describes the canonical journal entry shape that
// LLM consumers should follow when creating entries.
const EntryFormatContract = `# Puchi Entry Format Contract

Every journal entry created through the MCP tools MUST follow these rules.

## Fields

- **content** (required) – the journal text. Plain text, newlines allowed.
  The first non-empty line becomes the title when no explicit title is given.
- **title** (optional) – explicit display title. Leave empty to derive it
  from the content.
- **mood** (optional) – exactly one of:
  ` + "`amazing`, `happy`, `content`, `neutral`, `sad`, `romantic`, `grateful`" + `.
  Omit the field entirely when no mood applies; never invent new values.
- **tags** (optional) – comma-separated list. Tags are lowercased and
  deduplicated on save; inline ` + "`#hashtags`" + ` in the content are merged in
  automatically, so do not repeat them.

## Media

- Attach media with the ` + "`attach_media`" + ` tool after the entry exists.
  It accepts an HTTP(S) URL or a base64 data URI and a type of
  ` + "`photo`, `voice` or `video`" + `.
- Small attachments are stored inline with the entry; large ones land in the
  media directory. Consumers never need to care which.

## Example

` + "```" + `json
{
  "content": "Sunset picnic at the lighthouse.\nWe stayed until the stars came out. #picnic",
  "mood": "romantic",
  "tags": "date-night"
}
` + "```" + `
`
