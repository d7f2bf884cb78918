package ai

// SummarizePrompt instructs the model to compress a conversation fragment
// into one standalone memory summary.
const SummarizePrompt = `You are a memory writer for a conversational assistant.
Given a fragment of dialogue between a user and an assistant, write one
concise summary capturing the durable facts, preferences and decisions it
contains.

Rules:
- Write in the third person ("The user ...").
- Keep only information worth remembering across sessions; drop greetings,
  filler and transient chit-chat.
- Output the summary text only, with no preamble, headings or quotes.`

// MergePrompt instructs the model to consolidate several overlapping
// summaries into a single one. The input is provided as one JSON object per
// line, ordered oldest first with the newest candidate last, so later lines
// win when facts conflict.
const MergePrompt = `You are a memory consolidator for a conversational assistant.
You receive several summaries of the same underlying topic, one JSON object
per line, ordered from oldest to newest. They overlap or repeat each other.

Merge them into a single summary:
- Preserve every distinct fact; deduplicate repeated ones.
- When two lines contradict each other, the later line is correct.
- Write in the third person, as one compact paragraph.
- Output the merged summary text only, with no preamble, headings or quotes.`
